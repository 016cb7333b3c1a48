package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"moodtrack/internal/models"
)

// AnswerStore abstracts persistence operations required by AnswerService.
type AnswerStore interface {
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	GetAnswer(ctx context.Context, id string) (*models.Answer, error)
	InsertAnswer(ctx context.Context, a *models.Answer) error
	DeleteAnswer(ctx context.Context, id string) (bool, error)
	ListAnswers(ctx context.Context) ([]*models.Answer, error)
	ListAnswersForQuestion(ctx context.Context, questionID string, limit int) ([]*models.Answer, error)
	LatestAnswerPerQuestion(ctx context.Context) ([]*models.Answer, error)
	CountAnswersForQuestion(ctx context.Context, questionID string) (int, error)
}

type AnswerService struct {
	store AnswerStore
	now   func() time.Time
	idGen func() string
}

func NewAnswerService(store AnswerStore) *AnswerService {
	return &AnswerService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: uuid.NewString,
	}
}

// Record creates an immutable answer stamped with the question's current
// version. Later edits to the question never touch this snapshot.
func (s *AnswerService) Record(ctx context.Context, questionID, answerText, notes string, wasSnooze bool) (*models.Answer, error) {
	if strings.TrimSpace(answerText) == "" {
		return nil, NewInvalidError("answer text is required")
	}
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	a := &models.Answer{
		ID:              s.idGen(),
		QuestionID:      q.ID,
		QuestionVersion: q.Version,
		AnswerText:      strings.TrimSpace(answerText),
		AdditionalNotes: strings.TrimSpace(notes),
		Timestamp:       s.now(),
		WasSnooze:       wasSnooze,
	}
	if err := s.store.InsertAnswer(ctx, a); err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	return a, nil
}

func (s *AnswerService) Get(ctx context.Context, id string) (*models.Answer, error) {
	a, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load answer: %w", err)
	}
	if a == nil {
		return nil, NewNotFoundError("answer not found")
	}
	return a, nil
}

func (s *AnswerService) Delete(ctx context.Context, id string) error {
	ok, err := s.store.DeleteAnswer(ctx, id)
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	if !ok {
		return NewNotFoundError("answer not found")
	}
	return nil
}

// ListAll returns every answer, newest first.
func (s *AnswerService) ListAll(ctx context.Context) ([]*models.Answer, error) {
	return s.store.ListAnswers(ctx)
}

// ListForQuestion returns the question's answers newest first; limit <= 0
// means no truncation.
func (s *AnswerService) ListForQuestion(ctx context.Context, questionID string, limit int) ([]*models.Answer, error) {
	return s.store.ListAnswersForQuestion(ctx, questionID, limit)
}

// LatestPerQuestion returns at most one answer per question: the
// maximum-timestamp row, ties broken by the larger id.
func (s *AnswerService) LatestPerQuestion(ctx context.Context) ([]*models.Answer, error) {
	return s.store.LatestAnswerPerQuestion(ctx)
}

func (s *AnswerService) CountForQuestion(ctx context.Context, questionID string) (int, error) {
	return s.store.CountAnswersForQuestion(ctx, questionID)
}
