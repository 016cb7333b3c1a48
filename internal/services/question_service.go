package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"moodtrack/internal/models"
)

// QuestionStore abstracts persistence operations required by QuestionService.
type QuestionStore interface {
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context) ([]*models.Question, error)
	ListActiveQuestions(ctx context.Context) ([]*models.Question, error)
	InsertQuestion(ctx context.Context, q *models.Question) error
	UpdateQuestion(ctx context.Context, q *models.Question) error
	SetQuestionHidden(ctx context.Context, id string, hidden bool) (bool, error)
	DeleteQuestion(ctx context.Context, id string) (bool, error)
	CountActiveQuestions(ctx context.Context) (int, error)
}

type QuestionService struct {
	store QuestionStore
	now   func() time.Time
	idGen func() string
}

func NewQuestionService(store QuestionStore) *QuestionService {
	return &QuestionService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: uuid.NewString,
	}
}

// validateShape enforces the per-variant rules: text is required, multiple
// choice needs at least two non-blank options, every other type has none.
// Returns the cleaned text and options.
func validateShape(text string, qt models.QuestionType, options []string) (string, []string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, NewInvalidError("question text is required")
	}
	if !qt.Valid() {
		return "", nil, NewInvalidError(fmt.Sprintf("unsupported question type %q", qt))
	}
	if qt != models.QuestionTypeMultipleChoice {
		if len(options) > 0 {
			return "", nil, NewInvalidError("options are only allowed for multiple choice questions")
		}
		return text, nil, nil
	}
	cleaned := make([]string, 0, len(options))
	for _, opt := range options {
		if o := strings.TrimSpace(opt); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	if len(cleaned) < 2 {
		return "", nil, NewInvalidError("multiple choice questions need at least 2 options")
	}
	return text, cleaned, nil
}

func (s *QuestionService) Create(ctx context.Context, text string, qt models.QuestionType, options []string) (*models.Question, error) {
	text, options, err := validateShape(text, qt, options)
	if err != nil {
		return nil, err
	}
	now := s.now()
	q := &models.Question{
		ID:         s.idGen(),
		Text:       text,
		Type:       qt,
		Options:    options,
		CreatedAt:  now,
		ModifiedAt: now,
		Version:    1,
	}
	if err := s.store.InsertQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

// Update replaces text, type and options, bumping the version by exactly
// one. An edit that changes nothing is returned as-is without a write.
func (s *QuestionService) Update(ctx context.Context, id, text string, qt models.QuestionType, options []string) (*models.Question, error) {
	existing, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if existing == nil {
		return nil, NewNotFoundError("question not found")
	}
	text, options, err = validateShape(text, qt, options)
	if err != nil {
		return nil, err
	}
	if existing.Text == text && existing.Type == qt && equalOptions(existing.Options, options) {
		return existing, nil
	}
	updated := *existing
	updated.Text = text
	updated.Type = qt
	updated.Options = options
	updated.Version = existing.Version + 1
	updated.ModifiedAt = s.now()
	if err := s.store.UpdateQuestion(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return &updated, nil
}

// SetHidden toggles visibility without touching the version.
func (s *QuestionService) SetHidden(ctx context.Context, id string, hidden bool) error {
	ok, err := s.store.SetQuestionHidden(ctx, id, hidden)
	if err != nil {
		return fmt.Errorf("set question hidden: %w", err)
	}
	if !ok {
		return NewNotFoundError("question not found")
	}
	return nil
}

// Delete removes the question and, through the store's cascade, every
// answer that references it.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	ok, err := s.store.DeleteQuestion(ctx, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if !ok {
		return NewNotFoundError("question not found")
	}
	return nil
}

func (s *QuestionService) Get(ctx context.Context, id string) (*models.Question, error) {
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	return q, nil
}

// ListAll returns every question, hidden included, oldest first.
func (s *QuestionService) ListAll(ctx context.Context) ([]*models.Question, error) {
	return s.store.ListQuestions(ctx)
}

// ListActive returns non-hidden questions ordered by creation time.
func (s *QuestionService) ListActive(ctx context.Context) ([]*models.Question, error) {
	return s.store.ListActiveQuestions(ctx)
}

func (s *QuestionService) ActiveCount(ctx context.Context) (int, error) {
	return s.store.CountActiveQuestions(ctx)
}

func equalOptions(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
