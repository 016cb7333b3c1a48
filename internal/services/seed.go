package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"moodtrack/internal/models"
)

// SeedStore abstracts persistence operations required by first-run seeding.
type SeedStore interface {
	CountQuestions(ctx context.Context) (int, error)
	CountSchedules(ctx context.Context) (int, error)
	InsertQuestion(ctx context.Context, q *models.Question) error
	InsertSchedule(ctx context.Context, sc *models.NotificationSchedule) error
}

var defaultScheduleTimes = []string{"09:00", "13:00", "17:00", "21:00"}

func defaultQuestions(idGen func() string) []*models.Question {
	return []*models.Question{
		{
			ID:      idGen(),
			Text:    "How is your mood?",
			Type:    models.QuestionTypeMultipleChoice,
			Options: []string{"Great", "Good", "Okay", "Not great", "Terrible"},
		},
		{
			ID:   idGen(),
			Text: "Have you exercised today yet?",
			Type: models.QuestionTypeYesNo,
		},
		{
			ID:   idGen(),
			Text: "How many hours were you sitting at the computer?",
			Type: models.QuestionTypeNumber,
		},
		{
			ID:   idGen(),
			Text: "Any reminders you would like for the future?",
			Type: models.QuestionTypeText,
		},
	}
}

// SeedDefaults populates the stock question set and notification times on
// an empty store. Each table is seeded independently so a user who deleted
// all schedules but kept questions is not re-seeded with questions.
func SeedDefaults(ctx context.Context, store SeedStore) error {
	return seedDefaults(ctx, store, func() time.Time { return time.Now().UTC() }, uuid.NewString)
}

func seedDefaults(ctx context.Context, store SeedStore, now func() time.Time, idGen func() string) error {
	questionCount, err := store.CountQuestions(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if questionCount == 0 {
		ts := now()
		for _, q := range defaultQuestions(idGen) {
			q.CreatedAt = ts
			q.ModifiedAt = ts
			q.Version = 1
			if err := store.InsertQuestion(ctx, q); err != nil {
				return fmt.Errorf("seed question: %w", err)
			}
		}
	}

	scheduleCount, err := store.CountSchedules(ctx)
	if err != nil {
		return fmt.Errorf("count schedules: %w", err)
	}
	if scheduleCount == 0 {
		for _, tod := range defaultScheduleTimes {
			sc := &models.NotificationSchedule{ID: idGen(), TimeOfDay: tod, IsEnabled: true}
			if err := store.InsertSchedule(ctx, sc); err != nil {
				return fmt.Errorf("seed schedule: %w", err)
			}
		}
	}
	return nil
}
