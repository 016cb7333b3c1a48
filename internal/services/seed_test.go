package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodtrack/internal/models"
)

func TestSeedDefaults_EmptyStore(t *testing.T) {
	store := &stubStore{}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, seedDefaults(context.Background(), store, func() time.Time { return now }, seqIDs("seed")))

	require.Len(t, store.questions, 4)
	assert.Equal(t, "How is your mood?", store.questions[0].Text)
	assert.Equal(t, models.QuestionTypeMultipleChoice, store.questions[0].Type)
	assert.Len(t, store.questions[0].Options, 5)
	for _, q := range store.questions {
		assert.Equal(t, 1, q.Version)
		assert.Equal(t, now, q.CreatedAt)
	}

	require.Len(t, store.schedules, 4)
	var times []string
	for _, sc := range store.schedules {
		times = append(times, sc.TimeOfDay)
		assert.True(t, sc.IsEnabled)
	}
	assert.Equal(t, []string{"09:00", "13:00", "17:00", "21:00"}, times)
}

func TestSeedDefaults_TablesSeededIndependently(t *testing.T) {
	store := &stubStore{}
	store.questions = append(store.questions, &models.Question{ID: "existing", Text: "x", Type: models.QuestionTypeText, Version: 1})

	require.NoError(t, seedDefaults(context.Background(), store, time.Now, seqIDs("seed")))

	// Questions untouched, schedules still seeded.
	assert.Len(t, store.questions, 1)
	assert.Len(t, store.schedules, 4)
}

func TestSeedDefaults_Idempotent(t *testing.T) {
	store := &stubStore{}
	ctx := context.Background()

	require.NoError(t, seedDefaults(ctx, store, time.Now, seqIDs("a")))
	require.NoError(t, seedDefaults(ctx, store, time.Now, seqIDs("b")))

	assert.Len(t, store.questions, 4)
	assert.Len(t, store.schedules, 4)
}
