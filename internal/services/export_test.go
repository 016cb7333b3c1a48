package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodtrack/internal/models"
)

func TestExportCSV(t *testing.T) {
	questions := []*models.Question{
		{ID: "q1", Text: "How is your mood?"},
	}
	answers := []*models.Answer{
		{
			ID:              "a2",
			QuestionID:      "q1",
			AnswerText:      "Good",
			AdditionalNotes: `said "fine", moved on`,
			Timestamp:       time.Date(2026, 3, 10, 21, 5, 0, 0, time.UTC),
			WasSnooze:       true,
		},
		{
			ID:         "a1",
			QuestionID: "gone",
			AnswerText: "7",
			Timestamp:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
	}

	out, err := ExportCSV(answers, questions, time.UTC)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Date", "Time", "Question", "Answer", "Notes", "Snoozed"}, rows[0])
	assert.Equal(t, []string{"2026-03-10", "21:05", "How is your mood?", "Good", `said "fine", moved on`, "Yes"}, rows[1])
	// Answers to a deleted question keep their rows.
	assert.Equal(t, []string{"2026-03-10", "09:00", "Unknown Question", "7", "", "No"}, rows[2])
}

func TestExportCSV_LocalizesTimestamps(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	answers := []*models.Answer{
		{ID: "a1", QuestionID: "q1", AnswerText: "x", Timestamp: time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)},
	}

	out, err := ExportCSV(answers, nil, loc)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// UTC 23:30 is the next day in Berlin (+01:00 in March before DST).
	assert.Equal(t, "2026-03-11", rows[1][0])
	assert.Equal(t, "00:30", rows[1][1])
}

func TestExportCSV_Empty(t *testing.T) {
	out, err := ExportCSV(nil, nil, time.UTC)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Date", rows[0][0])
}
