package services

import (
	"bytes"
	"encoding/csv"
	"time"

	"moodtrack/internal/models"
)

// ExportCSV renders answers into the journal's CSV layout. Each row maps an
// answer to its question text; answers whose question has been deleted in
// the meantime are labeled "Unknown Question". Date and Time columns are
// derived from the answer's record time in loc.
func ExportCSV(answers []*models.Answer, questions []*models.Question, loc *time.Location) ([]byte, error) {
	byID := make(map[string]*models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"Date", "Time", "Question", "Answer", "Notes", "Snoozed"})
	for _, a := range answers {
		questionText := "Unknown Question"
		if q, ok := byID[a.QuestionID]; ok {
			questionText = q.Text
		}
		local := a.Timestamp.In(loc)
		snoozed := "No"
		if a.WasSnooze {
			snoozed = "Yes"
		}
		rec := []string{
			local.Format("2006-01-02"),
			local.Format("15:04"),
			questionText,
			a.AnswerText,
			a.AdditionalNotes,
			snoozed,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
