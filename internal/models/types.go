package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuestionType discriminates the answer shape a question accepts.
// MultipleChoice is the only variant that carries options.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeYesNo          QuestionType = "YES_NO"
	QuestionTypeNumber         QuestionType = "NUMBER"
	QuestionTypeText           QuestionType = "TEXT"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeYesNo, QuestionTypeNumber, QuestionTypeText:
		return true
	}
	return false
}

// Question is a user-defined prompt item. Version increments on every
// change to Text, Type or Options; hiding a question leaves it untouched.
type Question struct {
	ID         string       `json:"id"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Options    []string     `json:"options,omitempty"`
	IsHidden   bool         `json:"is_hidden"`
	CreatedAt  time.Time    `json:"created_at"`
	ModifiedAt time.Time    `json:"modified_at"`
	Version    int          `json:"version"`
}

// Answer is an immutable record of one response. QuestionVersion pins the
// question's version at answer time and is never updated afterwards.
type Answer struct {
	ID              string    `json:"id"`
	QuestionID      string    `json:"question_id"`
	QuestionVersion int       `json:"question_version"`
	AnswerText      string    `json:"answer_text"`
	AdditionalNotes string    `json:"additional_notes,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	WasSnooze       bool      `json:"was_snooze"`
}

// NotificationSchedule is a daily recurring prompt time in the local zone.
type NotificationSchedule struct {
	ID        string `json:"id"`
	TimeOfDay string `json:"time_of_day"` // normalized 24-hour HH:MM
	IsEnabled bool   `json:"is_enabled"`
}

// User is the single owner account of this instance.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseTimeOfDay splits an HH:MM string into hour and minute.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("time of day %q: bad hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("time of day %q: bad minute", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day %q: out of range", s)
	}
	return hour, minute, nil
}

// NormalizeTimeOfDay validates s and returns it in canonical HH:MM form.
func NormalizeTimeOfDay(s string) (string, error) {
	h, m, err := ParseTimeOfDay(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}
