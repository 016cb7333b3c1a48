package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"09:00", "09:00", true},
		{"9:5", "09:05", true},
		{" 21:30 ", "21:30", true},
		{"00:00", "00:00", true},
		{"23:59", "23:59", true},
		{"24:00", "", false},
		{"12:60", "", false},
		{"-1:00", "", false},
		{"noon", "", false},
		{"12", "", false},
		{"12:00:00", "", false},
	}
	for _, c := range cases {
		got, err := NormalizeTimeOfDay(c.in)
		if !c.ok {
			assert.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got)
	}
}

func TestQuestionTypeValid(t *testing.T) {
	for _, qt := range []QuestionType{QuestionTypeMultipleChoice, QuestionTypeYesNo, QuestionTypeNumber, QuestionTypeText} {
		assert.True(t, qt.Valid(), string(qt))
	}
	assert.False(t, QuestionType("LIKERT").Valid())
	assert.False(t, QuestionType("").Valid())
}
