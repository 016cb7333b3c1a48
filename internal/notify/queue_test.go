package notify

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodtrack/internal/scheduler"
)

func newTestQueue() *Queue {
	return NewQueue(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestQueueOrderAndClear(t *testing.T) {
	q := newTestQueue()
	now := time.Now()

	q.Show(scheduler.Prompt{ScheduleID: "s1", FiredAt: now})
	q.Show(scheduler.Prompt{FiredAt: now.Add(time.Minute), Snooze: true})

	pending := q.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "s1", pending[0].ScheduleID)
	assert.True(t, pending[1].Snooze)

	q.Clear()
	assert.Empty(t, q.Pending())
}

func TestQueuePendingIsCopy(t *testing.T) {
	q := newTestQueue()
	q.Show(scheduler.Prompt{ScheduleID: "s1"})

	got := q.Pending()
	got[0].ScheduleID = "mutated"

	assert.Equal(t, "s1", q.Pending()[0].ScheduleID)
}
