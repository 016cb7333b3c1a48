// Package notify holds prompts fired by the alarm coordinator until the
// UI collects them, standing in for the platform notification surface.
package notify

import (
	"log/slog"
	"sync"

	"moodtrack/internal/scheduler"
)

type Queue struct {
	mu      sync.Mutex
	pending []scheduler.Prompt
	logger  *slog.Logger
}

func NewQueue(logger *slog.Logger) *Queue {
	return &Queue{logger: logger}
}

// Show appends the prompt; it never blocks the coordinator.
func (q *Queue) Show(p scheduler.Prompt) {
	q.mu.Lock()
	q.pending = append(q.pending, p)
	q.mu.Unlock()
	q.logger.Info("prompt fired", "schedule_id", p.ScheduleID, "snooze", p.Snooze, "fired_at", p.FiredAt)
}

// Pending returns a copy of the queued prompts, newest last.
func (q *Queue) Pending() []scheduler.Prompt {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]scheduler.Prompt, len(q.pending))
	copy(out, q.pending)
	return out
}

// Clear empties the queue, typically when the UI opens answer collection.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}
