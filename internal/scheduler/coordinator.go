package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"moodtrack/internal/models"
)

// SnoozeTimerID is the reserved wake-up slot for snoozed prompts. A snooze
// is one-shot and never persisted; it does not occupy a schedule's slot.
const SnoozeTimerID = "snooze"

// ScheduleReader is the slice of the store the coordinator needs. The
// coordinator never caches schedule rows across calls; the armed map is
// the only state it owns.
type ScheduleReader interface {
	GetSchedule(ctx context.Context, id string) (*models.NotificationSchedule, error)
	ListSchedules(ctx context.Context) ([]*models.NotificationSchedule, error)
}

// Prompt is the payload handed to notification delivery when a wake-up
// elapses.
type Prompt struct {
	ScheduleID string    `json:"schedule_id,omitempty"`
	FiredAt    time.Time `json:"fired_at"`
	Snooze     bool      `json:"snooze,omitempty"`
}

// Notifier delivers a user-visible prompt. Fire-and-forget; the
// coordinator consumes no result.
type Notifier interface {
	Show(p Prompt)
}

// Coordinator owns the mapping from schedule id to the currently armed
// wake-up and keeps it consistent with the schedule table. All mutations
// of the armed map are serialized through one mutex, so concurrent
// SyncAll, user edits and elapsed callbacks never interleave partial
// updates.
type Coordinator struct {
	mu    sync.Mutex
	armed map[string]ArmedTimer

	store    ScheduleReader
	timers   Host
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	loc      *time.Location
}

func NewCoordinator(store ScheduleReader, timers Host, notifier Notifier, logger *slog.Logger, loc *time.Location) *Coordinator {
	if loc == nil {
		loc = time.Local
	}
	return &Coordinator{
		armed:    make(map[string]ArmedTimer),
		store:    store,
		timers:   timers,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now() },
		loc:      loc,
	}
}

// localNow returns the current time in the coordinator's location, which
// anchors all time-of-day arithmetic.
func (c *Coordinator) localNow() time.Time { return c.now().In(c.loc) }

// SyncAll reloads every schedule, reconciles against the armed map and
// applies cancellations then arm requests. Safe to call repeatedly and
// concurrently; this is the sole recovery path after a restart, so it
// assumes nothing about previously armed timers beyond its own map.
// A single failed arm is logged and skipped, never aborting the batch.
func (c *Coordinator) SyncAll(ctx context.Context) error {
	schedules, err := c.store.ListSchedules(ctx)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	toArm, toCancel := Reconcile(c.localNow(), schedules, c.armed)
	for _, id := range toCancel {
		c.timers.Cancel(id)
		delete(c.armed, id)
	}
	for _, req := range toArm {
		c.armLocked(req)
	}
	return nil
}

// armLocked applies one arm request, degrading to an inexact wake-up when
// the host denies exact arming. Callers hold c.mu.
func (c *Coordinator) armLocked(req ArmRequest) {
	if err := c.timers.ArmExact(req.ScheduleID, req.At); err != nil {
		if !errors.Is(err, ErrExactDenied) {
			c.logger.Error("arm wake-up", "schedule_id", req.ScheduleID, "at", req.At, "err", err)
			return
		}
		c.logger.Warn("exact wake-ups denied, arming inexact", "schedule_id", req.ScheduleID, "at", req.At)
		c.timers.ArmInexact(req.ScheduleID, req.At)
	}
	c.armed[req.ScheduleID] = ArmedTimer{At: req.At, TimeOfDay: req.TimeOfDay}
	c.logger.Info("armed wake-up", "schedule_id", req.ScheduleID, "at", req.At)
}

// ArmOne re-arms a single schedule right after a user edit. It re-reads
// the row: a schedule deleted or disabled since the caller looked is
// cancelled instead.
func (c *Coordinator) ArmOne(ctx context.Context, scheduleID string) {
	sc, err := c.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		c.logger.Error("load schedule for arming", "schedule_id", scheduleID, "err", err)
		return
	}
	if sc == nil || !sc.IsEnabled {
		c.CancelOne(scheduleID)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	at, err := NextTrigger(sc.TimeOfDay, c.localNow())
	if err != nil {
		c.logger.Error("compute next trigger", "schedule_id", scheduleID, "err", err)
		return
	}
	c.armLocked(ArmRequest{ScheduleID: sc.ID, At: at, TimeOfDay: sc.TimeOfDay})
}

// CancelOne drops any armed wake-up for the schedule.
func (c *Coordinator) CancelOne(scheduleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers.Cancel(scheduleID)
	delete(c.armed, scheduleID)
}

// ArmSnooze arms the one-shot snooze slot delay from now.
func (c *Coordinator) ArmSnooze(delay time.Duration) {
	at := c.localNow().Add(delay)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.timers.ArmExact(SnoozeTimerID, at); err != nil {
		if !errors.Is(err, ErrExactDenied) {
			c.logger.Error("arm snooze", "at", at, "err", err)
			return
		}
		c.timers.ArmInexact(SnoozeTimerID, at)
	}
	c.logger.Info("armed snooze", "at", at)
}

// HandleElapsed is the host's elapsed callback. The schedule row is
// re-read at fire time: a row deleted or disabled since arming makes the
// fire a no-op, closing the delete-vs-fire race. A live schedule gets its
// prompt delivered and is immediately re-armed for the next day, which is
// how a one-shot host primitive becomes a daily recurrence.
func (c *Coordinator) HandleElapsed(id string) {
	firedAt := c.localNow()
	if id == SnoozeTimerID {
		c.notifier.Show(Prompt{FiredAt: firedAt, Snooze: true})
		return
	}

	c.mu.Lock()
	delete(c.armed, id) // one-shot wake-up is spent
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sc, err := c.store.GetSchedule(ctx, id)
	if err != nil {
		c.logger.Error("load schedule at fire time", "schedule_id", id, "err", err)
		return
	}
	if sc == nil || !sc.IsEnabled {
		c.logger.Info("wake-up for removed or disabled schedule, dropping", "schedule_id", id)
		return
	}

	c.notifier.Show(Prompt{ScheduleID: sc.ID, FiredAt: firedAt})

	c.mu.Lock()
	defer c.mu.Unlock()
	at, err := NextTrigger(sc.TimeOfDay, c.localNow())
	if err != nil {
		c.logger.Error("compute next trigger", "schedule_id", id, "err", err)
		return
	}
	c.armLocked(ArmRequest{ScheduleID: sc.ID, At: at, TimeOfDay: sc.TimeOfDay})
}

// ArmedTimers returns a copy of the armed map for status reporting.
func (c *Coordinator) ArmedTimers() map[string]ArmedTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]ArmedTimer, len(c.armed))
	for id, at := range c.armed {
		out[id] = at
	}
	return out
}

// RunPeriodicSync re-reconciles on an interval until ctx is cancelled.
// This self-heals drift from missed boot events or host timer eviction.
func (c *Coordinator) RunPeriodicSync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.SyncAll(ctx); err != nil {
				c.logger.Error("periodic sync", "err", err)
			}
		}
	}
}
