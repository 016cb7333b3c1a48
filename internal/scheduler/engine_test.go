package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodtrack/internal/models"
)

func TestNextTrigger_TodayWhenStillAhead(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	got, err := NextTrigger("09:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), got)
}

func TestNextTrigger_TomorrowWhenPassed(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	got, err := NextTrigger("09:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), got)
}

func TestNextTrigger_ExactBoundaryRollsOver(t *testing.T) {
	// now == candidate must not arm a wake-up for this very instant.
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	got, err := NextTrigger("09:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), got)
}

func TestNextTrigger_AlwaysAheadWithin24h(t *testing.T) {
	nows := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 15, 12, 34, 56, 789, time.UTC),
		time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	for _, now := range nows {
		for _, tod := range []string{"00:00", "09:00", "13:30", "23:59"} {
			got, err := NextTrigger(tod, now)
			require.NoError(t, err)
			assert.True(t, got.After(now), "trigger %v not after now %v", got, now)
			assert.LessOrEqual(t, got.Sub(now), 24*time.Hour)
		}
	}
}

func TestNextTrigger_KeepsLocalTimeAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 2026-03-08 is the spring-forward day in New York; arming from the
	// evening before must still land on 09:00 local, not 08:00 or 10:00.
	now := time.Date(2026, 3, 7, 22, 0, 0, 0, loc)
	got, err := NextTrigger("09:00", now)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 0, got.Minute())
	assert.Equal(t, 8, got.Day())
}

func TestNextTrigger_Malformed(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	_, err := NextTrigger("25:00", now)
	assert.Error(t, err)
	_, err = NextTrigger("breakfast", now)
	assert.Error(t, err)
}

func sched(id, tod string, enabled bool) *models.NotificationSchedule {
	return &models.NotificationSchedule{ID: id, TimeOfDay: tod, IsEnabled: enabled}
}

func TestReconcile_ArmsEnabledOnly(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	schedules := []*models.NotificationSchedule{
		sched("a", "09:00", true),
		sched("b", "13:00", false),
		sched("c", "07:00", true),
	}
	toArm, toCancel := Reconcile(now, schedules, nil)
	require.Len(t, toArm, 2)
	assert.Empty(t, toCancel)
	assert.Equal(t, "a", toArm[0].ScheduleID)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), toArm[0].At)
	assert.Equal(t, "c", toArm[1].ScheduleID)
	assert.Equal(t, time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC), toArm[1].At)
}

func TestReconcile_Idempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	schedules := []*models.NotificationSchedule{
		sched("a", "09:00", true),
		sched("b", "13:00", true),
	}
	toArm, toCancel := Reconcile(now, schedules, nil)
	require.Len(t, toArm, 2)
	require.Empty(t, toCancel)

	armed := make(map[string]ArmedTimer)
	for _, req := range toArm {
		armed[req.ScheduleID] = ArmedTimer{At: req.At, TimeOfDay: req.TimeOfDay}
	}
	again, cancels := Reconcile(now, schedules, armed)
	assert.Empty(t, again)
	assert.Empty(t, cancels)
}

func TestReconcile_IdempotentAfterCatchup(t *testing.T) {
	// A catch-up arm lands at an instant NextTrigger would never produce;
	// a later reconcile must still leave it alone.
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	schedules := []*models.NotificationSchedule{sched("a", "09:00", true)}
	armed := map[string]ArmedTimer{
		"a": {At: now.Add(catchupDelay), TimeOfDay: "09:00"},
	}
	toArm, toCancel := Reconcile(now, schedules, armed)
	assert.Empty(t, toArm)
	assert.Empty(t, toCancel)
}

func TestReconcile_RearmsOnTimeOfDayChange(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	schedules := []*models.NotificationSchedule{sched("a", "10:00", true)}
	armed := map[string]ArmedTimer{
		"a": {At: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), TimeOfDay: "09:00"},
	}
	toArm, toCancel := Reconcile(now, schedules, armed)
	require.Len(t, toArm, 1)
	assert.Empty(t, toCancel)
	assert.Equal(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), toArm[0].At)
	assert.Equal(t, "10:00", toArm[0].TimeOfDay)
}

func TestReconcile_CatchupForElapsedTimer(t *testing.T) {
	// The process slept past the armed instant; fire shortly after now
	// instead of skipping the day.
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	schedules := []*models.NotificationSchedule{sched("a", "09:00", true)}
	armed := map[string]ArmedTimer{
		"a": {At: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), TimeOfDay: "09:00"},
	}
	toArm, toCancel := Reconcile(now, schedules, armed)
	require.Len(t, toArm, 1)
	assert.Empty(t, toCancel)
	assert.Equal(t, now.Add(catchupDelay), toArm[0].At)
}

func TestReconcile_CancelsRemovedAndDisabled(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	schedules := []*models.NotificationSchedule{
		sched("b", "13:00", false),
	}
	armed := map[string]ArmedTimer{
		"a": {At: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), TimeOfDay: "09:00"},
		"b": {At: time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC), TimeOfDay: "13:00"},
	}
	toArm, toCancel := Reconcile(now, schedules, armed)
	assert.Empty(t, toArm)
	assert.Equal(t, []string{"a", "b"}, toCancel)
}

func TestReconcile_SkipsMalformedTimeOfDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	schedules := []*models.NotificationSchedule{
		sched("bad", "garbage", true),
		sched("ok", "09:00", true),
	}
	toArm, toCancel := Reconcile(now, schedules, nil)
	require.Len(t, toArm, 1)
	assert.Empty(t, toCancel)
	assert.Equal(t, "ok", toArm[0].ScheduleID)
}
