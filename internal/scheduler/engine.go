package scheduler

import (
	"sort"
	"time"

	"moodtrack/internal/models"
)

// catchupDelay is the grace offset used when an armed wake-up turns out to
// be in the past (clock skew, the process slept through the deadline).
// The prompt fires almost immediately instead of being skipped.
const catchupDelay = 5 * time.Second

// ArmedTimer is the coordinator's record of one live wake-up. TimeOfDay
// remembers what the timer was armed for, so an edited schedule is
// re-armed without guessing from instants.
type ArmedTimer struct {
	At        time.Time `json:"at"`
	TimeOfDay string    `json:"time_of_day"`
}

// ArmRequest asks the coordinator to (re)arm one schedule.
type ArmRequest struct {
	ScheduleID string
	At         time.Time
	TimeOfDay  string
}

// NextTrigger computes the next wall-clock occurrence of timeOfDay after
// now, in now's location. Day advancement re-derives the clock fields via
// time.Date instead of adding 24h, so DST transitions keep the requested
// local time.
func NextTrigger(timeOfDay string, now time.Time) (time.Time, error) {
	hour, minute, err := models.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !candidate.After(now) {
		next := now.AddDate(0, 0, 1)
		candidate = time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, now.Location())
	}
	return candidate, nil
}

// Reconcile diffs the desired schedule set against the armed-timer
// snapshot and returns the actions that close the gap. It is pure and
// idempotent: with no input change, a second run yields no actions.
//
// Rules per enabled schedule:
//   - not armed, or armed for a different time of day: arm at NextTrigger;
//   - armed instant already elapsed: arm at now+catchupDelay (missed
//     prompts fire late rather than silently skip);
//   - otherwise: leave alone.
//
// Armed timers whose schedule is gone or disabled are cancelled. A
// schedule with a malformed time of day is skipped; the store normalizes
// on write, so this only guards hand-edited data.
func Reconcile(now time.Time, schedules []*models.NotificationSchedule, armed map[string]ArmedTimer) (toArm []ArmRequest, toCancel []string) {
	desired := make(map[string]*models.NotificationSchedule, len(schedules))
	for _, sc := range schedules {
		if sc.IsEnabled {
			desired[sc.ID] = sc
		}
	}

	for id := range armed {
		if _, ok := desired[id]; !ok {
			toCancel = append(toCancel, id)
		}
	}
	sort.Strings(toCancel)

	for _, sc := range schedules {
		if !sc.IsEnabled {
			continue
		}
		cur, ok := armed[sc.ID]
		switch {
		case !ok || cur.TimeOfDay != sc.TimeOfDay:
			at, err := NextTrigger(sc.TimeOfDay, now)
			if err != nil {
				continue
			}
			toArm = append(toArm, ArmRequest{ScheduleID: sc.ID, At: at, TimeOfDay: sc.TimeOfDay})
		case !cur.At.After(now):
			toArm = append(toArm, ArmRequest{ScheduleID: sc.ID, At: now.Add(catchupDelay), TimeOfDay: sc.TimeOfDay})
		}
	}
	return toArm, toCancel
}
