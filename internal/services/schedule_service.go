package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"moodtrack/internal/models"
)

// ScheduleStore abstracts persistence operations required by ScheduleService.
type ScheduleStore interface {
	GetSchedule(ctx context.Context, id string) (*models.NotificationSchedule, error)
	ListSchedules(ctx context.Context) ([]*models.NotificationSchedule, error)
	ListEnabledSchedules(ctx context.Context) ([]*models.NotificationSchedule, error)
	InsertSchedule(ctx context.Context, sc *models.NotificationSchedule) error
	UpdateSchedule(ctx context.Context, sc *models.NotificationSchedule) error
	DeleteSchedule(ctx context.Context, id string) (bool, error)
}

// AlarmSyncer is the alarm coordinator surface the schedule service pokes
// after a write, so a user edit re-arms with low latency instead of
// waiting for the next periodic sync.
type AlarmSyncer interface {
	SyncAll(ctx context.Context) error
	ArmOne(ctx context.Context, scheduleID string)
	CancelOne(scheduleID string)
}

type ScheduleService struct {
	store  ScheduleStore
	alarms AlarmSyncer // may be nil in tests
	idGen  func() string
}

func NewScheduleService(store ScheduleStore, alarms AlarmSyncer) *ScheduleService {
	return &ScheduleService{store: store, alarms: alarms, idGen: uuid.NewString}
}

func (s *ScheduleService) Create(ctx context.Context, timeOfDay string, enabled bool) (*models.NotificationSchedule, error) {
	normalized, err := models.NormalizeTimeOfDay(timeOfDay)
	if err != nil {
		return nil, NewInvalidError(err.Error())
	}
	sc := &models.NotificationSchedule{ID: s.idGen(), TimeOfDay: normalized, IsEnabled: enabled}
	if err := s.store.InsertSchedule(ctx, sc); err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}
	s.armOrCancel(ctx, sc)
	return sc, nil
}

func (s *ScheduleService) Update(ctx context.Context, id, timeOfDay string, enabled bool) (*models.NotificationSchedule, error) {
	existing, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if existing == nil {
		return nil, NewNotFoundError("schedule not found")
	}
	normalized, err := models.NormalizeTimeOfDay(timeOfDay)
	if err != nil {
		return nil, NewInvalidError(err.Error())
	}
	updated := *existing
	updated.TimeOfDay = normalized
	updated.IsEnabled = enabled
	if err := s.store.UpdateSchedule(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	s.armOrCancel(ctx, &updated)
	return &updated, nil
}

func (s *ScheduleService) SetEnabled(ctx context.Context, id string, enabled bool) (*models.NotificationSchedule, error) {
	existing, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if existing == nil {
		return nil, NewNotFoundError("schedule not found")
	}
	if existing.IsEnabled != enabled {
		updated := *existing
		updated.IsEnabled = enabled
		if err := s.store.UpdateSchedule(ctx, &updated); err != nil {
			return nil, fmt.Errorf("update schedule: %w", err)
		}
		existing = &updated
	}
	s.armOrCancel(ctx, existing)
	return existing, nil
}

// Delete removes the schedule and cancels any armed wake-up for it.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	ok, err := s.store.DeleteSchedule(ctx, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if !ok {
		return NewNotFoundError("schedule not found")
	}
	if s.alarms != nil {
		s.alarms.CancelOne(id)
	}
	return nil
}

func (s *ScheduleService) Get(ctx context.Context, id string) (*models.NotificationSchedule, error) {
	sc, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if sc == nil {
		return nil, NewNotFoundError("schedule not found")
	}
	return sc, nil
}

func (s *ScheduleService) List(ctx context.Context) ([]*models.NotificationSchedule, error) {
	return s.store.ListSchedules(ctx)
}

// RequestSync runs a full reconcile pass on demand.
func (s *ScheduleService) RequestSync(ctx context.Context) error {
	if s.alarms == nil {
		return nil
	}
	return s.alarms.SyncAll(ctx)
}

func (s *ScheduleService) armOrCancel(ctx context.Context, sc *models.NotificationSchedule) {
	if s.alarms == nil {
		return
	}
	if sc.IsEnabled {
		s.alarms.ArmOne(ctx, sc.ID)
	} else {
		s.alarms.CancelOne(sc.ID)
	}
}
