package services

import (
	"context"
	"fmt"
	"sort"

	"moodtrack/internal/models"
)

// stubStore is a minimal in-memory double for the service store
// interfaces. Ordering mirrors the real store: questions oldest first,
// answers newest first with id as the tiebreaker.
type stubStore struct {
	questions []*models.Question
	answers   []*models.Answer
	schedules []*models.NotificationSchedule
	users     []*models.User

	err error // injected failure for every call when set
}

func (s *stubStore) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, q := range s.questions {
		if q.ID == id {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*models.Question, 0, len(s.questions))
	for _, q := range s.questions {
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *stubStore) ListActiveQuestions(ctx context.Context) ([]*models.Question, error) {
	all, err := s.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, q := range all {
		if !q.IsHidden {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubStore) InsertQuestion(ctx context.Context, q *models.Question) error {
	if s.err != nil {
		return s.err
	}
	cp := *q
	s.questions = append(s.questions, &cp)
	return nil
}

func (s *stubStore) UpdateQuestion(ctx context.Context, q *models.Question) error {
	if s.err != nil {
		return s.err
	}
	for i, old := range s.questions {
		if old.ID == q.ID {
			cp := *q
			s.questions[i] = &cp
			return nil
		}
	}
	return nil
}

func (s *stubStore) SetQuestionHidden(ctx context.Context, id string, hidden bool) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, q := range s.questions {
		if q.ID == id {
			q.IsHidden = hidden
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) DeleteQuestion(ctx context.Context, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for i, q := range s.questions {
		if q.ID == id {
			s.questions = append(s.questions[:i], s.questions[i+1:]...)
			kept := s.answers[:0]
			for _, a := range s.answers {
				if a.QuestionID != id {
					kept = append(kept, a)
				}
			}
			s.answers = kept
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) CountActiveQuestions(ctx context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n := 0
	for _, q := range s.questions {
		if !q.IsHidden {
			n++
		}
	}
	return n, nil
}

func (s *stubStore) CountQuestions(ctx context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.questions), nil
}

func (s *stubStore) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, a := range s.answers {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) InsertAnswer(ctx context.Context, a *models.Answer) error {
	if s.err != nil {
		return s.err
	}
	cp := *a
	s.answers = append(s.answers, &cp)
	return nil
}

func (s *stubStore) DeleteAnswer(ctx context.Context, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for i, a := range s.answers {
		if a.ID == id {
			s.answers = append(s.answers[:i], s.answers[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newestFirst(in []*models.Answer) []*models.Answer {
	out := make([]*models.Answer, 0, len(in))
	for _, a := range in {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *stubStore) ListAnswers(ctx context.Context) ([]*models.Answer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return newestFirst(s.answers), nil
}

func (s *stubStore) ListAnswersForQuestion(ctx context.Context, questionID string, limit int) ([]*models.Answer, error) {
	if s.err != nil {
		return nil, s.err
	}
	var filtered []*models.Answer
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			filtered = append(filtered, a)
		}
	}
	out := newestFirst(filtered)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubStore) LatestAnswerPerQuestion(ctx context.Context) ([]*models.Answer, error) {
	if s.err != nil {
		return nil, s.err
	}
	latest := make(map[string]*models.Answer)
	for _, a := range newestFirst(s.answers) {
		if _, ok := latest[a.QuestionID]; !ok {
			latest[a.QuestionID] = a
		}
	}
	out := make([]*models.Answer, 0, len(latest))
	for _, a := range latest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (s *stubStore) CountAnswersForQuestion(ctx context.Context, questionID string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n := 0
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			n++
		}
	}
	return n, nil
}

func (s *stubStore) GetSchedule(ctx context.Context, id string) (*models.NotificationSchedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, sc := range s.schedules {
		if sc.ID == id {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ListSchedules(ctx context.Context) ([]*models.NotificationSchedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*models.NotificationSchedule, 0, len(s.schedules))
	for _, sc := range s.schedules {
		cp := *sc
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubStore) ListEnabledSchedules(ctx context.Context) ([]*models.NotificationSchedule, error) {
	all, err := s.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, sc := range all {
		if sc.IsEnabled {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *stubStore) InsertSchedule(ctx context.Context, sc *models.NotificationSchedule) error {
	if s.err != nil {
		return s.err
	}
	cp := *sc
	s.schedules = append(s.schedules, &cp)
	return nil
}

func (s *stubStore) UpdateSchedule(ctx context.Context, sc *models.NotificationSchedule) error {
	if s.err != nil {
		return s.err
	}
	for i, old := range s.schedules {
		if old.ID == sc.ID {
			cp := *sc
			s.schedules[i] = &cp
			return nil
		}
	}
	return nil
}

func (s *stubStore) DeleteSchedule(ctx context.Context, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for i, sc := range s.schedules {
		if sc.ID == id {
			s.schedules = append(s.schedules[:i], s.schedules[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) CountSchedules(ctx context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.schedules), nil
}

func (s *stubStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) AddUser(ctx context.Context, u *models.User) error {
	if s.err != nil {
		return s.err
	}
	cp := *u
	s.users = append(s.users, &cp)
	return nil
}

func (s *stubStore) CountUsers(ctx context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.users), nil
}

// seqIDs returns an id generator producing q1, q2, ... for deterministic
// assertions.
func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

var (
	_ QuestionStore = (*stubStore)(nil)
	_ AnswerStore   = (*stubStore)(nil)
	_ ScheduleStore = (*stubStore)(nil)
	_ AuthStore     = (*stubStore)(nil)
	_ SeedStore     = (*stubStore)(nil)
)
