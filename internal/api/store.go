package api

import (
	"context"
	"sort"
	"sync"

	"moodtrack/internal/models"
)

// Store is the persistence surface consumed by the services and the alarm
// coordinator. Lookups return (nil, nil) when the row does not exist;
// deletes report whether a row was removed. Single-row writes are atomic;
// deleting a question cascades to its answers.
type Store interface {
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context) ([]*models.Question, error)
	ListActiveQuestions(ctx context.Context) ([]*models.Question, error)
	InsertQuestion(ctx context.Context, q *models.Question) error
	UpdateQuestion(ctx context.Context, q *models.Question) error
	SetQuestionHidden(ctx context.Context, id string, hidden bool) (bool, error)
	DeleteQuestion(ctx context.Context, id string) (bool, error)
	CountQuestions(ctx context.Context) (int, error)
	CountActiveQuestions(ctx context.Context) (int, error)

	GetAnswer(ctx context.Context, id string) (*models.Answer, error)
	InsertAnswer(ctx context.Context, a *models.Answer) error
	DeleteAnswer(ctx context.Context, id string) (bool, error)
	ListAnswers(ctx context.Context) ([]*models.Answer, error)
	ListAnswersForQuestion(ctx context.Context, questionID string, limit int) ([]*models.Answer, error)
	LatestAnswerPerQuestion(ctx context.Context) ([]*models.Answer, error)
	CountAnswersForQuestion(ctx context.Context, questionID string) (int, error)

	GetSchedule(ctx context.Context, id string) (*models.NotificationSchedule, error)
	ListSchedules(ctx context.Context) ([]*models.NotificationSchedule, error)
	ListEnabledSchedules(ctx context.Context) ([]*models.NotificationSchedule, error)
	InsertSchedule(ctx context.Context, sc *models.NotificationSchedule) error
	UpdateSchedule(ctx context.Context, sc *models.NotificationSchedule) error
	DeleteSchedule(ctx context.Context, id string) (bool, error)
	CountSchedules(ctx context.Context) (int, error)

	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	AddUser(ctx context.Context, u *models.User) error
	CountUsers(ctx context.Context) (int, error)
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a map-backed Store with the same ordering and cascade
// semantics as the SQLite store. It backs tests and ephemeral runs.
type MemoryStore struct {
	mu        sync.RWMutex
	questions map[string]*models.Question
	answers   map[string]*models.Answer
	schedules map[string]*models.NotificationSchedule
	users     map[string]*models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questions: map[string]*models.Question{},
		answers:   map[string]*models.Answer{},
		schedules: map[string]*models.NotificationSchedule{},
		users:     map[string]*models.User{},
	}
}

func (m *MemoryStore) GetQuestion(_ context.Context, id string) (*models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if q, ok := m.questions[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) listQuestions(filterHidden bool) []*models.Question {
	out := make([]*models.Question, 0, len(m.questions))
	for _, q := range m.questions {
		if filterHidden && q.IsHidden {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemoryStore) ListQuestions(_ context.Context) ([]*models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listQuestions(false), nil
}

func (m *MemoryStore) ListActiveQuestions(_ context.Context) ([]*models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listQuestions(true), nil
}

func (m *MemoryStore) InsertQuestion(_ context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *q
	m.questions[q.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateQuestion(_ context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[q.ID]; !ok {
		return nil
	}
	cp := *q
	m.questions[q.ID] = &cp
	return nil
}

func (m *MemoryStore) SetQuestionHidden(_ context.Context, id string, hidden bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return false, nil
	}
	q.IsHidden = hidden
	return true, nil
}

func (m *MemoryStore) DeleteQuestion(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return false, nil
	}
	delete(m.questions, id)
	for aid, a := range m.answers {
		if a.QuestionID == id {
			delete(m.answers, aid)
		}
	}
	return true, nil
}

func (m *MemoryStore) CountQuestions(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.questions), nil
}

func (m *MemoryStore) CountActiveQuestions(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, q := range m.questions {
		if !q.IsHidden {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) GetAnswer(_ context.Context, id string) (*models.Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.answers[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) InsertAnswer(_ context.Context, a *models.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.answers[a.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteAnswer(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.answers[id]; !ok {
		return false, nil
	}
	delete(m.answers, id)
	return true, nil
}

func newestFirst(answers []*models.Answer) {
	sort.Slice(answers, func(i, j int) bool {
		if !answers[i].Timestamp.Equal(answers[j].Timestamp) {
			return answers[i].Timestamp.After(answers[j].Timestamp)
		}
		return answers[i].ID > answers[j].ID
	})
}

func (m *MemoryStore) ListAnswers(_ context.Context) ([]*models.Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Answer, 0, len(m.answers))
	for _, a := range m.answers {
		cp := *a
		out = append(out, &cp)
	}
	newestFirst(out)
	return out, nil
}

func (m *MemoryStore) ListAnswersForQuestion(_ context.Context, questionID string, limit int) ([]*models.Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Answer
	for _, a := range m.answers {
		if a.QuestionID == questionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	newestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) LatestAnswerPerQuestion(_ context.Context) ([]*models.Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := map[string]*models.Answer{}
	for _, a := range m.answers {
		cur, ok := latest[a.QuestionID]
		if !ok || a.Timestamp.After(cur.Timestamp) ||
			(a.Timestamp.Equal(cur.Timestamp) && a.ID > cur.ID) {
			latest[a.QuestionID] = a
		}
	}
	out := make([]*models.Answer, 0, len(latest))
	for _, a := range latest {
		cp := *a
		out = append(out, &cp)
	}
	newestFirst(out)
	return out, nil
}

func (m *MemoryStore) CountAnswersForQuestion(_ context.Context, questionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.answers {
		if a.QuestionID == questionID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) GetSchedule(_ context.Context, id string) (*models.NotificationSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sc, ok := m.schedules[id]; ok {
		cp := *sc
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) listSchedules(enabledOnly bool) []*models.NotificationSchedule {
	out := make([]*models.NotificationSchedule, 0, len(m.schedules))
	for _, sc := range m.schedules {
		if enabledOnly && !sc.IsEnabled {
			continue
		}
		cp := *sc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeOfDay != out[j].TimeOfDay {
			return out[i].TimeOfDay < out[j].TimeOfDay
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemoryStore) ListSchedules(_ context.Context) ([]*models.NotificationSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSchedules(false), nil
}

func (m *MemoryStore) ListEnabledSchedules(_ context.Context) ([]*models.NotificationSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSchedules(true), nil
}

func (m *MemoryStore) InsertSchedule(_ context.Context, sc *models.NotificationSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sc
	m.schedules[sc.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateSchedule(_ context.Context, sc *models.NotificationSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[sc.ID]; !ok {
		return nil
	}
	cp := *sc
	m.schedules[sc.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteSchedule(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return false, nil
	}
	delete(m.schedules, id)
	return true, nil
}

func (m *MemoryStore) CountSchedules(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.schedules), nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) AddUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) CountUsers(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}
