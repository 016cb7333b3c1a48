package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"moodtrack/internal/api"
	"moodtrack/internal/models"
)

// SQLiteStore is the durable api.Store. Timestamps persist as epoch
// milliseconds and multiple-choice options as a JSON array. Answer rows
// are removed with their question through the foreign-key cascade, which
// requires the foreign_keys pragma applied here.
type SQLiteStore struct {
	db *sql.DB
}

var _ api.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func toMillis(t time.Time) int64    { return t.UnixMilli() }
func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func encodeOptions(options []string) (sql.NullString, error) {
	if len(options) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(options)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeOptions(ns sql.NullString) ([]string, error) {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return out, nil
}

const questionColumns = "id, text, type, options, is_hidden, created_at, modified_at, version"

func scanQuestion(row interface{ Scan(...any) error }) (*models.Question, error) {
	var (
		q         models.Question
		qtype     string
		options   sql.NullString
		hidden    int64
		createdAt int64
		modified  int64
	)
	if err := row.Scan(&q.ID, &q.Text, &qtype, &options, &hidden, &createdAt, &modified, &q.Version); err != nil {
		return nil, err
	}
	opts, err := decodeOptions(options)
	if err != nil {
		return nil, err
	}
	q.Type = models.QuestionType(qtype)
	q.Options = opts
	q.IsHidden = hidden != 0
	q.CreatedAt = fromMillis(createdAt)
	q.ModifiedAt = fromMillis(modified)
	return &q, nil
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+questionColumns+" FROM questions WHERE id = ?", id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *SQLiteStore) listQuestions(ctx context.Context, query string, args ...any) ([]*models.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	var out []*models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	return s.listQuestions(ctx, "SELECT "+questionColumns+" FROM questions ORDER BY created_at ASC, id ASC")
}

func (s *SQLiteStore) ListActiveQuestions(ctx context.Context) ([]*models.Question, error) {
	return s.listQuestions(ctx, "SELECT "+questionColumns+" FROM questions WHERE is_hidden = 0 ORDER BY created_at ASC, id ASC")
}

func (s *SQLiteStore) InsertQuestion(ctx context.Context, q *models.Question) error {
	options, err := encodeOptions(q.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO questions (id, text, type, options, is_hidden, created_at, modified_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Text, string(q.Type), options, boolToInt(q.IsHidden),
		toMillis(q.CreatedAt), toMillis(q.ModifiedAt), q.Version)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateQuestion(ctx context.Context, q *models.Question) error {
	options, err := encodeOptions(q.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE questions SET text = ?, type = ?, options = ?, is_hidden = ?, modified_at = ?, version = ?
		 WHERE id = ?`,
		q.Text, string(q.Type), options, boolToInt(q.IsHidden),
		toMillis(q.ModifiedAt), q.Version, q.ID)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetQuestionHidden(ctx context.Context, id string, hidden bool) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE questions SET is_hidden = ? WHERE id = ?", boolToInt(hidden), id)
	if err != nil {
		return false, fmt.Errorf("set question hidden: %w", err)
	}
	return oneRowAffected(res)
}

func (s *SQLiteStore) DeleteQuestion(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete question: %w", err)
	}
	return oneRowAffected(res)
}

func (s *SQLiteStore) CountQuestions(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM questions")
}

func (s *SQLiteStore) CountActiveQuestions(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM questions WHERE is_hidden = 0")
}

const answerColumns = "id, question_id, question_version, answer_text, additional_notes, timestamp, was_snooze"

func scanAnswer(row interface{ Scan(...any) error }) (*models.Answer, error) {
	var (
		a      models.Answer
		notes  sql.NullString
		ts     int64
		snooze int64
	)
	if err := row.Scan(&a.ID, &a.QuestionID, &a.QuestionVersion, &a.AnswerText, &notes, &ts, &snooze); err != nil {
		return nil, err
	}
	a.AdditionalNotes = notes.String
	a.Timestamp = fromMillis(ts)
	a.WasSnooze = snooze != 0
	return &a, nil
}

func (s *SQLiteStore) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+answerColumns+" FROM answers WHERE id = ?", id)
	a, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get answer: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) InsertAnswer(ctx context.Context, a *models.Answer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (id, question_id, question_version, answer_text, additional_notes, timestamp, was_snooze)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.QuestionID, a.QuestionVersion, a.AnswerText,
		toNullString(a.AdditionalNotes), toMillis(a.Timestamp), boolToInt(a.WasSnooze))
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAnswer(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM answers WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete answer: %w", err)
	}
	return oneRowAffected(res)
}

func (s *SQLiteStore) listAnswers(ctx context.Context, query string, args ...any) ([]*models.Answer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()
	var out []*models.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListAnswers(ctx context.Context) ([]*models.Answer, error) {
	return s.listAnswers(ctx, "SELECT "+answerColumns+" FROM answers ORDER BY timestamp DESC, id DESC")
}

func (s *SQLiteStore) ListAnswersForQuestion(ctx context.Context, questionID string, limit int) ([]*models.Answer, error) {
	query := "SELECT " + answerColumns + " FROM answers WHERE question_id = ? ORDER BY timestamp DESC, id DESC"
	if limit > 0 {
		return s.listAnswers(ctx, query+" LIMIT ?", questionID, limit)
	}
	return s.listAnswers(ctx, query, questionID)
}

// LatestAnswerPerQuestion picks the newest answer per question; timestamp
// ties resolve to the larger id so the result is deterministic.
func (s *SQLiteStore) LatestAnswerPerQuestion(ctx context.Context) ([]*models.Answer, error) {
	return s.listAnswers(ctx, `
		SELECT `+answerColumns+` FROM (
			SELECT a.*, ROW_NUMBER() OVER (
				PARTITION BY question_id ORDER BY timestamp DESC, id DESC
			) AS rn FROM answers a
		) WHERE rn = 1 ORDER BY timestamp DESC, id DESC`)
}

func (s *SQLiteStore) CountAnswersForQuestion(ctx context.Context, questionID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM answers WHERE question_id = ?", questionID)
}

const scheduleColumns = "id, time_of_day, is_enabled"

func scanSchedule(row interface{ Scan(...any) error }) (*models.NotificationSchedule, error) {
	var (
		sc      models.NotificationSchedule
		enabled int64
	)
	if err := row.Scan(&sc.ID, &sc.TimeOfDay, &enabled); err != nil {
		return nil, err
	}
	sc.IsEnabled = enabled != 0
	return &sc, nil
}

func (s *SQLiteStore) GetSchedule(ctx context.Context, id string) (*models.NotificationSchedule, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+scheduleColumns+" FROM notification_schedules WHERE id = ?", id)
	sc, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return sc, nil
}

func (s *SQLiteStore) listSchedules(ctx context.Context, query string) ([]*models.NotificationSchedule, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	var out []*models.NotificationSchedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListSchedules(ctx context.Context) ([]*models.NotificationSchedule, error) {
	return s.listSchedules(ctx, "SELECT "+scheduleColumns+" FROM notification_schedules ORDER BY time_of_day ASC, id ASC")
}

func (s *SQLiteStore) ListEnabledSchedules(ctx context.Context) ([]*models.NotificationSchedule, error) {
	return s.listSchedules(ctx, "SELECT "+scheduleColumns+" FROM notification_schedules WHERE is_enabled = 1 ORDER BY time_of_day ASC, id ASC")
}

func (s *SQLiteStore) InsertSchedule(ctx context.Context, sc *models.NotificationSchedule) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notification_schedules (id, time_of_day, is_enabled) VALUES (?, ?, ?)",
		sc.ID, sc.TimeOfDay, boolToInt(sc.IsEnabled))
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateSchedule(ctx context.Context, sc *models.NotificationSchedule) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notification_schedules SET time_of_day = ?, is_enabled = ? WHERE id = ?",
		sc.TimeOfDay, boolToInt(sc.IsEnabled), sc.ID)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSchedule(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notification_schedules WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	return oneRowAffected(res)
}

func (s *SQLiteStore) CountSchedules(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM notification_schedules")
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, email, pass_hash, created_at FROM users WHERE email = ?", email)
	var (
		u         models.User
		createdAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PassHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

func (s *SQLiteStore) AddUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)",
		u.ID, u.Email, u.PassHash, toMillis(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM users")
}

func (s *SQLiteStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func oneRowAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
