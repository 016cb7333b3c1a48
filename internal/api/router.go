package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"moodtrack/internal/middleware"
	"moodtrack/internal/models"
	"moodtrack/internal/scheduler"
	"moodtrack/internal/services"
)

// Alarm is the coordinator surface the API exposes to the UI.
type Alarm interface {
	SyncAll(ctx context.Context) error
	ArmSnooze(delay time.Duration)
	ArmedTimers() map[string]scheduler.ArmedTimer
}

// Prompts is the pending-notification queue the UI polls.
type Prompts interface {
	Pending() []scheduler.Prompt
	Clear()
}

type Router struct {
	questions   *services.QuestionService
	answers     *services.AnswerService
	schedules   *services.ScheduleService
	auth        *services.AuthService
	alarm       Alarm
	prompts     Prompts
	loc         *time.Location
	snoozeDelay time.Duration
}

func NewRouter(
	questions *services.QuestionService,
	answers *services.AnswerService,
	schedules *services.ScheduleService,
	auth *services.AuthService,
	alarm Alarm,
	prompts Prompts,
	loc *time.Location,
	snoozeDelay time.Duration,
) *Router {
	if loc == nil {
		loc = time.Local
	}
	return &Router{
		questions:   questions,
		answers:     answers,
		schedules:   schedules,
		auth:        auth,
		alarm:       alarm,
		prompts:     prompts,
		loc:         loc,
		snoozeDelay: snoozeDelay,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST

	mux.Handle("/api/questions", rt.authed(rt.handleQuestions))          // GET, POST
	mux.Handle("/api/questions/", rt.authed(rt.handleQuestionScoped))    // GET/PUT/DELETE {id}, POST {id}/hidden, GET {id}/answers
	mux.Handle("/api/answers", rt.authed(rt.handleAnswers))              // GET, POST
	mux.Handle("/api/answers/latest", rt.authed(rt.handleLatestAnswers)) // GET
	mux.Handle("/api/answers/", rt.authed(rt.handleAnswerScoped))        // GET/DELETE {id}
	mux.Handle("/api/schedules", rt.authed(rt.handleSchedules))          // GET, POST
	mux.Handle("/api/schedules/", rt.authed(rt.handleScheduleScoped))    // GET/PUT/DELETE {id}, POST {id}/enabled
	mux.Handle("/api/sync", rt.authed(rt.handleSync))                    // POST
	mux.Handle("/api/sync/status", rt.authed(rt.handleSyncStatus))       // GET
	mux.Handle("/api/snooze", rt.authed(rt.handleSnooze))                // POST
	mux.Handle("/api/prompts", rt.authed(rt.handlePrompts))              // GET, DELETE
	mux.Handle("/api/export", rt.authed(rt.handleExport))                // GET
}

func (rt *Router) authed(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(h)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch services.CodeOf(err) {
	case services.ErrorInvalid:
		status = http.StatusBadRequest
	case services.ErrorNotFound:
		status = http.StatusNotFound
	case services.ErrorConflict:
		status = http.StatusConflict
	case services.ErrorUnauthorized:
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// POST /api/auth/register | POST /api/auth/login
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	rt.handleCredentials(w, r, rt.auth.Register)
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	rt.handleCredentials(w, r, rt.auth.Login)
}

func (rt *Router) handleCredentials(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, string) (*services.AuthResult, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := fn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": res.Token, "user_id": res.UserID})
}

type questionRequest struct {
	Text    string              `json:"text"`
	Type    models.QuestionType `json:"type"`
	Options []string            `json:"options"`
}

// GET/POST /api/questions
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var (
			list []*models.Question
			err  error
		)
		if r.URL.Query().Get("active") == "1" {
			list, err = rt.questions.ListActive(r.Context())
		} else {
			list, err = rt.questions.ListAll(r.Context())
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req questionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q, err := rt.questions.Create(r.Context(), req.Text, req.Type, req.Options)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/questions/{id}[, /hidden, /answers]
func (rt *Router) handleQuestionScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/questions/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 2 && parts[1] == "hidden" {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Hidden bool `json:"hidden"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := rt.questions.SetHidden(r.Context(), id, req.Hidden); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	if len(parts) == 2 && parts[1] == "answers" {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}
		list, err := rt.answers.ListForQuestion(r.Context(), id, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		q, err := rt.questions.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	case http.MethodPut:
		var req questionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q, err := rt.questions.Update(r.Context(), id, req.Text, req.Type, req.Options)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	case http.MethodDelete:
		if err := rt.questions.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET/POST /api/answers
func (rt *Router) handleAnswers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := rt.answers.ListAll(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req struct {
			QuestionID      string `json:"question_id"`
			AnswerText      string `json:"answer_text"`
			AdditionalNotes string `json:"additional_notes"`
			WasSnooze       bool   `json:"was_snooze"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a, err := rt.answers.Record(r.Context(), req.QuestionID, req.AnswerText, req.AdditionalNotes, req.WasSnooze)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /api/answers/latest
func (rt *Router) handleLatestAnswers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	list, err := rt.answers.LatestPerQuestion(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET/DELETE /api/answers/{id}
func (rt *Router) handleAnswerScoped(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/answers/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		a, err := rt.answers.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case http.MethodDelete:
		if err := rt.answers.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type scheduleRequest struct {
	TimeOfDay string `json:"time_of_day"`
	IsEnabled *bool  `json:"is_enabled"`
}

// GET/POST /api/schedules
func (rt *Router) handleSchedules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := rt.schedules.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		enabled := true
		if req.IsEnabled != nil {
			enabled = *req.IsEnabled
		}
		sc, err := rt.schedules.Create(r.Context(), req.TimeOfDay, enabled)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sc)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/schedules/{id}[, /enabled]
func (rt *Router) handleScheduleScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/schedules/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 2 && parts[1] == "enabled" {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sc, err := rt.schedules.SetEnabled(r.Context(), id, req.Enabled)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
		return
	}

	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		sc, err := rt.schedules.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	case http.MethodPut:
		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		enabled := true
		if req.IsEnabled != nil {
			enabled = *req.IsEnabled
		}
		sc, err := rt.schedules.Update(r.Context(), id, req.TimeOfDay, enabled)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	case http.MethodDelete:
		if err := rt.schedules.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/sync
func (rt *Router) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := rt.alarm.SyncAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GET /api/sync/status
func (rt *Router) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"armed": rt.alarm.ArmedTimers()})
}

// POST /api/snooze
func (rt *Router) handleSnooze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		DelayMinutes int `json:"delay_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	delay := rt.snoozeDelay
	if req.DelayMinutes > 0 {
		delay = time.Duration(req.DelayMinutes) * time.Minute
	}
	rt.alarm.ArmSnooze(delay)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "delay": delay.String()})
}

// GET/DELETE /api/prompts
func (rt *Router) handlePrompts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, rt.prompts.Pending())
	case http.MethodDelete:
		rt.prompts.Clear()
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /api/export — CSV of the full answer history.
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	answers, err := rt.answers.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	questions, err := rt.questions.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := services.ExportCSV(answers, questions, rt.loc)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="moodtrack_export.csv"`)
	_, _ = w.Write(data)
}
