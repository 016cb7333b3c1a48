package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"moodtrack/internal/api"
	"moodtrack/internal/config"
	"moodtrack/internal/db"
	"moodtrack/internal/middleware"
	"moodtrack/internal/notify"
	"moodtrack/internal/scheduler"
	"moodtrack/internal/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := sql.Open("sqlite3", cfg.Database.Path+"?_busy_timeout=5000")
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return err
	}
	store, err := db.NewSQLiteStore(sqlDB)
	if err != nil {
		return err
	}
	if err := services.SeedDefaults(ctx, store); err != nil {
		return err
	}

	loc := cfg.Location()
	queue := notify.NewQueue(logger)

	// The timer host fires back into the coordinator, so wire the
	// callback through a variable that is set just below.
	var coord *scheduler.Coordinator
	timers := scheduler.NewSystemTimers(func(id string) {
		coord.HandleElapsed(id)
	}, cfg.Alarms.AllowExact, cfg.Alarms.InexactSlack)
	defer timers.Close()
	coord = scheduler.NewCoordinator(store, timers, queue, logger, loc)

	authMW := middleware.NewAuth([]byte(cfg.Auth.JWTSecret))

	questionSvc := services.NewQuestionService(store)
	answerSvc := services.NewAnswerService(store)
	scheduleSvc := services.NewScheduleService(store, coord)
	authSvc := services.NewAuthService(store, authMW.SignToken, cfg.Auth.TokenTTL)

	if err := coord.SyncAll(ctx); err != nil {
		logger.Error("initial alarm sync failed", "error", err)
	}
	go coord.RunPeriodicSync(ctx, cfg.Alarms.ResyncInterval)

	mux := http.NewServeMux()
	router := api.NewRouter(questionSvc, answerSvc, scheduleSvc, authSvc, coord, queue, loc, cfg.Alarms.SnoozeDelay)
	router.Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      middleware.CORS(middleware.NoStore(authMW.WithAuth(mux))),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "db", cfg.Database.Path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
