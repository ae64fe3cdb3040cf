package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeline-editor/internal/editor"
	"timeline-editor/internal/platform/config"
	"timeline-editor/internal/platform/db"
	"timeline-editor/internal/platform/logger"
	"timeline-editor/internal/platform/metrics"
	"timeline-editor/internal/processor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	histories, closeStore, err := newHistoryStore(cfg, log)
	if err != nil {
		log.Error("history store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	proc, err := newProcessor(cfg, log)
	if err != nil {
		log.Error("media processor", "error", err)
		os.Exit(1)
	}

	repo := editor.NewInMemoryRepository()
	met := metrics.New()
	svc := editor.NewService(repo, histories, proc, log, met, editor.Options{
		ProcessTimeout: cfg.ProcessTimeout,
		FrameRate:      cfg.DefaultFPS,
	})
	h := editor.NewHandler(svc, log).WithRulerTicks(cfg.RulerTicks)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(repo.ActiveSessionCount()) }).ServeHTTP(w, r)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	h.Routes(r)

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"history_store", cfg.HistoryStore,
		"processor", cfg.Processor,
		"process_timeout", cfg.ProcessTimeout.String(),
		"log_level", cfg.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func newHistoryStore(cfg config.Settings, log *slog.Logger) (editor.HistoryStore, func(), error) {
	switch cfg.HistoryStore {
	case "sqlite":
		database, err := db.Open(context.Background(), db.Options{
			Path:        cfg.SQLitePath,
			BusyTimeout: cfg.SQLiteBusy,
			Logger:      logger.WithComponent(log, "db"),
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("using sqlite history store", "path", cfg.SQLitePath)
		return editor.NewSQLiteHistoryStore(database.Conn()), func() { database.Close() }, nil
	default:
		return editor.NewMemoryHistoryStore(), func() {}, nil
	}
}

func newProcessor(cfg config.Settings, log *slog.Logger) (processor.Processor, error) {
	plog := logger.WithComponent(log, "processor")
	if cfg.Processor != "ffmpeg" {
		return processor.NewStub(plog), nil
	}

	ff, err := processor.NewFFmpeg(processor.FFmpegConfig{
		Path:      cfg.FFmpegPath,
		OutputDir: cfg.OutputDir,
		Verbose:   cfg.LogLevel == "debug",
		Logger:    plog,
	})
	if errors.Is(err, processor.ErrFFmpegNotFound) {
		log.Warn("ffmpeg not found, falling back to stub processor", "error", err)
		return processor.NewStub(plog), nil
	}
	if err != nil {
		return nil, err
	}
	return ff, nil
}
