package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/JonathanStorey/gowhisper/internal/config"
	"github.com/JonathanStorey/gowhisper/internal/models"
	"github.com/JonathanStorey/gowhisper/internal/server"
	"github.com/JonathanStorey/gowhisper/internal/telemetry"
	"github.com/JonathanStorey/gowhisper/pkg/whisper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting transcription server",
		"listen_addr", cfg.ListenAddr,
		"model_variant", cfg.ModelVariant,
		"language", cfg.Language,
		"data_dir", cfg.DataDir,
	)

	recorder := telemetry.NewRecorder(logger)

	factory, err := buildSessionFactory(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to prepare transcription engine", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, logger, factory, recorder)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown timed out, forcing close", "error", err)
			httpServer.Close()
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server terminated with error", "error", err)
		os.Exit(1)
	}

	if snapshot := recorder.Snapshot(); snapshot.TotalRuns > 0 {
		logger.Info("telemetry totals",
			"total_runs", snapshot.TotalRuns,
			"total_frames", snapshot.TotalFrames,
			"total_batches", snapshot.TotalBatches,
			"total_segments", snapshot.TotalSegments,
			"total_failures", snapshot.TotalFailures,
			"total_rejected", snapshot.TotalRejected,
		)
	}

	logger.Info("server stopped")
}

// buildSessionFactory resolves the model once at startup and returns a factory
// producing one session per connection. Without a native build, or when
// explicitly requested, the stub engine serves instead so the full event path
// stays testable.
func buildSessionFactory(ctx context.Context, cfg config.Config, logger *slog.Logger) (server.SessionFactory, error) {
	if cfg.UseStubEngine || !whisper.NativeAvailable() {
		if !cfg.UseStubEngine {
			logger.Warn("native engine not built in, falling back to stub engine")
		} else {
			logger.Info("stub engine requested")
		}
		return func(params whisper.Params, delegate whisper.Delegate) (server.TranscribeSession, error) {
			return whisper.NewSession(whisper.NewStubContext(), params, delegate, logger), nil
		}, nil
	}

	manager, err := models.NewManager(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}
	manifest, err := models.DefaultManifest()
	if err != nil {
		return nil, err
	}
	modelPath, err := manager.EnsureVariant(ctx, cfg.ModelVariant, models.EnsureOptions{
		Manifest: manifest,
		Override: cfg.ModelPath,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("resolved model path", "path", modelPath)

	return func(params whisper.Params, delegate whisper.Delegate) (server.TranscribeSession, error) {
		return whisper.New(modelPath, params, delegate, logger)
	}, nil
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
