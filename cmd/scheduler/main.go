package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhima/change-monitor/internal/events"
	"github.com/dhima/change-monitor/internal/logging"
	"github.com/dhima/change-monitor/internal/scheduler"
	"github.com/dhima/change-monitor/internal/storage"
	"github.com/dhima/change-monitor/pkg/config"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()

	logger, err := logging.NewLoggerWithOptions(logging.Options{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
		Component:   "scheduler",
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logging.Flush(logger) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := storage.Open(openCtx, cfg.StoreBackend, cfg.LogPath, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatal("failed to open change log store",
			zap.String("backend", cfg.StoreBackend),
			zap.Error(err),
		)
	}
	defer func() { _ = store.Close() }()

	service := events.NewService(store.Store, nil, logger.Zap().Named("changes"))
	engine, err := scheduler.NewEngine(service, scheduler.Options{
		Schedule:      cfg.PruneSchedule,
		Timezone:      cfg.PruneTimezone,
		RetentionDays: cfg.RetentionDays,
	}, logger.Zap().Named("scheduler"))
	if err != nil {
		logger.Fatal("invalid retention schedule",
			zap.String("schedule", cfg.PruneSchedule),
			zap.Int("retention_days", cfg.RetentionDays),
			zap.Error(err),
		)
	}

	if err := engine.Run(ctx); err != nil {
		logger.Error("retention scheduler stopped", zap.Error(err))
	}
}
