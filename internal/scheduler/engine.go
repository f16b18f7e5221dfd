package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dhima/change-monitor/internal/models"
	"github.com/dhima/change-monitor/pkg/clock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Options configures the retention engine.
type Options struct {
	// Schedule is a cron expression or descriptor, e.g. "@daily" or "0 3 * * *".
	Schedule string
	// Timezone the schedule is evaluated in; empty means UTC.
	Timezone      string
	RetentionDays int
}

// Engine prunes the change log on a cron schedule.
type Engine struct {
	pruner   Pruner
	schedule string
	location *time.Location
	days     int
	logger   *zap.Logger
	clock    clock.Clock
}

// NewEngine validates opts and builds an engine.
func NewEngine(pruner Pruner, opts Options, logger *zap.Logger) (*Engine, error) {
	return NewEngineWithClock(pruner, opts, logger, clock.RealClock{})
}

// NewEngineWithClock builds an engine with an explicit time source.
func NewEngineWithClock(pruner Pruner, opts Options, logger *zap.Logger, c clock.Clock) (*Engine, error) {
	if opts.RetentionDays < 1 {
		return nil, fmt.Errorf("retention days must be positive, got %d", opts.RetentionDays)
	}
	if _, err := ParseSchedule(opts.Schedule); err != nil {
		return nil, err
	}
	loc, err := resolveTimezone(opts.Timezone)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		pruner:   pruner,
		schedule: opts.Schedule,
		location: loc,
		days:     opts.RetentionDays,
		logger:   logger,
		clock:    clock.OrReal(c),
	}, nil
}

// RunOnce performs a single prune with the configured retention window.
func (e *Engine) RunOnce(ctx context.Context) (models.PruneResult, error) {
	start := e.clock.Now()
	result, err := e.pruner.PruneWindow(ctx, e.days)
	if err != nil {
		e.logger.Error("scheduled prune failed",
			zap.Int("days", e.days),
			zap.Error(err))
		return models.PruneResult{}, err
	}

	e.logger.Info("scheduled prune completed",
		zap.Int("days", e.days),
		zap.Int("removed", result.Removed),
		zap.Int("remaining", result.Remaining),
		zap.Duration("duration", e.clock.Now().Sub(start)))
	return result, nil
}

// NextRun reports when the next scheduled prune will happen.
func (e *Engine) NextRun() time.Time {
	next, err := NextRun(e.schedule, e.location.String(), e.clock.Now())
	if err != nil {
		return time.Time{}
	}
	return next
}

// Run starts the cron loop and blocks until ctx is cancelled. A prune still in
// progress when the next activation fires is not overlapped.
func (e *Engine) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(e.location),
		cron.WithChain(
			cron.Recover(cronLogger{e.logger}),
			cron.SkipIfStillRunning(cronLogger{e.logger}),
		),
	)
	if _, err := c.AddFunc(e.schedule, func() {
		_, _ = e.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to register prune job: %w", err)
	}

	e.logger.Info("retention scheduler started",
		zap.String("schedule", e.schedule),
		zap.String("timezone", e.location.String()),
		zap.Int("days", e.days),
		zap.Time("next_run", e.NextRun()))

	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	e.logger.Info("retention scheduler stopped")
	return nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
