package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dhima/change-monitor/internal/models"
	"github.com/dhima/change-monitor/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePruner struct {
	mu     sync.Mutex
	days   []int
	result models.PruneResult
	err    error
}

func (p *fakePruner) PruneWindow(_ context.Context, days int) (models.PruneResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.days = append(p.days, days)
	return p.result, p.err
}

func (p *fakePruner) calls() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.days...)
}

func TestNewEngine_OptionsInvalidReturnsError(t *testing.T) {
	cases := []struct {
		name string
		opts Options
	}{
		{name: "zero days", opts: Options{Schedule: "@daily", RetentionDays: 0}},
		{name: "bad cron", opts: Options{Schedule: "every tuesday", RetentionDays: 30}},
		{name: "bad timezone", opts: Options{Schedule: "@daily", Timezone: "Mars/Olympus", RetentionDays: 30}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := NewEngine(&fakePruner{}, tc.opts, zap.NewNop())
			assert.Error(t, err)
			assert.Nil(t, engine)
		})
	}
}

func TestRunOnce_PruneSucceedsUsesRetentionDays(t *testing.T) {
	// Arrange
	pruner := &fakePruner{result: models.PruneResult{Removed: 3, Remaining: 7, Days: 14}}
	engine, err := NewEngine(pruner, Options{Schedule: "@daily", RetentionDays: 14}, zap.NewNop())
	require.NoError(t, err)

	// Act
	result, err := engine.RunOnce(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{14}, pruner.calls())
	assert.Equal(t, 3, result.Removed)
}

func TestRunOnce_PruneFailsReturnsError(t *testing.T) {
	// Arrange
	pruner := &fakePruner{err: errors.New("disk full")}
	engine, err := NewEngine(pruner, Options{Schedule: "@daily", RetentionDays: 30}, nil)
	require.NoError(t, err)

	// Act
	_, err = engine.RunOnce(context.Background())

	// Assert
	assert.EqualError(t, err, "disk full")
}

func TestNextRun_DailyInUTCNextMidnight(t *testing.T) {
	// Arrange
	now := time.Date(2024, 1, 30, 15, 4, 0, 0, time.UTC)
	engine, err := NewEngineWithClock(&fakePruner{}, Options{Schedule: "@daily", RetentionDays: 30}, zap.NewNop(), clock.NewFixed(now))
	require.NoError(t, err)

	// Act
	next := engine.NextRun()

	// Assert
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), next)
}

func TestNextRun_TimezoneSetEvaluatesInZone(t *testing.T) {
	from := time.Date(2025, 1, 2, 7, 0, 0, 0, time.UTC) // 02:00 in New York
	next, err := NextRun("0 3 * * *", "America/New_York", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC), next)
}

func TestNextRun_InvalidCronReturnsError(t *testing.T) {
	_, err := NextRun("invalid", "", time.Now())
	assert.Error(t, err)
}

func TestRun_ScheduleFiresPrunesUntilCancelled(t *testing.T) {
	// Arrange
	pruner := &fakePruner{}
	engine, err := NewEngine(pruner, Options{Schedule: "@every 1s", RetentionDays: 7}, zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- engine.Run(ctx) }()
	require.Eventually(t, func() bool { return len(pruner.calls()) > 0 }, 3*time.Second, 20*time.Millisecond)
	cancel()

	// Assert
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("engine did not stop after cancellation")
	}
	assert.Equal(t, 7, pruner.calls()[0])
}
