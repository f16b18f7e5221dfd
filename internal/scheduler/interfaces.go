package scheduler

import (
	"context"

	"github.com/dhima/change-monitor/internal/models"
)

// Pruner drops change events older than a retention window.
type Pruner interface {
	PruneWindow(ctx context.Context, days int) (models.PruneResult, error)
}
