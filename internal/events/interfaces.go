package events

import (
	"context"

	"github.com/dhima/change-monitor/internal/models"
)

// RetainResult reports the outcome of a filtered rewrite.
type RetainResult struct {
	Kept    int
	Removed int
}

// LineStore is the durable, ordered sequence of change log lines.
// Implementations hold no cache across calls: every read reflects the latest
// durable state.
type LineStore interface {
	// Append adds one line at the end. A failed append adds zero bytes.
	Append(ctx context.Context, line string) error
	// ReadAll returns every line in storage order, oldest first. A store that
	// was never written returns an empty slice, not an error.
	ReadAll(ctx context.Context) ([]string, error)
	// Rewrite atomically replaces the whole sequence. Readers observe either the
	// old or the new content in full.
	Rewrite(ctx context.Context, lines []string) error
	// Retain rewrites the sequence keeping, in order, only lines for which keep
	// returns true.
	Retain(ctx context.Context, keep func(line string) bool) (RetainResult, error)
}

// Publisher announces recorded changes to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
}
