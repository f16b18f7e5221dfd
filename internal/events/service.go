package events

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dhima/change-monitor/internal/models"
	"github.com/dhima/change-monitor/pkg/clock"
	"go.uber.org/zap"
)

// Service records change events and answers retention-window queries over the
// change log. It keeps no state between calls: every operation re-reads the store.
type Service struct {
	store     LineStore
	publisher Publisher
	logger    *zap.Logger
	clock     clock.Clock
}

// NewService creates a Service evaluating retention windows against the wall clock.
func NewService(store LineStore, publisher Publisher, logger *zap.Logger) *Service {
	return NewServiceWithClock(store, publisher, logger, clock.RealClock{})
}

// NewServiceWithClock creates a Service with an explicit time source.
// publisher may be nil.
func NewServiceWithClock(store LineStore, publisher Publisher, logger *zap.Logger, c clock.Clock) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		clock:     clock.OrReal(c),
	}
}

// RecordChange validates the candidate fields, applies defaults and appends the
// encoded event. Validation happens before any write, so a rejected call leaves
// the store untouched.
func (s *Service) RecordChange(ctx context.Context, req models.RecordChangeRequest) (*models.ChangeEvent, error) {
	event, err := s.buildEvent(req)
	if err != nil {
		s.logger.Info("rejected change event",
			zap.String("url", req.ResourceURL),
			zap.Error(err))
		return nil, err
	}

	line, err := Encode(*event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode change event: %w", err)
	}

	if err := s.store.Append(ctx, line); err != nil {
		s.logger.Error("failed to append change event",
			zap.String("url", event.ResourceURL),
			zap.Error(err))
		return nil, fmt.Errorf("failed to append change event: %w", err)
	}

	s.logger.Info("change event recorded",
		zap.String("url", event.ResourceURL),
		zap.String("email_status", string(event.DeliveryStatus)),
		zap.String("check_type", event.CheckKind),
		zap.Int("lines_added", event.LinesAdded),
		zap.Int("lines_removed", event.LinesRemoved))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *event); err != nil {
			s.logger.Warn("failed to publish change event",
				zap.String("url", event.ResourceURL),
				zap.Error(err))
		}
	}

	return event, nil
}

func (s *Service) buildEvent(req models.RecordChangeRequest) (*models.ChangeEvent, error) {
	timestamp := strings.TrimSpace(req.Timestamp)
	resource := strings.TrimSpace(req.ResourceURL)
	target := strings.TrimSpace(req.NotifyTarget)

	required := []struct {
		field string
		value string
	}{
		{"timestamp", timestamp},
		{"url", resource},
		{"email", target},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, NewValidationError(r.field, "%s is required", r.field)
		}
	}

	singleLine := []struct {
		field string
		value string
	}{
		{"timestamp", timestamp},
		{"url", resource},
		{"email", target},
		{"check_type", req.CheckKind},
	}
	for _, f := range singleLine {
		if strings.ContainsAny(f.value, "\r\n") {
			return nil, NewValidationError(f.field, "%s must not contain line breaks", f.field)
		}
	}

	ts, err := ParseTimestamp(timestamp)
	if err != nil {
		return nil, NewValidationError("timestamp", "timestamp must be ISO-8601: %v", err)
	}

	added, err := countOrDefault("lines_added", req.LinesAdded)
	if err != nil {
		return nil, err
	}
	removed, err := countOrDefault("lines_removed", req.LinesRemoved)
	if err != nil {
		return nil, err
	}

	status := models.DeliveryStatus(strings.ToLower(strings.TrimSpace(req.DeliveryStatus)))
	if status == "" {
		status = models.DeliveryStatusPending
	}
	if !status.Valid() {
		s.logger.Warn("unknown delivery status, recording as pending",
			zap.String("email_status", req.DeliveryStatus))
		status = models.DeliveryStatusPending
	}

	kind := strings.TrimSpace(req.CheckKind)
	if kind == "" {
		kind = models.DefaultCheckKind
	}

	return &models.ChangeEvent{
		Timestamp:      ts,
		ResourceURL:    resource,
		NotifyTarget:   target,
		LinesAdded:     added,
		LinesRemoved:   removed,
		DiffPreview:    req.DiffPreview,
		DeliveryStatus: status,
		CheckKind:      kind,
	}, nil
}

// countOrDefault treats absent counts as zero and clamps negatives to zero.
func countOrDefault(field string, v *int) (int, error) {
	if v == nil || *v < 0 {
		return 0, nil
	}
	if int64(*v) > maxCount {
		return 0, NewValidationError(field, "%s must not exceed %d", field, int64(maxCount))
	}
	return *v, nil
}

// QueryWindow returns the well-formed events inside the window, newest first,
// together with their statistics. Events sharing a timestamp keep storage order.
func (s *Service) QueryWindow(ctx context.Context, days int) (models.QueryResult, error) {
	if err := validateDays(days); err != nil {
		return models.QueryResult{}, err
	}
	now := s.clock.Now()

	lines, err := s.store.ReadAll(ctx)
	if err != nil {
		s.logger.Error("failed to read change log", zap.Error(err))
		return models.QueryResult{}, fmt.Errorf("failed to read change log: %w", err)
	}

	kept := make([]models.ChangeEvent, 0, len(lines))
	malformed := 0
	for _, entry := range DecodeAll(lines) {
		if entry.Malformed() {
			malformed++
			continue
		}
		if WithinWindow(*entry.Record, now, days) {
			kept = append(kept, *entry.Record)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp.After(kept[j].Timestamp)
	})

	if malformed > 0 {
		s.logger.Debug("skipped malformed change log entries", zap.Int("malformed", malformed))
	}
	s.logger.Info("queried change log",
		zap.Int("days", days),
		zap.Int("count", len(kept)),
		zap.Int("entries", len(lines)))

	return models.QueryResult{
		Logs:       kept,
		Statistics: Aggregate(kept),
		Count:      len(kept),
		Days:       days,
	}, nil
}

// PruneWindow drops every well-formed event older than the window. Malformed
// entries are always kept, in their original order.
func (s *Service) PruneWindow(ctx context.Context, days int) (models.PruneResult, error) {
	if err := validateDays(days); err != nil {
		return models.PruneResult{}, err
	}
	now := s.clock.Now()

	result, err := s.store.Retain(ctx, func(line string) bool {
		entry := Decode(line)
		return entry.Malformed() || WithinWindow(*entry.Record, now, days)
	})
	if err != nil {
		s.logger.Error("failed to prune change log",
			zap.Int("days", days),
			zap.Error(err))
		return models.PruneResult{}, fmt.Errorf("failed to prune change log: %w", err)
	}

	s.logger.Info("pruned change log",
		zap.Int("days", days),
		zap.Time("cutoff", Cutoff(now, days)),
		zap.Int("removed", result.Removed),
		zap.Int("remaining", result.Kept))

	return models.PruneResult{
		Removed:   result.Removed,
		Remaining: result.Kept,
		Days:      days,
	}, nil
}

// Inventory counts the raw entries in the change log.
func (s *Service) Inventory(ctx context.Context) (models.Inventory, error) {
	lines, err := s.store.ReadAll(ctx)
	if err != nil {
		return models.Inventory{}, fmt.Errorf("failed to read change log: %w", err)
	}

	inv := models.Inventory{TotalEntries: len(lines)}
	for _, entry := range DecodeAll(lines) {
		if entry.Malformed() {
			inv.MalformedEntries++
		} else {
			inv.Records++
		}
	}
	return inv, nil
}

func validateDays(days int) error {
	if days < 1 {
		return NewValidationError("days", "days must be a positive integer, got %d", days)
	}
	return nil
}
