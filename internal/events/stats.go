package events

import (
	"time"

	"github.com/dhima/change-monitor/internal/models"
)

// Aggregate summarises a kept set of change events. Oldest and newest are the
// minimum and maximum timestamps and stay nil for an empty set.
func Aggregate(events []models.ChangeEvent) models.Statistics {
	stats := models.Statistics{TotalChanges: len(events)}
	resources := make(map[string]struct{}, len(events))

	var oldest, newest time.Time
	for i, event := range events {
		switch event.DeliveryStatus {
		case models.DeliveryStatusSent:
			stats.SentCount++
		case models.DeliveryStatusFailed:
			stats.FailedCount++
		default:
			stats.PendingCount++
		}

		resources[event.ResourceURL] = struct{}{}
		stats.LinesAddedTotal += event.LinesAdded
		stats.LinesRemovedTotal += event.LinesRemoved

		if i == 0 || event.Timestamp.Before(oldest) {
			oldest = event.Timestamp
		}
		if i == 0 || event.Timestamp.After(newest) {
			newest = event.Timestamp
		}
	}
	stats.DistinctResourceCount = len(resources)

	if len(events) > 0 {
		stats.OldestTimestamp = &oldest
		stats.NewestTimestamp = &newest
	}
	return stats
}
