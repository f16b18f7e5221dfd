package models

import "time"

// DeliveryStatus represents the outcome of notifying a target about a change.
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

// Valid reports whether s is one of the known delivery statuses.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusSent, DeliveryStatusFailed:
		return true
	}
	return false
}

// DefaultCheckKind is applied when a change is recorded without a check type.
const DefaultCheckKind = "manual"

// ChangeEvent is one observed difference between two snapshots of a monitored resource.
// It is immutable once appended to the change log.
type ChangeEvent struct {
	Timestamp      time.Time      `json:"timestamp" example:"2024-01-15T09:30:00Z"`
	ResourceURL    string         `json:"url" example:"https://example.com/robots.txt"`
	NotifyTarget   string         `json:"email" example:"ops@example.com"`
	LinesAdded     int            `json:"lines_added" example:"3"`
	LinesRemoved   int            `json:"lines_removed" example:"1"`
	DiffPreview    string         `json:"diff_preview" example:"+Disallow: /admin"`
	DeliveryStatus DeliveryStatus `json:"email_status" example:"sent"`
	CheckKind      string         `json:"check_type" example:"scheduled"`
} // @name ChangeEvent

// RecordChangeRequest carries candidate fields for a new change event.
// Optional numeric fields are pointers so "absent" and "zero" stay distinguishable.
type RecordChangeRequest struct {
	Timestamp      string `json:"timestamp" example:"2024-01-15T09:30:00Z"`
	ResourceURL    string `json:"url" example:"https://example.com/robots.txt"`
	NotifyTarget   string `json:"email" example:"ops@example.com"`
	LinesAdded     *int   `json:"lines_added,omitempty" example:"3"`
	LinesRemoved   *int   `json:"lines_removed,omitempty" example:"1"`
	DiffPreview    string `json:"diff_preview,omitempty" example:"+Disallow: /admin"`
	DeliveryStatus string `json:"email_status,omitempty" example:"pending"`
	CheckKind      string `json:"check_type,omitempty" example:"manual"`
} // @name RecordChangeRequest

// Statistics summarises a set of kept change events.
type Statistics struct {
	TotalChanges          int        `json:"total_changes" example:"3"`
	SentCount             int        `json:"sent_count" example:"2"`
	FailedCount           int        `json:"failed_count" example:"1"`
	PendingCount          int        `json:"pending_count" example:"0"`
	DistinctResourceCount int        `json:"distinct_resource_count" example:"2"`
	OldestTimestamp       *time.Time `json:"oldest_timestamp" example:"2024-01-02T00:00:00Z"`
	NewestTimestamp       *time.Time `json:"newest_timestamp" example:"2024-01-30T00:00:00Z"`
	LinesAddedTotal       int        `json:"lines_added_total" example:"12"`
	LinesRemovedTotal     int        `json:"lines_removed_total" example:"4"`
} // @name Statistics

// QueryResult is the answer to a retention-window query, newest first.
type QueryResult struct {
	Logs       []ChangeEvent `json:"logs"`
	Statistics Statistics    `json:"statistics"`
	Count      int           `json:"count" example:"3"`
	Days       int           `json:"days" example:"30"`
} // @name QueryResult

// PruneRequest is the body of a prune call.
type PruneRequest struct {
	Days *int `json:"days,omitempty" example:"30"`
} // @name PruneRequest

// PruneResult reports how many entries a prune removed and kept.
type PruneResult struct {
	Removed   int `json:"removed" example:"4"`
	Remaining int `json:"remaining" example:"10"`
	Days      int `json:"days" example:"30"`
} // @name PruneResult

// Inventory counts the raw entries currently held by the change log.
type Inventory struct {
	TotalEntries     int `json:"total_entries" example:"12"`
	Records          int `json:"records" example:"11"`
	MalformedEntries int `json:"malformed_entries" example:"1"`
} // @name Inventory
