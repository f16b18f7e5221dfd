package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dhima/change-monitor/internal/models"
)

// Entry pairs a stored line with its decode result. Record is nil when the
// line is malformed; Line always holds the original text verbatim.
type Entry struct {
	Line   string
	Record *models.ChangeEvent
}

// Malformed reports whether the line failed to decode into a change event.
func (e Entry) Malformed() bool {
	return e.Record == nil
}

// maxCount keeps line counts exactly representable as JSON numbers.
const maxCount = 1 << 53

// timestampLayouts are tried in order. Zone-less forms are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp and normalises it to UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", raw)
}

// Encode serializes one change event as a single canonical JSON line
// (without the trailing newline).
func Encode(event models.ChangeEvent) (string, error) {
	if event.Timestamp.IsZero() || event.ResourceURL == "" || event.NotifyTarget == "" {
		return "", fmt.Errorf("%w: timestamp, url and email are required", ErrInvalidRecord)
	}
	if event.LinesAdded < 0 || event.LinesRemoved < 0 || int64(event.LinesAdded) > maxCount || int64(event.LinesRemoved) > maxCount {
		return "", fmt.Errorf("%w: line counts must be between 0 and %d", ErrInvalidRecord, maxCount)
	}
	if !event.DeliveryStatus.Valid() {
		return "", fmt.Errorf("%w: unknown delivery status %q", ErrInvalidRecord, event.DeliveryStatus)
	}

	event.Timestamp = event.Timestamp.UTC()
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal change event: %w", err)
	}
	if bytes.ContainsAny(data, "\r\n") {
		return "", ErrEmbeddedNewline
	}
	return string(data), nil
}

// wireRecord accepts both the canonical snake_case keys and the camelCase
// aliases used by some producers.
type wireRecord struct {
	Timestamp      *string         `json:"timestamp"`
	URL            *string         `json:"url"`
	ResourceURL    *string         `json:"resourceUrl"`
	Email          *string         `json:"email"`
	NotifyTarget   *string         `json:"notifyTarget"`
	LinesAdded     json.RawMessage `json:"lines_added"`
	LinesAddedAlt  json.RawMessage `json:"linesAdded"`
	LinesRemoved   json.RawMessage `json:"lines_removed"`
	LinesRemAlt    json.RawMessage `json:"linesRemoved"`
	DiffPreview    *string         `json:"diff_preview"`
	DiffPreviewAlt *string         `json:"diffPreview"`
	EmailStatus    *string         `json:"email_status"`
	DeliveryStatus *string         `json:"deliveryStatus"`
	CheckType      *string         `json:"check_type"`
	CheckKind      *string         `json:"checkKind"`
}

// Decode parses one stored line. It never fails: anything that is not a
// well-formed change event comes back as a malformed Entry.
func Decode(line string) Entry {
	entry := Entry{Line: line}

	var wire wireRecord
	if err := json.Unmarshal([]byte(line), &wire); err != nil {
		return entry
	}

	timestamp := firstString(wire.Timestamp)
	if timestamp == "" {
		return entry
	}
	ts, err := ParseTimestamp(timestamp)
	if err != nil {
		return entry
	}

	resource := firstString(wire.URL, wire.ResourceURL)
	target := firstString(wire.Email, wire.NotifyTarget)
	if resource == "" || target == "" {
		return entry
	}

	added, ok := decodeCount(firstRaw(wire.LinesAdded, wire.LinesAddedAlt))
	if !ok {
		return entry
	}
	removed, ok := decodeCount(firstRaw(wire.LinesRemoved, wire.LinesRemAlt))
	if !ok {
		return entry
	}

	status := models.DeliveryStatus(firstString(wire.EmailStatus, wire.DeliveryStatus))
	if status == "" {
		status = models.DeliveryStatusPending
	}
	if !status.Valid() {
		return entry
	}

	kind := firstString(wire.CheckType, wire.CheckKind)
	if kind == "" {
		kind = models.DefaultCheckKind
	}

	entry.Record = &models.ChangeEvent{
		Timestamp:      ts,
		ResourceURL:    resource,
		NotifyTarget:   target,
		LinesAdded:     added,
		LinesRemoved:   removed,
		DiffPreview:    firstString(wire.DiffPreview, wire.DiffPreviewAlt),
		DeliveryStatus: status,
		CheckKind:      kind,
	}
	return entry
}

// DecodeAll decodes lines in order.
func DecodeAll(lines []string) []Entry {
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, Decode(line))
	}
	return entries
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func firstRaw(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

// decodeCount accepts absent/null (0), whole JSON numbers and numeric strings.
func decodeCount(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, true
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, true
		}
	} else {
		text = string(raw)
	}

	n, err := strconv.ParseFloat(text, 64)
	if err != nil || n < 0 || n != math.Trunc(n) || n > maxCount {
		return 0, false
	}
	return int(n), true
}
