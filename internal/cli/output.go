package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dhima/change-monitor/internal/models"
)

// OutputFormat selects how command results are printed.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func parseFormat(raw string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use text or json)", raw)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeEvent(w io.Writer, format OutputFormat, event *models.ChangeEvent) error {
	if format == FormatJSON {
		return writeJSON(w, event)
	}
	_, err := fmt.Fprintf(w, "recorded %s change for %s (+%d/-%d, %s)\n",
		event.CheckKind, event.ResourceURL, event.LinesAdded, event.LinesRemoved, event.DeliveryStatus)
	return err
}

func writeQuery(w io.Writer, format OutputFormat, result models.QueryResult) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tURL\tEMAIL\t+\t-\tSTATUS\tCHECK")
	for _, e := range result.Logs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.Timestamp.Format(time.RFC3339), e.ResourceURL, e.NotifyTarget,
			e.LinesAdded, e.LinesRemoved, e.DeliveryStatus, e.CheckKind)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := result.Statistics
	_, err := fmt.Fprintf(w, "\n%d changes in the last %d days across %d resources: %d sent, %d failed, %d pending\n",
		s.TotalChanges, result.Days, s.DistinctResourceCount, s.SentCount, s.FailedCount, s.PendingCount)
	if err != nil {
		return err
	}
	if s.OldestTimestamp != nil && s.NewestTimestamp != nil {
		_, err = fmt.Fprintf(w, "oldest %s, newest %s\n",
			s.OldestTimestamp.Format(time.RFC3339), s.NewestTimestamp.Format(time.RFC3339))
	}
	return err
}

func writePrune(w io.Writer, format OutputFormat, result models.PruneResult) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}
	_, err := fmt.Fprintf(w, "removed %d entries older than %d days, %d remaining\n",
		result.Removed, result.Days, result.Remaining)
	return err
}

func writeInventory(w io.Writer, format OutputFormat, inv models.Inventory) error {
	if format == FormatJSON {
		return writeJSON(w, inv)
	}
	_, err := fmt.Fprintf(w, "%d entries: %d records, %d malformed\n",
		inv.TotalEntries, inv.Records, inv.MalformedEntries)
	return err
}
