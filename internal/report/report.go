package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/template"
	"time"

	"github.com/FranksOps/reachout/internal/storage"
)

// Summary contains aggregated counters for an outreach batch. It is derived
// from a result list and never maintained independently of one.
type Summary struct {
	Total           int
	SuccessCount    int
	FailedCount     int
	MessageCount    int
	ConnectionCount int
}

// GenerateSummary folds a slice of outreach results into summary counters.
// It never divides; rate computations (and their zero guards) belong to the
// caller.
func GenerateSummary(results []*storage.OutreachResult) Summary {
	var s Summary

	for _, r := range results {
		s.Total++
		switch r.Status {
		case storage.StatusSuccess:
			s.SuccessCount++
			switch r.Action {
			case storage.ActionMessage:
				s.MessageCount++
			case storage.ActionConnectionRequest:
				s.ConnectionCount++
			}
		case storage.StatusFailed:
			s.FailedCount++
		}
	}

	return s
}

// Add combines two summaries counter-wise, so aggregating a concatenated
// batch equals adding the aggregates of its parts.
func (s Summary) Add(other Summary) Summary {
	return Summary{
		Total:           s.Total + other.Total,
		SuccessCount:    s.SuccessCount + other.SuccessCount,
		FailedCount:     s.FailedCount + other.FailedCount,
		MessageCount:    s.MessageCount + other.MessageCount,
		ConnectionCount: s.ConnectionCount + other.ConnectionCount,
	}
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Outreach Summary
----------------
Total Processed:     {{.Total}}
Succeeded:           {{.SuccessCount}}
Failed:              {{.FailedCount}}
Messages Sent:       {{.MessageCount}}
Connection Requests: {{.ConnectionCount}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("failed to parse summary template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	return nil
}

// resultHeaders defines the column order of the flat result export.
var resultHeaders = []string{
	"url",
	"username",
	"job_title",
	"provider_id",
	"action",
	"status",
	"error",
	"duration_ms",
	"created_at",
}

// WriteResultsCSV writes the per-profile results as a flat table for
// downstream analysis.
func WriteResultsCSV(w io.Writer, results []*storage.OutreachResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(resultHeaders); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.URL,
			r.Username,
			r.JobTitle,
			r.ProviderID,
			string(r.Action),
			string(r.Status),
			r.Error,
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}
