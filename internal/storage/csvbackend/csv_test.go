package csvbackend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/reachout/internal/storage"
)

func TestCSVBackend_SaveAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	b, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	res := &storage.OutreachResult{
		ID:         "csv1",
		URL:        "https://www.linkedin.com/in/jane-doe",
		Username:   "jane-doe",
		JobTitle:   "Data Scientist",
		ProviderID: "p_88",
		Action:     storage.ActionConnectionRequest,
		Status:     storage.StatusFailed,
		Error:      "invite rejected",
		Duration:   120 * time.Millisecond,
		CreatedAt:  now,
	}

	if err := b.Save(ctx, res); err != nil {
		t.Fatalf("Failed to save result: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{Username: "jane-doe"})
	if err != nil {
		t.Fatalf("Failed to query results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	got := results[0]
	if got.Error != "invite rejected" {
		t.Errorf("Expected error text to round-trip, got %q", got.Error)
	}
	if got.Action != storage.ActionConnectionRequest || got.Status != storage.StatusFailed {
		t.Errorf("Expected Connection Request/Failed, got %s/%s", got.Action, got.Status)
	}
	if got.Duration != 120*time.Millisecond {
		t.Errorf("Expected 120ms duration, got %v", got.Duration)
	}
}

func TestCSVBackend_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	ctx := context.Background()

	b, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	_ = b.Save(ctx, &storage.OutreachResult{ID: "1", URL: "u", Action: storage.ActionNone, Status: storage.StatusFailed, CreatedAt: time.Now()})
	b.Close()

	// Reopen and append; the header must not be duplicated
	b2, err := New(path)
	if err != nil {
		t.Fatalf("Failed to reopen CSV backend: %v", err)
	}
	defer b2.Close()
	_ = b2.Save(ctx, &storage.OutreachResult{ID: "2", URL: "u", Action: storage.ActionNone, Status: storage.StatusFailed, CreatedAt: time.Now()})

	results, err := b2.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results across reopen, got %d", len(results))
	}
}

func TestCSVBackend_QueryEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	b, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	results, err := b.Query(context.Background(), storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query empty backend: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}
