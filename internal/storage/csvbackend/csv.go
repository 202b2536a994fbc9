package csvbackend

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/reachout/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order. The layout matches the flat export
// consumed by downstream analysis tooling.
var headers = []string{
	"id",
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

// New creates a new CSV-backed storage.Backend.
func New(filePath string) (storage.Backend, error) {
	// Open file for appending, create if it doesn't exist
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}

	// Check if file is empty to write headers
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat csv file: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write csv header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to flush csv header: %w", err)
		}
	}

	return &csvBackend{
		file: f,
	}, nil
}

func (b *csvBackend) Save(ctx context.Context, result *storage.OutreachResult) error {
	record := []string{
		result.ID,
		result.URL,
		result.Username,
		result.JobTitle,
		result.ProviderID,
		string(result.Action),
		string(result.Status),
		result.Error,
		strconv.FormatInt(result.Duration.Milliseconds(), 10),
		result.CreatedAt.Format(time.RFC3339Nano),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Ensure we're at the end of the file for appending (just in case)
	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek csv file: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("failed to write csv record: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv record: %w", err)
	}

	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.OutreachResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Seek to the beginning of the file to read all entries
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek csv file: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	// Read headers
	_, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return []*storage.OutreachResult{}, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var allFiltered []*storage.OutreachResult

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		if len(record) != len(headers) {
			continue // skip malformed rows
		}

		durationMs, _ := strconv.ParseInt(record[8], 10, 64)
		createdAt, _ := time.Parse(time.RFC3339Nano, record[9])

		res := &storage.OutreachResult{
			ID:         record[0],
			URL:        record[1],
			Username:   record[2],
			JobTitle:   record[3],
			ProviderID: record[4],
			Action:     storage.Action(record[5]),
			Status:     storage.Status(record[6]),
			Error:      record[7],
			Duration:   time.Duration(durationMs) * time.Millisecond,
			CreatedAt:  createdAt,
		}

		if !matches(res, filter) {
			continue
		}

		allFiltered = append(allFiltered, res)
	}

	// Order by created_at DESC (reverse the slice)
	for i, j := 0, len(allFiltered)-1; i < j; i, j = i+1, j-1 {
		allFiltered[i], allFiltered[j] = allFiltered[j], allFiltered[i]
	}

	// Apply Offset
	if filter.Offset > 0 {
		if filter.Offset >= len(allFiltered) {
			return []*storage.OutreachResult{}, nil
		}
		allFiltered = allFiltered[filter.Offset:]
	}

	// Apply Limit
	if filter.Limit > 0 && filter.Limit < len(allFiltered) {
		allFiltered = allFiltered[:filter.Limit]
	}

	return allFiltered, nil
}

func matches(res *storage.OutreachResult, filter storage.Filter) bool {
	if filter.Username != "" && res.Username != filter.Username {
		return false
	}
	if filter.Action != "" && res.Action != filter.Action {
		return false
	}
	if filter.Status != "" && res.Status != filter.Status {
		return false
	}
	if filter.Since != nil && res.CreatedAt.Before(*filter.Since) {
		return false
	}
	return true
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
