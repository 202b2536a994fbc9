package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FranksOps/reachout/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS outreach_results (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	username TEXT,
	job_title TEXT,
	provider_id TEXT,
	action TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT,
	duration_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, result *storage.OutreachResult) error {
	query := `
	INSERT INTO outreach_results (
		id, url, username, job_title, provider_id, action, status, error, duration_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := b.db.ExecContext(ctx, query,
		result.ID,
		result.URL,
		result.Username,
		result.JobTitle,
		result.ProviderID,
		string(result.Action),
		string(result.Status),
		result.Error,
		result.Duration.Milliseconds(),
		result.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.OutreachResult, error) {
	query := `SELECT id, url, username, job_title, provider_id, action, status, error, duration_ms, created_at FROM outreach_results WHERE 1=1`
	args := []any{}

	if filter.Username != "" {
		query += ` AND username = ?`
		args = append(args, filter.Username)
	}
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, string(filter.Action))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []*storage.OutreachResult
	for rows.Next() {
		var (
			res        storage.OutreachResult
			action     string
			status     string
			durationMs int64
			createdAt  time.Time
		)
		if err := rows.Scan(
			&res.ID,
			&res.URL,
			&res.Username,
			&res.JobTitle,
			&res.ProviderID,
			&action,
			&status,
			&res.Error,
			&durationMs,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		res.Action = storage.Action(action)
		res.Status = storage.Status(status)
		res.Duration = time.Duration(durationMs) * time.Millisecond
		res.CreatedAt = createdAt
		results = append(results, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
