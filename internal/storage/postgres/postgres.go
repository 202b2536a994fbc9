package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FranksOps/reachout/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
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
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	_, err = pool.Exec(ctx, schema)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, result *storage.OutreachResult) error {
	query := `
	INSERT INTO outreach_results (
		id, url, username, job_title, provider_id, action, status, error, duration_ms, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := b.pool.Exec(ctx, query,
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

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.OutreachResult, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, url, username, job_title, provider_id, action, status, error, duration_ms, created_at FROM outreach_results WHERE 1=1`)
	args := []any{}

	if filter.Username != "" {
		args = append(args, filter.Username)
		fmt.Fprintf(&sb, ` AND username = $%d`, len(args))
	}
	if filter.Action != "" {
		args = append(args, string(filter.Action))
		fmt.Fprintf(&sb, ` AND action = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		fmt.Fprintf(&sb, ` AND status = $%d`, len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		fmt.Fprintf(&sb, ` AND created_at >= $%d`, len(args))
	}

	sb.WriteString(` ORDER BY created_at DESC`)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	rows, err := b.pool.Query(ctx, sb.String(), args...)
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

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
