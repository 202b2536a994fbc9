package storage

import (
	"context"
	"time"
)

// Action describes which delivery action a pipeline run ended on.
type Action string

const (
	// ActionNone means the run failed before any send was attempted.
	ActionNone Action = "None"
	// ActionMessage means a direct message send was the terminal action.
	ActionMessage Action = "Message"
	// ActionConnectionRequest means the invite fallback was the terminal action.
	ActionConnectionRequest Action = "Connection Request"
)

// Status is the terminal status of a pipeline run.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// OutreachResult represents the terminal outcome of processing one profile.
// Exactly one (Action, Status) pair is recorded per profile; the record is
// not mutated after the pipeline completes.
type OutreachResult struct {
	ID         string        `json:"id"`
	URL        string        `json:"url"`
	Username   string        `json:"username,omitempty"`
	JobTitle   string        `json:"job_title,omitempty"`
	ProviderID string        `json:"provider_id,omitempty"`
	Action     Action        `json:"action"`
	Status     Status        `json:"status"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Filter allows querying for specific OutreachResults.
type Filter struct {
	Username string
	Action   Action
	Status   Status
	Since    *time.Time
	Limit    int
	Offset   int
}

// Backend defines the interface for storing and querying outreach results.
type Backend interface {
	Save(ctx context.Context, result *OutreachResult) error
	Query(ctx context.Context, filter Filter) ([]*OutreachResult, error)
	Close() error
}
