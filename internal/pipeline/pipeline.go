// Package pipeline runs the per-profile delivery state machine: extract the
// username, resolve it to a provider id, personalize the templates, attempt a
// direct message, and fall back to a connection invite when messaging fails.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/FranksOps/reachout/internal/metrics"
	"github.com/FranksOps/reachout/internal/personalize"
	"github.com/FranksOps/reachout/internal/profile"
	"github.com/FranksOps/reachout/internal/storage"
	"github.com/google/uuid"
)

// DirectoryAPI is the subset of the directory client the pipeline uses.
type DirectoryAPI interface {
	ResolveProfile(ctx context.Context, username string) (string, error)
	JobTitle(ctx context.Context, username string) string
	SendMessage(ctx context.Context, providerID, text string) error
	SendInvite(ctx context.Context, providerID, message string) error
}

// Templates holds the two outbound message bodies. Both may contain the
// {name} and {job_title} placeholders.
type Templates struct {
	Message    string
	Connection string
}

// Config configures a Processor.
type Config struct {
	Templates Templates
	// Personalize substitutes placeholders using the profile's username and
	// job title. When false, templates are sent verbatim and the job title
	// lookup is skipped entirely.
	Personalize bool
	Logger      *slog.Logger
}

// Processor executes the delivery state machine for one profile at a time.
type Processor struct {
	dir    DirectoryAPI
	cfg    Config
	logger *slog.Logger
}

// NewProcessor creates a delivery processor on top of a directory client.
func NewProcessor(dir DirectoryAPI, cfg Config) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{dir: dir, cfg: cfg, logger: logger}
}

// Process runs one profile URL through the full state machine. Every failure
// path resolves to a well-formed result; Process never returns an error.
// Each step executes at most once per profile.
func (p *Processor) Process(ctx context.Context, targetURL string) *storage.OutreachResult {
	start := time.Now()

	result := &storage.OutreachResult{
		ID:        uuid.New().String(),
		URL:       targetURL,
		Action:    storage.ActionNone,
		CreatedAt: start.UTC(),
	}
	defer func() {
		result.Duration = time.Since(start)
		metrics.RecordOutreach(result)
	}()

	// Step 1: extract the username from the URL.
	handle, err := profile.Extract(targetURL)
	if err != nil {
		result.Status = storage.StatusFailed
		result.Error = "could not extract username from URL: " + targetURL
		return result
	}
	result.Username = handle.Username

	// Step 2: resolve the provider id.
	providerID, err := p.dir.ResolveProfile(ctx, handle.Username)
	if err != nil {
		result.Status = storage.StatusFailed
		result.Error = err.Error()
		return result
	}
	result.ProviderID = providerID

	// Step 3: personalize both templates if enabled. The job title lookup is
	// best-effort and never fails.
	messageText := p.cfg.Templates.Message
	connectionText := p.cfg.Templates.Connection
	if p.cfg.Personalize {
		jobTitle := p.dir.JobTitle(ctx, handle.Username)
		result.JobTitle = jobTitle
		messageText = personalize.Apply(messageText, handle.Username, jobTitle)
		connectionText = personalize.Apply(connectionText, handle.Username, jobTitle)
	}

	// Step 4: try the direct message first; it completes the outreach when
	// the sender is already connected to the target.
	if err := p.dir.SendMessage(ctx, providerID, messageText); err == nil {
		result.Action = storage.ActionMessage
		result.Status = storage.StatusSuccess
		return result
	} else {
		p.logger.Debug("message send failed, falling back to invite", "username", handle.Username, "error", err)
	}

	// Step 5: fall back to a connection request.
	result.Action = storage.ActionConnectionRequest
	if err := p.dir.SendInvite(ctx, providerID, connectionText); err != nil {
		result.Status = storage.StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = storage.StatusSuccess
	return result
}
