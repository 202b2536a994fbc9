// Package campaign wires the discovery and delivery engines together from a
// campaign configuration, giving external callers a single entry point for
// running outreach end to end.
package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/reachout/internal/directory"
	"github.com/FranksOps/reachout/internal/discover"
	"github.com/FranksOps/reachout/internal/fingerprint"
	"github.com/FranksOps/reachout/internal/pipeline"
	"github.com/FranksOps/reachout/internal/report"
	"github.com/FranksOps/reachout/internal/search"
	"github.com/FranksOps/reachout/internal/storage"
	"github.com/FranksOps/reachout/internal/storage/csvbackend"
	"github.com/FranksOps/reachout/internal/storage/jsonbackend"
	"github.com/FranksOps/reachout/internal/storage/postgres"
	"github.com/FranksOps/reachout/internal/storage/sqlite"
	"github.com/FranksOps/reachout/pkg/config"
	"github.com/FranksOps/reachout/pkg/loader"
	"github.com/FranksOps/reachout/pkg/proxy"
)

// Result and Summary alias the engine types so callers need only this package.
type (
	Result  = storage.OutreachResult
	Summary = report.Summary
)

// Campaign holds the wired engines for one configured outreach run.
type Campaign struct {
	cfg      config.Config
	provider search.Provider
	dir      pipeline.DirectoryAPI
	backend  storage.Backend
	logger   *slog.Logger
}

// New validates the configuration and builds every engine it names. The
// campaign owns the storage backend; call Close when done with it.
func New(ctx context.Context, cfg config.Config) (*Campaign, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := slog.Default()

	var proxies *proxy.Pool
	if cfg.Search.ProxyFile != "" {
		proxies = proxy.NewPool(proxy.Config{})
		if err := proxies.LoadFile(cfg.Search.ProxyFile); err != nil {
			return nil, fmt.Errorf("failed to load proxy list: %w", err)
		}
	}

	provider, err := search.NewGoogle(search.GoogleConfig{
		BaseURL:     cfg.Search.BaseURL,
		Timeout:     config.Duration(cfg.Search.Timeout, 20*time.Second),
		ProxyPool:   proxies,
		Fingerprint: fingerprint.Profile(cfg.Search.Fingerprint),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build search provider: %w", err)
	}

	dir, err := directory.New(directory.Config{
		DSN: cfg.Directory.DSN,
		Credentials: directory.Credentials{
			APIKey:    cfg.Directory.APIKey,
			AccountID: cfg.Directory.AccountID,
		},
		Timeout:           config.Duration(cfg.Directory.Timeout, 30*time.Second),
		RequestsPerSecond: cfg.Directory.RequestsPerSecond,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build directory client: %w", err)
	}

	backend, err := newBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	return &Campaign{
		cfg:      cfg,
		provider: provider,
		dir:      dir,
		backend:  backend,
		logger:   logger,
	}, nil
}

func newBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "csv":
		return csvbackend.New(cfg.Path)
	case "json":
		return jsonbackend.New(cfg.Path)
	case "sqlite":
		return sqlite.New(cfg.Path)
	case "postgres":
		return postgres.New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Discover runs the configured discovery plan and returns profile URLs.
func (c *Campaign) Discover(ctx context.Context) ([]string, error) {
	engine := discover.New(c.provider, discover.Options{
		PerQueryLimit: c.cfg.Discovery.PerQueryLimit,
		PaceMin:       config.Duration(c.cfg.Discovery.PaceMin, 0),
		PaceMax:       config.Duration(c.cfg.Discovery.PaceMax, 0),
		Logger:        c.logger,
	})

	handles, err := engine.Discover(ctx, c.cfg.Discovery.Keyword, c.cfg.Discovery.Description, c.cfg.Discovery.MaxResults)
	if err != nil {
		return nil, err
	}

	urls := make([]string, len(handles))
	for i, h := range handles {
		urls[i] = h.URL
	}
	return urls, nil
}

// Deliver runs the delivery pipeline over the given profile URLs, persisting
// every result to the configured backend, and returns the batch summary.
func (c *Campaign) Deliver(ctx context.Context, urls []string) ([]*Result, Summary, error) {
	proc := pipeline.NewProcessor(c.dir, pipeline.Config{
		Templates: pipeline.Templates{
			Message:    c.cfg.Outreach.MessageTemplate,
			Connection: c.cfg.Outreach.ConnectionTemplate,
		},
		Personalize: c.cfg.Outreach.Personalize,
		Logger:      c.logger,
	})

	runner := pipeline.NewRunner(proc, pipeline.RunConfig{
		Workers:           c.cfg.Outreach.Workers,
		RequestsPerSecond: c.cfg.Outreach.RequestsPerSecond,
		Jitter:            c.cfg.Outreach.Jitter,
		Backend:           c.backend,
		Logger:            c.logger,
	})

	results, err := runner.Run(ctx, urls)
	return results, report.GenerateSummary(results), err
}

// Run discovers targets and delivers to them in one pass.
func (c *Campaign) Run(ctx context.Context) ([]*Result, Summary, error) {
	urls, err := c.Discover(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	return c.Deliver(ctx, urls)
}

// RunFile delivers to a target list loaded from a text or CSV file instead
// of running discovery.
func (c *Campaign) RunFile(ctx context.Context, path string) ([]*Result, Summary, error) {
	urls, err := loader.FromFile(path)
	if err != nil {
		return nil, Summary{}, err
	}
	return c.Deliver(ctx, urls)
}

// Close releases the storage backend.
func (c *Campaign) Close() error {
	if c.backend == nil {
		return nil
	}
	return c.backend.Close()
}
