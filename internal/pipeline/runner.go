package pipeline

import (
	"context"
	"log/slog"

	"github.com/FranksOps/reachout/internal/storage"
	"github.com/FranksOps/reachout/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
)

// RunConfig configures a batch run over a list of profile URLs.
type RunConfig struct {
	// Workers is the number of concurrent pipelines. The default of 1 keeps
	// processing strictly sequential; with more workers the shared limiter
	// still bounds the aggregate request rate.
	Workers int
	// RequestsPerSecond paces profile processing (0 = unpaced).
	RequestsPerSecond float64
	// Jitter applies randomness to the pacing (0.0 to 1.0).
	Jitter float64
	// Backend, if set, receives every result as it is produced.
	Backend storage.Backend
	// Progress, if set, is called after each profile completes.
	Progress func(done, total int)
	Logger   *slog.Logger
}

// Runner drives a Processor across a batch of profiles.
type Runner struct {
	proc   *Processor
	cfg    RunConfig
	logger *slog.Logger
}

// NewRunner creates a batch runner.
func NewRunner(proc *Processor, cfg RunConfig) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{proc: proc, cfg: cfg, logger: logger}
}

// Run processes each URL and returns one result per input, in input order.
// A failure in one profile never aborts the rest of the batch; the only
// error returned is the context's, alongside the results completed so far.
func (r *Runner) Run(ctx context.Context, urls []string) ([]*storage.OutreachResult, error) {
	results := make([]*storage.OutreachResult, len(urls))
	limiter := ratelimit.NewLimiter(r.cfg.RequestsPerSecond, r.cfg.Jitter)
	defer limiter.Stop()

	var done int
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)

	// completions serializes progress/storage updates across workers.
	completions := make(chan int)
	trackerDone := make(chan struct{})
	go func() {
		defer close(trackerDone)
		for idx := range completions {
			done++
			if r.cfg.Backend != nil {
				if err := r.cfg.Backend.Save(ctx, results[idx]); err != nil {
					r.logger.Warn("failed to persist result", "url", urls[idx], "error", err)
				}
			}
			if r.cfg.Progress != nil {
				r.cfg.Progress(done, len(urls))
			}
		}
	}()

	for w := 0; w < r.cfg.Workers; w++ {
		g.Go(func() error {
			for idx := range jobs {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}

				results[idx] = r.proc.Process(gctx, urls[idx])
				r.logger.Info("processed profile",
					"url", urls[idx],
					"action", results[idx].Action,
					"status", results[idx].Status,
				)

				select {
				case completions <- idx:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

feed:
	for i := range urls {
		select {
		case jobs <- i:
		case <-gctx.Done():
			break feed
		}
	}
	close(jobs)

	err := g.Wait()
	close(completions)
	<-trackerDone

	// Drop the slots the run never reached so callers see only completed
	// results.
	completed := results[:0]
	for _, res := range results {
		if res != nil {
			completed = append(completed, res)
		}
	}

	return completed, err
}
