// Package discover turns a keyword/description pair into a deduplicated,
// capped list of profile handles by running a plan of increasingly broad
// search queries.
package discover

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/reachout/internal/metrics"
	"github.com/FranksOps/reachout/internal/profile"
	"github.com/FranksOps/reachout/internal/search"
	"github.com/FranksOps/reachout/pkg/ratelimit"
)

// Options configures a discovery Engine.
type Options struct {
	// PerQueryLimit caps how many results a single query may return.
	PerQueryLimit int
	// PaceMin/PaceMax bound the randomized delay between successive result
	// items within a query. The delay keeps the request rate to the search
	// provider irregular; it is skipped on the item that reaches the cap.
	PaceMin time.Duration
	PaceMax time.Duration
	// Progress, if set, receives a monotonically non-decreasing fraction in
	// [0,1]. Advisory only; it never affects control flow.
	Progress func(fraction float64)
	Logger   *slog.Logger
}

// Engine orchestrates the search provider and handle extraction across the
// query plan.
type Engine struct {
	provider search.Provider
	opts     Options
	pacer    *ratelimit.Pacer

	lastProgress float64
}

// New creates a discovery engine on top of a search provider.
func New(provider search.Provider, opts Options) *Engine {
	if opts.PerQueryLimit <= 0 {
		opts.PerQueryLimit = 10
	}
	if opts.PaceMin == 0 && opts.PaceMax == 0 {
		opts.PaceMin = 500 * time.Millisecond
		opts.PaceMax = 1500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Engine{
		provider: provider,
		opts:     opts,
		pacer:    ratelimit.NewPacer(opts.PaceMin, opts.PaceMax),
	}
}

// targetedQueries builds the narrow queries embedding both keyword and
// description.
func targetedQueries(keyword, description string) []string {
	return []string{
		fmt.Sprintf(`site:linkedin.com/in "%s" "%s"`, keyword, description),
		fmt.Sprintf(`inurl:linkedin.com/in "%s" "%s"`, keyword, description),
		fmt.Sprintf(`site:linkedin.com/in intitle:"%s" "%s"`, keyword, description),
	}
}

// broadenedQuery drops the description when the targeted queries under-deliver.
func broadenedQuery(keyword string) string {
	return fmt.Sprintf(`site:linkedin.com/in "%s"`, keyword)
}

// Discover runs the query plan and returns at most maxResults handles with
// unique usernames, in discovery order. A failing query is skipped; if every
// query fails the result is simply empty. The only error returned is the
// context's, with whatever was collected before cancellation.
func (e *Engine) Discover(ctx context.Context, keyword, description string, maxResults int) ([]profile.Handle, error) {
	handles := []profile.Handle{}
	if maxResults <= 0 {
		return handles, nil
	}

	e.lastProgress = 0
	seen := make(map[string]struct{})

	targeted := targetedQueries(keyword, description)
	totalQueries := len(targeted) + 1 // plus the broadening fallback

	for i, query := range targeted {
		if err := ctx.Err(); err != nil {
			return handles, err
		}

		done, err := e.runQuery(ctx, query, "targeted", seen, &handles, maxResults)
		if err != nil {
			return handles, err
		}
		e.reportProgress(float64(i+1) / float64(totalQueries))
		if done {
			e.reportProgress(1.0)
			return handles, nil
		}
	}

	// Targeted queries under-delivered; broaden once with keyword only.
	if len(handles) < maxResults {
		e.opts.Logger.Info("broadening search", "keyword", keyword, "found", len(handles), "want", maxResults)
		if _, err := e.runQuery(ctx, broadenedQuery(keyword), "broadened", seen, &handles, maxResults); err != nil {
			return handles, err
		}
	}

	e.reportProgress(1.0)
	return handles, nil
}

// runQuery executes one query and folds its results into the accumulator.
// It reports done=true once the accumulator reaches maxResults. The returned
// error is only ever the context's.
func (e *Engine) runQuery(ctx context.Context, query, kind string, seen map[string]struct{}, handles *[]profile.Handle, maxResults int) (bool, error) {
	e.opts.Logger.Debug("running search query", "kind", kind, "query", query)

	results, err := e.provider.Search(ctx, query, e.opts.PerQueryLimit)
	metrics.RecordSearchQuery(kind, err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		// A single failed query is skipped, not fatal.
		e.opts.Logger.Warn("search query failed", "kind", kind, "error", err)
		return false, nil
	}

	for i, res := range results {
		// The delay runs between successive result items, accepted or not,
		// and never after the item that reaches the cap.
		if i > 0 {
			if err := e.pacer.Wait(ctx); err != nil {
				return false, err
			}
		}

		h, err := profile.Extract(res.URL)
		if err != nil {
			// Not a profile URL; discard and move on.
			continue
		}
		if _, dup := seen[h.Username]; dup {
			continue
		}

		seen[h.Username] = struct{}{}
		*handles = append(*handles, h)
		metrics.ProfilesDiscovered.Inc()
		e.opts.Logger.Debug("found profile", "username", h.Username)

		if len(*handles) >= maxResults {
			return true, nil
		}
	}

	return false, nil
}

// reportProgress forwards a progress fraction, clamped to [0,1] and never
// moving backwards.
func (e *Engine) reportProgress(f float64) {
	if e.opts.Progress == nil {
		return
	}
	if f > 1 {
		f = 1
	}
	if f <= e.lastProgress {
		return
	}
	e.lastProgress = f
	e.opts.Progress(f)
}
