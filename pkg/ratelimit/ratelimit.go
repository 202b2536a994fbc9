package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter controls the rate and timing of operations, incorporating optional jitter.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	ticker   *time.Ticker
	jitter   float64 // 0.0 to 1.0
	interval time.Duration
	ch       <-chan time.Time
}

// NewLimiter creates a new limiter with the given requests per second (rps)
// and jitter factor. Jitter must be between 0.0 and 1.0.
// If rps is <= 0, the limiter does not block.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{
			jitter: jitter,
		}
	}

	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	interval := time.Duration(float64(time.Second) / rps)
	ticker := time.NewTicker(interval)

	return &Limiter{
		ticker:   ticker,
		jitter:   jitter,
		interval: interval,
		ch:       ticker.C,
	}
}

// Wait blocks until it is time to perform the next operation, or until the
// context is canceled. It applies jitter to the sleep time if configured.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.ch == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ch:
		if l.jitter > 0 {
			// Random jitter between +/- (jitter * interval)
			jitterFactor := (rand.Float64() * 2) - 1.0 // -1.0 to 1.0
			jitterDuration := time.Duration(float64(l.interval) * l.jitter * jitterFactor)

			if jitterDuration > 0 {
				select {
				case <-time.After(jitterDuration):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			// Negative jitter just means "run when the ticker ticks"; the
			// ticker enforces the minimum interval natively.
		}
	}
	return nil
}

// Stop releases any resources associated with the limiter.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
}

// Pacer sleeps for a uniformly random duration within [min, max] between
// successive operations. Unlike Limiter it enforces no steady rate; it spaces
// out bursts of requests so consecutive calls don't fire back to back.
type Pacer struct {
	min time.Duration
	max time.Duration
}

// NewPacer creates a pacer for the given delay range. If max < min, max is
// raised to min. A non-positive min disables the pacer entirely.
func NewPacer(min, max time.Duration) *Pacer {
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max}
}

// Wait sleeps for a random duration within the configured range, or returns
// early with the context's error if it is canceled first.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.min <= 0 {
		return nil
	}

	d := p.min
	if p.max > p.min {
		d += time.Duration(rand.Int63n(int64(p.max - p.min)))
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
