package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/amishk599/odishajobs/internal/model"
)

// HostLimiter enforces a minimum delay between requests to the same host.
type HostLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: host
	minDelay time.Duration
}

// NewHostLimiter creates a limiter that spaces consecutive requests to the
// same host by at least minDelay. A zero minDelay never blocks.
func NewHostLimiter(minDelay time.Duration) *HostLimiter {
	return &HostLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to host.
// Returns an error if the context is cancelled while waiting.
func (r *HostLimiter) Wait(ctx context.Context, host string) error {
	r.mu.Lock()
	last, ok := r.lastCall[host]
	now := time.Now()

	if !ok || now.Sub(last) >= r.minDelay {
		r.lastCall[host] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot before releasing the lock so concurrent callers
	// queue behind each other instead of firing together.
	next := last.Add(r.minDelay)
	r.lastCall[host] = next
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", host, ctx.Err())
	case <-time.After(time.Until(next)):
	}
	return nil
}

// WaitURL is Wait keyed by the host of rawURL. Unparseable URLs share one key.
func (r *HostLimiter) WaitURL(ctx context.Context, rawURL string) error {
	return r.Wait(ctx, HostOf(rawURL))
}

// HostOf returns the host component of rawURL, or rawURL itself when it has none.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// LimitedFetcher is a decorator that waits for the host limiter before
// delegating to the wrapped CandidateFetcher.
type LimitedFetcher struct {
	inner   model.CandidateFetcher
	limiter *HostLimiter
}

// NewLimitedFetcher wraps a CandidateFetcher with per-host rate limiting.
// Fetchers that may hit the same host should share one limiter.
func NewLimitedFetcher(inner model.CandidateFetcher, limiter *HostLimiter) *LimitedFetcher {
	return &LimitedFetcher{
		inner:   inner,
		limiter: limiter,
	}
}

// FetchCandidates waits for the limiter to allow a request to the host of
// pageURL, then delegates.
func (f *LimitedFetcher) FetchCandidates(ctx context.Context, pageURL string) ([]model.Candidate, error) {
	if err := f.limiter.WaitURL(ctx, pageURL); err != nil {
		return []model.Candidate{}, fmt.Errorf("%w: %w", model.ErrAdapter, err)
	}
	return f.inner.FetchCandidates(ctx, pageURL)
}
