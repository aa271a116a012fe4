package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amishk599/odishajobs/internal/model"
)

func TestWait_SameHost_EnforcesMinDelay(t *testing.T) {
	limiter := NewHostLimiter(100 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "www.opsc.gov.in"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "www.opsc.gov.in"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Allow 20ms for timer jitter.
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentHosts_NoCrossBlocking(t *testing.T) {
	limiter := NewHostLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "www.opsc.gov.in"); err != nil {
		t.Fatalf("opsc wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "www.osssc.gov.in"); err != nil {
		t.Fatalf("osssc wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected near-instant wait, got %v", elapsed)
	}
}

func TestWait_ZeroDelayNeverBlocks(t *testing.T) {
	limiter := NewHostLimiter(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := limiter.Wait(ctx, "h"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected no blocking, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewHostLimiter(5 * time.Second)

	if err := limiter.Wait(context.Background(), "h"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Wait(ctx, "h")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHostOf(t *testing.T) {
	tests := map[string]string{
		"https://www.opsc.gov.in/Recruitment/x.aspx": "www.opsc.gov.in",
		"http://localhost:8080/a":                    "localhost:8080",
		"not a url":                                  "not a url",
	}
	for in, want := range tests {
		if got := HostOf(in); got != want {
			t.Errorf("HostOf(%q) = %q, want %q", in, got, want)
		}
	}
}

type recordingFetcher struct {
	calls int
}

func (f *recordingFetcher) FetchCandidates(_ context.Context, _ string) ([]model.Candidate, error) {
	f.calls++
	return []model.Candidate{{Title: "Clerk"}}, nil
}

func TestLimitedFetcher_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewHostLimiter(100 * time.Millisecond)
	inner := &recordingFetcher{}
	fetcher := NewLimitedFetcher(inner, limiter)
	ctx := context.Background()

	if _, err := fetcher.FetchCandidates(ctx, "https://a.example/list"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	start := time.Now()
	got, err := fetcher.FetchCandidates(ctx, "https://a.example/other")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second fetch, got %v", elapsed)
	}
	if inner.calls != 2 || len(got) != 1 {
		t.Errorf("calls = %d, candidates = %d", inner.calls, len(got))
	}
}

func TestLimitedFetcher_CancelledWrapsAdapterError(t *testing.T) {
	limiter := NewHostLimiter(5 * time.Second)
	inner := &recordingFetcher{}
	fetcher := NewLimitedFetcher(inner, limiter)

	if _, err := fetcher.FetchCandidates(context.Background(), "https://a.example/"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := fetcher.FetchCandidates(ctx, "https://a.example/")
	if !errors.Is(err, model.ErrAdapter) {
		t.Fatalf("expected ErrAdapter, got %v", err)
	}
	if len(got) != 0 || inner.calls != 1 {
		t.Errorf("inner called after cancellation: calls=%d", inner.calls)
	}
}
