package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/odishajobs/internal/model"
	"github.com/amishk599/odishajobs/internal/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("User-Agent = %q, want %q", ua, DefaultUserAgent)
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchText_ContentRegion(t *testing.T) {
	page := `<html><head><style>body{}</style></head><body>
<header>Site Header</header>
<nav>Home | About</nav>
<div class="content">
  <h1>Advertisement No. 5/2024</h1>
  <script>track()</script>
  <p>Applications are invited
     for the post of   Junior Engineer.</p>
</div>
<footer>Copyright</footer>
</body></html>`
	srv := serve(t, http.StatusOK, page)

	f := NewFetcher(srv.Client(), discardLogger())
	got := f.FetchText(context.Background(), srv.URL+"/notice")

	want := "Advertisement No. 5/2024 Applications are invited for the post of Junior Engineer."
	if got.Text != want {
		t.Errorf("text = %q, want %q", got.Text, want)
	}
	if got.URL != srv.URL+"/notice" {
		t.Errorf("url = %q", got.URL)
	}
	if got.FetchedAt.IsZero() {
		t.Error("fetched_at not set")
	}
}

func TestFetchText_FallsBackToBody(t *testing.T) {
	page := `<html><body><nav>Menu</nav><div id="x">Last date   is 31 January</div><footer>f</footer></body></html>`
	srv := serve(t, http.StatusOK, page)

	f := NewFetcher(srv.Client(), discardLogger())
	got := f.FetchText(context.Background(), srv.URL)
	if got.Text != "Last date is 31 January" {
		t.Errorf("text = %q", got.Text)
	}
}

func TestFetchText_HTTPErrorYieldsEmpty(t *testing.T) {
	srv := serve(t, http.StatusNotFound, "missing")

	f := NewFetcher(srv.Client(), discardLogger())
	if got := f.FetchText(context.Background(), srv.URL); got.Text != "" {
		t.Errorf("expected empty text, got %q", got.Text)
	}

	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, model.ErrContentFetch) {
		t.Errorf("expected ErrContentFetch, got %v", err)
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected HTTPError 404, got %v", err)
	}
}

func TestFetchText_TimeoutYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewFetcher(&http.Client{Timeout: 20 * time.Millisecond}, discardLogger())
	if got := f.FetchText(context.Background(), srv.URL); got.Text != "" {
		t.Errorf("expected empty text, got %q", got.Text)
	}
}

func TestFetchText_PDFPlaceholderSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), discardLogger())
	got := f.FetchText(context.Background(), srv.URL+"/docs/Advt-05.PDF?v=2")
	if got.Text != PDFPlaceholder {
		t.Errorf("text = %q, want placeholder", got.Text)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no request for PDF, got %d", hits.Load())
	}
}

func TestFetchText_UsesLimiter(t *testing.T) {
	srv := serve(t, http.StatusOK, "<body>ok</body>")
	limiter := ratelimit.NewHostLimiter(100 * time.Millisecond)

	f := NewFetcher(srv.Client(), discardLogger(), WithLimiter(limiter))
	f.FetchText(context.Background(), srv.URL+"/a")

	start := time.Now()
	got := f.FetchText(context.Background(), srv.URL+"/b")
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected limiter delay, got %v", elapsed)
	}
	if got.Text != "ok" {
		t.Errorf("text = %q", got.Text)
	}
}

func TestIsDocumentURL(t *testing.T) {
	tests := map[string]bool{
		"https://opsc.gov.in/a/advt.pdf":     true,
		"https://opsc.gov.in/a/ADVT.Pdf?x=1": true,
		"https://opsc.gov.in/a/notice.aspx":  false,
		"https://opsc.gov.in/pdf/notice":     false,
		"relative/file.pdf":                  true,
	}
	for in, want := range tests {
		if got := IsDocumentURL(in); got != want {
			t.Errorf("IsDocumentURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithFallback(t *testing.T) {
	long := strings.Repeat("x", 100)
	if got := WithFallback(long, "T", "O", 100); got != long {
		t.Error("text at threshold should be kept")
	}

	got := WithFallback("short", "Staff Nurse", "AIIMS Bhubaneswar", 100)
	want := "Staff Nurse - AIIMS Bhubaneswar. Please visit the official notification for complete details."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := WithFallback("", "T", "O", 100); !strings.HasPrefix(got, "T - O.") {
		t.Errorf("empty text not replaced: %q", got)
	}
}
