package content

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/odishajobs/internal/model"
	"github.com/amishk599/odishajobs/internal/ratelimit"
)

const (
	// DefaultUserAgent is the generic agent sent with notification page requests.
	DefaultUserAgent = "Mozilla/5.0"
	// DefaultTimeout bounds a single notification page fetch.
	DefaultTimeout = 15 * time.Second

	// PDFPlaceholder stands in for document notifications, whose text is not extracted.
	PDFPlaceholder = "Please check the official PDF notification for complete details."

	strippedElements = "script, style, nav, header, footer"
	contentRegions   = ".content, .main-content, article, .notification-text"
)

// Fetcher retrieves and cleans the text of notification pages.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *ratelimit.HostLimiter // optional
	logger    *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithLimiter spaces requests to the same host.
func WithLimiter(l *ratelimit.HostLimiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// NewFetcher creates a Fetcher. A nil client gets one with DefaultTimeout.
func NewFetcher(client *http.Client, logger *slog.Logger, opts ...Option) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	f := &Fetcher{
		client:    client,
		userAgent: DefaultUserAgent,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchText returns the cleaned text at pageURL. Failures are logged and
// yield an empty Text; FetchText never returns an error.
func (f *Fetcher) FetchText(ctx context.Context, pageURL string) model.NotificationText {
	nt, err := f.Fetch(ctx, pageURL)
	if err != nil {
		f.logger.Warn("content fetch failed", "url", pageURL, "error", err)
	}
	return nt
}

// Fetch is FetchText with the failure reported. The returned value always
// carries the URL and fetch time, and is otherwise empty on error.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (model.NotificationText, error) {
	nt := model.NotificationText{URL: pageURL, FetchedAt: time.Now().UTC()}

	if IsDocumentURL(pageURL) {
		nt.Text = PDFPlaceholder
		return nt, nil
	}

	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, pageURL); err != nil {
			return nt, fmt.Errorf("%w: %w", model.ErrContentFetch, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nt, fmt.Errorf("%w: request: %w", model.ErrContentFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nt, fmt.Errorf("%w: %w", model.ErrContentFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nt, fmt.Errorf("%w: %w", model.ErrContentFetch, &model.HTTPError{StatusCode: resp.StatusCode})
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nt, fmt.Errorf("%w: parse: %w", model.ErrContentFetch, err)
	}

	nt.Text = extractText(doc)
	return nt, nil
}

// extractText strips page chrome and returns the collapsed text of the
// content regions, or of the whole body when no region has text.
func extractText(doc *goquery.Document) string {
	doc.Find(strippedElements).Remove()

	text := collapse(doc.Find(contentRegions).Text())
	if text == "" {
		text = collapse(doc.Find("body").Text())
	}
	return text
}

// IsDocumentURL reports whether rawURL points at a PDF document.
func IsDocumentURL(rawURL string) bool {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

// WithFallback returns text, or a generic placeholder naming the posting when
// text is shorter than minLength.
func WithFallback(text, title, organization string, minLength int) string {
	if len(text) >= minLength {
		return text
	}
	return fmt.Sprintf("%s - %s. Please visit the official notification for complete details.", title, organization)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
