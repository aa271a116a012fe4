package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/odishajobs/internal/model"
	"github.com/amishk599/odishajobs/internal/retry"
)

// BrowserUserAgent is sent by listing requests so portals serve their desktop markup.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// StaticAdapter fetches a server-rendered listing page with a single GET.
type StaticAdapter struct {
	source    Source
	client    *http.Client
	userAgent string
}

// NewStaticAdapter creates an adapter for a static listing page. The client's
// timeout bounds the request.
func NewStaticAdapter(source Source, client *http.Client) *StaticAdapter {
	source.Selectors = source.Selectors.WithDefaults(DefaultStaticSelectors)
	return &StaticAdapter{
		source:    source,
		client:    client,
		userAgent: BrowserUserAgent,
	}
}

// FetchCandidates retrieves and parses the listing at pageURL. On any network
// or parse failure it returns an empty list and an error wrapping model.ErrAdapter.
func (a *StaticAdapter) FetchCandidates(ctx context.Context, pageURL string) ([]model.Candidate, error) {
	empty := []model.Candidate{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return empty, fmt.Errorf("%w: %s request: %w", model.ErrAdapter, a.source.Name, err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return empty, fmt.Errorf("%w: %s fetch: %w", model.ErrAdapter, a.source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return empty, fmt.Errorf("%w: %w", model.ErrAdapter, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s fetch: unexpected status %d", a.source.Name, resp.StatusCode),
		})
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("%w: %s parse: %w", model.ErrAdapter, a.source.Name, err)
	}

	return parseListing(doc, pageURL, a.source), nil
}
