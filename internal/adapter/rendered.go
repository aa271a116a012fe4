package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/odishajobs/internal/model"
)

// Renderer loads a page in a headless browser, waits for waitSelector to
// appear, and returns the rendered document HTML.
type Renderer interface {
	Render(ctx context.Context, pageURL, waitSelector string) (string, error)
}

// RenderedAdapter extracts candidates from pages whose listing is built by
// client-side scripts.
type RenderedAdapter struct {
	source   Source
	renderer Renderer
}

// NewRenderedAdapter creates an adapter backed by renderer.
func NewRenderedAdapter(source Source, renderer Renderer) *RenderedAdapter {
	source.Selectors = source.Selectors.WithDefaults(DefaultRenderedSelectors)
	return &RenderedAdapter{
		source:   source,
		renderer: renderer,
	}
}

// FetchCandidates renders pageURL and parses the listing. Navigation timeouts
// and a missing listing selector yield an empty list and an error wrapping
// model.ErrAdapter.
func (a *RenderedAdapter) FetchCandidates(ctx context.Context, pageURL string) ([]model.Candidate, error) {
	empty := []model.Candidate{}

	html, err := a.renderer.Render(ctx, pageURL, a.source.Selectors.Listing)
	if err != nil {
		return empty, fmt.Errorf("%w: %s render: %w", model.ErrAdapter, a.source.Name, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return empty, fmt.Errorf("%w: %s parse: %w", model.ErrAdapter, a.source.Name, err)
	}

	return parseListing(doc, pageURL, a.source), nil
}
