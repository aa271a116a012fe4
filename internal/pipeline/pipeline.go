package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amishk599/odishajobs/internal/classify"
	"github.com/amishk599/odishajobs/internal/content"
	"github.com/amishk599/odishajobs/internal/model"
)

// TextFetcher retrieves the cleaned text of a notification page.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) model.NotificationText
}

// Dispatcher hands a newly created record to background enrichment.
type Dispatcher interface {
	Enqueue(ctx context.Context, rec model.JobRecord) error
}

// Result summarizes one run of a source.
type Result struct {
	Source     string
	Fetched    int
	Duplicates int
	Created    []model.JobRecord
	Failed     int
}

// SourcePipeline owns the full ingestion flow for a single source:
// fetch candidates → dedup → fetch text → create → dispatch enrichment → notify.
type SourcePipeline struct {
	Name          string
	URL           string
	fetcher       model.CandidateFetcher
	dedup         *Deduplicator
	text          TextFetcher
	store         model.RecordStore
	dispatcher    Dispatcher
	notifier      model.Notifier
	minTextLength int
	logger        *slog.Logger
}

// Deps are the collaborators shared by every source pipeline.
type Deps struct {
	Store         model.RecordStore
	Text          TextFetcher
	Dispatcher    Dispatcher
	Notifier      model.Notifier
	MinTextLength int
	Logger        *slog.Logger
}

// NewSourcePipeline creates a pipeline for the source at url.
func NewSourcePipeline(name, url string, fetcher model.CandidateFetcher, deps Deps) *SourcePipeline {
	return &SourcePipeline{
		Name:          name,
		URL:           url,
		fetcher:       fetcher,
		dedup:         NewDeduplicator(deps.Store),
		text:          deps.Text,
		store:         deps.Store,
		dispatcher:    deps.Dispatcher,
		notifier:      deps.Notifier,
		minTextLength: deps.MinTextLength,
		logger:        deps.Logger.With("source", name),
	}
}

// Candidates fetches the listing without touching the store.
func (p *SourcePipeline) Candidates(ctx context.Context) ([]model.Candidate, error) {
	return p.fetcher.FetchCandidates(ctx, p.URL)
}

// Run processes every candidate of the source. Per-candidate failures are
// logged and counted; only a listing failure is returned.
func (p *SourcePipeline) Run(ctx context.Context) (Result, error) {
	res := Result{Source: p.Name}

	candidates, err := p.fetcher.FetchCandidates(ctx, p.URL)
	if err != nil {
		return res, fmt.Errorf("source %s: %w", p.Name, err)
	}
	res.Fetched = len(candidates)

	for _, c := range candidates {
		if ctx.Err() != nil {
			return res, fmt.Errorf("source %s: %w", p.Name, ctx.Err())
		}

		rec, created, err := p.ingest(ctx, c)
		switch {
		case err != nil:
			res.Failed++
			p.logger.Error("ingest candidate failed", "title", c.Title, "error", err)
			continue
		case !created:
			res.Duplicates++
			continue
		}

		res.Created = append(res.Created, rec)
		if p.dispatcher != nil {
			if err := p.dispatcher.Enqueue(ctx, rec); err != nil {
				p.logger.Warn("enrichment not dispatched", "title", rec.Title, "record_id", rec.ID, "error", err)
			}
		}
	}

	if len(res.Created) > 0 && p.notifier != nil {
		if err := p.notifier.Notify(res.Created); err != nil {
			p.logger.Warn("notify failed", "count", len(res.Created), "error", err)
		}
	}

	p.logger.Info("scraped source",
		"fetched", res.Fetched,
		"new", len(res.Created),
		"duplicates", res.Duplicates,
		"failed", res.Failed,
	)
	return res, nil
}

// ingest creates a record for c unless its natural key is already stored.
// created is false for duplicates, including ones lost to a concurrent create.
func (p *SourcePipeline) ingest(ctx context.Context, c model.Candidate) (rec model.JobRecord, created bool, err error) {
	exists, err := p.dedup.Exists(ctx, c.Title, c.Organization)
	if err != nil {
		return model.JobRecord{}, false, err
	}
	if exists {
		p.logger.Debug("candidate already stored", "title", c.Title)
		return model.JobRecord{}, false, nil
	}

	nt := p.text.FetchText(ctx, c.NotificationURL)
	text := nt.Text
	if len(text) < p.minTextLength {
		p.logger.Warn("insufficient notification text, using placeholder", "title", c.Title, "length", len(text))
		text = content.WithFallback(text, c.Title, c.Organization, p.minTextLength)
	}

	category := c.Category
	if category == "" {
		category = classify.Categorize(c.Title)
	}

	rec, err = p.store.Create(ctx, model.NewRecord{
		Title:            c.Title,
		Organization:     c.Organization,
		SourceName:       c.SourceName,
		NotificationURL:  c.NotificationURL,
		PDFURL:           c.PDFURL,
		NotificationText: text,
		Category:         category,
		Tags:             classify.GenerateTags(c.Title, nil),
		Status:           model.StatusActive,
	})
	if errors.Is(err, model.ErrDuplicate) {
		p.logger.Info("candidate created concurrently, skipping", "title", c.Title)
		return model.JobRecord{}, false, nil
	}
	if err != nil {
		return model.JobRecord{}, false, fmt.Errorf("create record: %w", err)
	}

	p.logger.Info("created record", "title", rec.Title, "record_id", rec.ID, "category", rec.Category)
	return rec, true, nil
}
