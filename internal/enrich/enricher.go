package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amishk599/odishajobs/internal/ai"
	"github.com/amishk599/odishajobs/internal/classify"
	"github.com/amishk599/odishajobs/internal/model"
	"github.com/amishk599/odishajobs/internal/retry"
)

// Normalizer turns notification text into an AISummary.
type Normalizer interface {
	Normalize(ctx context.Context, rawText string) (model.AISummary, error)
}

// Resolver builds exam-preparation resources for a record.
type Resolver interface {
	Resolve(ctx context.Context, title string, summary *model.AISummary) (model.ResourceSet, error)
}

// Enricher runs normalize → tags → resources → update for one record.
type Enricher struct {
	store      model.RecordStore
	normalizer Normalizer
	resolver   Resolver
	retrier    *retry.Retrier
	logger     *slog.Logger
}

// NewEnricher creates an Enricher. A nil retrier disables retries.
func NewEnricher(store model.RecordStore, normalizer Normalizer, resolver Resolver, retrier *retry.Retrier, logger *slog.Logger) *Enricher {
	if retrier == nil {
		retrier = retry.New(0, 0, logger)
	}
	return &Enricher{
		store:      store,
		normalizer: normalizer,
		resolver:   resolver,
		retrier:    retrier,
		logger:     logger,
	}
}

// Enrich loads the record with id and fills in its summary, tags and
// resources. Resources are attached even when extraction fails; in that case
// the record keeps IsAIProcessed false and the extraction error is returned.
func (e *Enricher) Enrich(ctx context.Context, id string) (model.JobRecord, error) {
	rec, err := e.store.FindByID(ctx, id)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("load record %s: %w", id, err)
	}
	logger := e.logger.With("record_id", rec.ID, "title", rec.Title, "source", rec.SourceName)

	var summary *model.AISummary
	extractErr := e.retrier.Do(ctx, "normalize", func(ctx context.Context) error {
		s, err := e.normalizer.Normalize(ctx, rec.NotificationText)
		if err != nil {
			return err
		}
		summary = &s
		return nil
	})
	if extractErr != nil {
		if errors.Is(extractErr, ai.ErrDisabled) {
			logger.Debug("ai disabled, skipping extraction")
		} else {
			logger.Error("extraction failed", "error", extractErr)
		}
	}

	resources, err := e.resolver.Resolve(ctx, rec.Title, summary)
	if err != nil {
		// The set is still usable; the error flags a configuration problem.
		logger.Warn("resource resolution degraded", "error", err)
	}

	upd := model.RecordUpdate{
		Tags:      classify.GenerateTags(rec.Title, summary),
		Resources: &resources,
	}
	if summary != nil {
		processed := true
		upd.AISummary = summary
		upd.IsAIProcessed = &processed
	}

	updated, err := e.store.Update(ctx, rec.ID, upd)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("update record %s: %w", rec.ID, err)
	}

	if extractErr != nil {
		return updated, extractErr
	}
	logger.Info("record enriched", "queries", len(resources.SearchQueries))
	return updated, nil
}

// IsTransient reports whether a normalization error is worth retrying:
// provider outages and rate limits are, bad input and unparseable output are not.
func IsTransient(err error) bool {
	if errors.Is(err, model.ErrTextTooShort) || errors.Is(err, model.ErrNoJSON) || errors.Is(err, ai.ErrDisabled) {
		return false
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false
	}
	return retry.IsRetryable(err)
}

// Dispatcher accepts records for background enrichment.
type Dispatcher interface {
	Enqueue(ctx context.Context, rec model.JobRecord) error
}

// Requeue dispatches up to limit records that have not been AI-processed yet.
// It returns the number of records accepted.
func Requeue(ctx context.Context, store model.RecordStore, d Dispatcher, limit int, logger *slog.Logger) (int, error) {
	pending := false
	recs, err := store.Find(ctx, model.RecordFilter{AIProcessed: &pending, Limit: limit})
	if err != nil {
		return 0, fmt.Errorf("find unprocessed records: %w", err)
	}
	queued := 0
	for _, rec := range recs {
		if err := d.Enqueue(ctx, rec); err != nil {
			logger.Warn("record not requeued", "record_id", rec.ID, "title", rec.Title, "error", err)
			if ctx.Err() != nil {
				return queued, ctx.Err()
			}
			continue
		}
		queued++
	}
	return queued, nil
}
