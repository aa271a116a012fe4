package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/amishk599/odishajobs/internal/adapter"
	"github.com/amishk599/odishajobs/internal/ai"
	"github.com/amishk599/odishajobs/internal/config"
	"github.com/amishk599/odishajobs/internal/content"
	"github.com/amishk599/odishajobs/internal/enrich"
	"github.com/amishk599/odishajobs/internal/model"
	"github.com/amishk599/odishajobs/internal/notifier"
	"github.com/amishk599/odishajobs/internal/pipeline"
	"github.com/amishk599/odishajobs/internal/ratelimit"
	"github.com/amishk599/odishajobs/internal/resource"
	"github.com/amishk599/odishajobs/internal/retry"
	"github.com/amishk599/odishajobs/internal/scheduler"
	"github.com/amishk599/odishajobs/internal/store"
)

type recordStore interface {
	model.RecordStore
	Close() error
}

// app holds the wired components shared by the commands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      recordStore
	content    *content.Fetcher
	normalizer *ai.Normalizer
	queue      *enrich.Queue
	notifier   model.Notifier
	scheduler  *scheduler.Scheduler
	closers    []func() error
}

type buildOptions struct {
	// dryRun swaps the store for store.NopStore and disables enrichment dispatch.
	dryRun bool
	// enrich starts the enrichment queue.
	enrich bool
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts buildOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if opts.dryRun {
		a.store = store.NewNopStore()
	} else {
		s, err := openStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		a.store = s
		logger.Info("store opened", "driver", cfg.Store.Driver)
	}
	a.closers = append(a.closers, a.store.Close)

	sourceClient := &http.Client{Timeout: cfg.HTTP.SourceTimeout}
	limiter := ratelimit.NewHostLimiter(cfg.RateLimit.MinDelay)

	contentOpts := []content.Option{content.WithLimiter(limiter)}
	if cfg.HTTP.UserAgent != "" {
		contentOpts = append(contentOpts, content.WithUserAgent(cfg.HTTP.UserAgent))
	}
	a.content = content.NewFetcher(&http.Client{Timeout: cfg.HTTP.ContentTimeout}, logger, contentOpts...)

	provider := setupProvider(cfg.AI, logger)
	a.normalizer = ai.NewNormalizer(provider, logger,
		ai.WithMinTextLength(cfg.AI.MinTextLength),
		ai.WithStructuredOutput(cfg.AI.StructuredOutput),
	)

	var dispatcher pipeline.Dispatcher
	if opts.enrich && !opts.dryRun {
		resolverOpts := []resource.Option{resource.WithStructuredOutput(cfg.AI.StructuredOutput)}
		if cfg.Resources.Mode == config.ResourceModeStrict {
			yt := cfg.Resources.YouTube
			resolverOpts = append(resolverOpts, resource.WithVideoSearch(
				resource.NewYouTubeClient(yt.BaseURL, yt.APIKey, yt.MaxResults, yt.Region, &http.Client{Timeout: cfg.HTTP.ContentTimeout}, logger),
			))
		}
		resolver := resource.NewResolver(provider, logger, resolverOpts...)
		retrier := retry.New(cfg.Enrichment.MaxRetries, cfg.Enrichment.RetryDelay, logger, retry.WithClassifier(enrich.IsTransient))
		enricher := enrich.NewEnricher(a.store, a.normalizer, resolver, retrier, logger)

		a.queue = enrich.NewQueue(enricher, logger,
			enrich.WithWorkers(cfg.Enrichment.Workers),
			enrich.WithQueueSize(cfg.Enrichment.QueueSize),
			enrich.WithTimeout(cfg.Enrichment.Timeout),
		)
		dispatcher = a.queue
	}

	if opts.dryRun {
		a.notifier = notifier.NewLogNotifier(logger)
	} else {
		n, closeFn, err := setupNotifier(ctx, cfg.Notification, sourceClient, logger)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.notifier = n
		if closeFn != nil {
			a.closers = append(a.closers, closeFn)
		}
	}

	renderer := adapter.NewChromeRenderer(cfg.Renderer.ExecPath, cfg.Renderer.NavigationTimeout, cfg.Renderer.SelectorTimeout)
	deps := pipeline.Deps{
		Store:         a.store,
		Text:          a.content,
		Dispatcher:    dispatcher,
		Notifier:      a.notifier,
		MinTextLength: cfg.AI.MinTextLength,
		Logger:        logger,
	}

	var pipelines []*pipeline.SourcePipeline
	for _, src := range cfg.EnabledSources() {
		fetcher := createFetcher(src, sourceClient, renderer)
		fetcher = ratelimit.NewLimitedFetcher(fetcher, limiter)
		pipelines = append(pipelines, pipeline.NewSourcePipeline(src.Name, src.URL, fetcher, deps))
		logger.Debug("registered source", "source", src.Name, "kind", src.Kind, "url", src.URL)
	}
	a.scheduler = scheduler.NewScheduler(pipelines, cfg.Schedule, cfg.SourcePause, logger)

	return a, nil
}

// Close drains the enrichment queue, then releases the store and notifier.
func (a *app) Close(ctx context.Context) {
	if a.queue != nil {
		if err := a.queue.Shutdown(ctx); err != nil {
			a.logger.Warn("enrichment queue not fully drained", "error", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig) (recordStore, error) {
	switch cfg.Driver {
	case "postgres":
		s, err := store.NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	default:
		s, err := store.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", cfg.Path, err)
		}
		return s, nil
	}
}

func createFetcher(src config.SourceConfig, client *http.Client, renderer adapter.Renderer) model.CandidateFetcher {
	source := adapter.Source{
		Name:         src.Name,
		Organization: src.Organization,
		Selectors: adapter.Selectors{
			Listing: src.Selectors.Listing,
			Title:   src.Selectors.Title,
			Link:    src.Selectors.Link,
			PDF:     src.Selectors.PDF,
		},
	}
	if src.Kind == config.KindRendered {
		return adapter.NewRenderedAdapter(source, renderer)
	}
	return adapter.NewStaticAdapter(source, client)
}

func setupProvider(cfg config.AIConfig, logger *slog.Logger) ai.LLMProvider {
	if !cfg.Enabled {
		logger.Info("ai enrichment disabled, records keep fallback resources only")
		return ai.NewNopProvider()
	}
	client := &http.Client{Timeout: cfg.Timeout}
	logger.Info("ai enrichment enabled", "provider", cfg.Provider, "model", cfg.Model)
	if cfg.Provider == "openai" {
		return ai.NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, client)
	}
	return ai.NewGeminiProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, client)
}

func setupNotifier(ctx context.Context, cfg config.NotificationConfig, httpClient *http.Client, logger *slog.Logger) (model.Notifier, func() error, error) {
	switch cfg.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.WebhookURL, httpClient, logger), nil, nil
	case "redis":
		client, err := notifier.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis notifier", "channel", cfg.Channel)
		return notifier.NewRedisNotifier(client, cfg.Channel, logger), client.Close, nil
	default:
		return notifier.NewLogNotifier(logger), nil, nil
	}
}

// logSummary reports a finished run and its enrichment outcome.
func logSummary(logger *slog.Logger, summary scheduler.RunSummary, queue *enrich.Queue) {
	args := []any{
		"sources", len(summary.Results),
		"created", summary.Created(),
		"failed_sources", len(summary.Failed),
	}
	if queue != nil {
		st := queue.Stats()
		args = append(args, "enriched", st.Succeeded, "enrich_failed", st.Failed, "enrich_dropped", st.Dropped)
	}
	logger.Info("scrape complete", args...)
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
