package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/odishajobs/internal/model"
	"github.com/amishk599/odishajobs/internal/pipeline"
)

// RunSummary describes one full pass over every source.
type RunSummary struct {
	Results  []pipeline.Result
	Failed   []string // sources whose listing could not be fetched
	Started  time.Time
	Finished time.Time
}

// Created returns the number of records created across all sources.
func (r RunSummary) Created() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Created)
	}
	return n
}

// Scheduler drives source pipelines on a cron schedule or on demand.
// At most one run (scheduled or manual) executes at a time.
type Scheduler struct {
	sources []*pipeline.SourcePipeline
	spec    string
	pause   time.Duration
	running atomic.Bool
	logger  *slog.Logger
}

// NewScheduler creates a scheduler firing on spec (a cron expression or
// "@every <duration>"). pause is the delay between consecutive sources.
func NewScheduler(sources []*pipeline.SourcePipeline, spec string, pause time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sources: sources,
		spec:    spec,
		pause:   pause,
		logger:  logger,
	}
}

// ValidateSpec reports whether spec is a schedule the scheduler accepts.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Sources returns the configured source names in run order.
func (s *Scheduler) Sources() []string {
	names := make([]string, 0, len(s.sources))
	for _, p := range s.sources {
		names = append(names, p.Name)
	}
	return names
}

// Run runs one immediate pass, then fires on the schedule until ctx is
// cancelled. It returns nil on graceful shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLogger(cronLogger{logger: s.logger}))
	if _, err := c.AddFunc(s.spec, func() { s.fire(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", "schedule", s.spec, "sources", len(s.sources))
	c.Start()

	s.fire(ctx)

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunAll(ctx); errors.Is(err, model.ErrRunInProgress) {
		s.logger.Warn("skipping scheduled run, previous run still in progress")
	}
}

// RunAll runs every source sequentially. A failing source is logged and the
// loop continues. It fails with model.ErrRunInProgress while another run holds
// the lock.
func (s *Scheduler) RunAll(ctx context.Context) (RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return RunSummary{}, model.ErrRunInProgress
	}
	defer s.running.Store(false)

	summary := RunSummary{Started: time.Now()}
	s.logger.Info("run started", "sources", len(s.sources))

	for i, p := range s.sources {
		if ctx.Err() != nil {
			break
		}

		res, err := p.Run(ctx)
		summary.Results = append(summary.Results, res)
		if err != nil {
			summary.Failed = append(summary.Failed, p.Name)
			s.logger.Error("source run failed", "source", p.Name, "error", err)
		}

		if i < len(s.sources)-1 && s.pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.pause):
			}
		}
	}

	summary.Finished = time.Now()
	s.logger.Info("run finished",
		"created", summary.Created(),
		"failed_sources", len(summary.Failed),
		"duration", summary.Finished.Sub(summary.Started).Round(time.Millisecond),
	)
	return summary, ctx.Err()
}

// RunOne runs the named source under the same lock as RunAll.
func (s *Scheduler) RunOne(ctx context.Context, name string) (pipeline.Result, error) {
	p, err := s.lookup(name)
	if err != nil {
		return pipeline.Result{}, err
	}
	if !s.running.CompareAndSwap(false, true) {
		return pipeline.Result{}, model.ErrRunInProgress
	}
	defer s.running.Store(false)

	return p.Run(ctx)
}

// TestSource fetches the named source's candidates without persisting
// anything. It does not take the run lock.
func (s *Scheduler) TestSource(ctx context.Context, name string) ([]model.Candidate, error) {
	p, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return p.Candidates(ctx)
}

func (s *Scheduler) lookup(name string) (*pipeline.SourcePipeline, error) {
	for _, p := range s.sources {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnknownSource, name)
}
