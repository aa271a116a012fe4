package enrich

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amishk599/odishajobs/internal/model"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("enrichment queue shut down")

// Processor enriches one record by id.
type Processor interface {
	Enrich(ctx context.Context, id string) (model.JobRecord, error)
}

// Stats counts queue outcomes since start.
type Stats struct {
	Enqueued  int64
	Succeeded int64
	Failed    int64
	Dropped   int64
}

// Queue is a bounded worker pool running enrichment in the background.
type Queue struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan string
	wg   sync.WaitGroup
	once sync.Once

	// Senders hold mu for reading while they wait for a slot; Shutdown takes
	// it for writing before closing ch.
	mu     sync.RWMutex
	closed bool

	enqueued  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// Option configures a Queue.
type Option func(*Queue)

// WithWorkers sets the number of concurrent enrichment workers.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithQueueSize sets how many records can wait before Enqueue blocks.
func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan string, n)
		}
	}
}

// WithTimeout bounds the enrichment of a single record.
func WithTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewQueue creates a Queue and starts its workers.
func NewQueue(proc Processor, logger *slog.Logger, opts ...Option) *Queue {
	q := &Queue{
		proc:    proc,
		logger:  logger,
		workers: 2,
		timeout: 3 * time.Minute,
		ch:      make(chan string, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("enrichment worker started", "worker_id", workerID)

				for id := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					_, err := q.proc.Enrich(ctx, id)
					cancel()

					if err != nil {
						q.failed.Add(1)
						q.logger.Error("enrichment failed", "worker_id", workerID, "record_id", id, "error", err)
					} else {
						q.succeeded.Add(1)
					}
				}

				q.logger.Debug("enrichment worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue schedules rec for enrichment. When every slot is taken it waits
// for a worker to free one, or for ctx to end. It fails with ErrQueueClosed
// after Shutdown.
func (q *Queue) Enqueue(ctx context.Context, rec model.JobRecord) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return ErrQueueClosed
	}
	select {
	case q.ch <- rec.ID:
		q.enqueued.Add(1)
		q.logger.Debug("queued record for enrichment", "record_id", rec.ID, "title", rec.Title)
		return nil
	case <-ctx.Done():
		q.dropped.Add(1)
		return ctx.Err()
	}
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued:  q.enqueued.Load(),
		Succeeded: q.succeeded.Load(),
		Failed:    q.failed.Load(),
		Dropped:   q.dropped.Load(),
	}
}

// Shutdown stops accepting work and waits for queued records to finish or
// for ctx to end.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("enrichment shutdown interrupted", "stats", q.Stats())
		return ctx.Err()
	case <-done:
		q.logger.Info("enrichment queue drained", "stats", q.Stats())
		return nil
	}
}
