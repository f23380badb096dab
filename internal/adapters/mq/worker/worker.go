// Package worker runs the escalation pool that hands high-risk screenings to
// follow-up.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/pkg/logger"
	"github.com/okian/wellscreen/pkg/metrics"
)

const (
	poolShutdownTimeout = 30 * time.Second
)

// Escalator delivers one escalation to whoever follows up on it.
type Escalator interface {
	Escalate(ctx context.Context, e model.Escalation) error
}

// EscalatorFunc adapts a function to Escalator.
type EscalatorFunc func(ctx context.Context, e model.Escalation) error

func (f EscalatorFunc) Escalate(ctx context.Context, e model.Escalation) error {
	return f(ctx, e)
}

// Queue defines how workers receive escalations.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Escalation
	Len(ctx context.Context) int
}

// Worker consumes escalations until its queue closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker hands queued escalations to an Escalator.
type InMemoryWorker struct {
	queue     Queue
	escalator Escalator
	name      string

	processed *atomic.Int64
	failed    *atomic.Int64

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, escalator Escalator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		escalator: escalator,
		name:      "worker",
		processed: new(atomic.Int64),
		failed:    new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "escalation failed",
					logger.String("record_id", e.RecordID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker after the escalation in flight, if any.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, e model.Escalation) error {
	metrics.UpdateQueueSize(w.queue.Len(ctx))

	if err := w.escalator.Escalate(ctx, e); err != nil {
		w.failed.Add(1)
		metrics.RecordEscalationError()
		metrics.RecordErrorByComponent("worker", "escalation_error")
		return fmt.Errorf("escalate record %s: %w", e.RecordID, err)
	}

	w.processed.Add(1)
	var latencyMs float64
	if !e.EnqueuedAt.IsZero() {
		latencyMs = float64(time.Since(e.EnqueuedAt).Microseconds()) / 1000
	}
	metrics.RecordEscalationHandled(latencyMs)
	return nil
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64
	failed    atomic.Int64

	stopOnce sync.Once
	shutdown chan struct{}
	logger   logger.Logger
}

// NewPool creates a worker pool. A workerCount below 1 uses runtime.NumCPU().
func NewPool(workerCount int, queue Queue, escalator Escalator) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		w := NewInMemoryWorker(queue, escalator, WithName("worker-"+strconv.Itoa(i)))
		w.processed, w.failed = &p.processed, &p.failed
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			metrics.UpdateQueueSize(p.queue.Len(ctx))
		}
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns how many escalations were delivered successfully.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Failed returns how many escalations the Escalator rejected.
func (p *Pool) Failed() int64 {
	return p.failed.Load()
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// busy when ctx or the pool timeout expires are stopped without draining.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.stopOnce.Do(func() { close(p.shutdown) })

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.stop()
		}
	}

	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool drain: %w", drainCtx.Err())
	}
	return nil
}
