// Package service wires the scoring pipeline to storage, idempotency and
// escalation, and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/wellscreen/internal/adapters/mq/queue"
	"github.com/okian/wellscreen/internal/adapters/mq/worker"
	"github.com/okian/wellscreen/internal/adapters/repository"
	"github.com/okian/wellscreen/internal/domain/dedupe"
	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/internal/domain/scoring"
	"github.com/okian/wellscreen/internal/domain/types"
	"github.com/okian/wellscreen/pkg/logger"
	"github.com/okian/wellscreen/pkg/metrics"
)

const stopTimeout = 30 * time.Second

// Receipt is what a caller gets back for a submission.
type Receipt = types.Receipt

// Service scores, stores and escalates screening submissions.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	pipeline  *scoring.Pipeline
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	escalator worker.Escalator

	// Configuration
	storeDriver       string
	storePath         string
	workerCount       int
	queueSize         int
	dedupeSize        int
	minEscalationTier model.Tier
	pipelineOpts      []scoring.Option
	now               func() time.Time

	// State
	started   bool
	ownsStore bool
	cancel    context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeDriver:       repository.DriverMemory,
		workerCount:       runtime.NumCPU(),
		queueSize:         1024,
		dedupeSize:        50000,
		minEscalationTier: model.TierHigh,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and starts the escalation workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting screening service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.storeDriver, s.storePath)
		if err != nil {
			return fmt.Errorf("open %s store: %w", s.storeDriver, err)
		}
		s.store = store
		s.ownsStore = true
	}
	s.logger.Info(ctx, "store ready",
		logger.String("driver", s.storeDriver),
		logger.Int("records", s.store.Count(ctx)),
	)

	s.pipeline = scoring.NewPipeline(s.pipelineOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	if s.escalator == nil {
		s.escalator = worker.NewLogEscalator(s.logger.Named("escalation"))
	}

	// Workers outlive the start request; Stop cancels them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.queue, s.escalator)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "screening service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("minEscalationTier", int(s.minEscalationTier)),
	)
	return nil
}

// Stop drains the escalation queue and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping screening service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "escalation workers did not drain", logger.Error(err))
	}
	s.cancel()

	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	if s.ownsStore {
		// reopened by the next Start
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "screening service stopped")
}

// Submit scores a submission, stores the record and escalates it when its
// tier calls for follow-up. A repeated idempotency key returns the record
// stored the first time. Store failures are returned unchanged.
func (s *Service) Submit(ctx context.Context, subjectID, idempotencyKey string, sub model.Submission) (Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return Receipt{}, ErrNotStarted
	}

	if idempotencyKey != "" {
		id, status := s.deduper.Reserve(ctx, idempotencyKey)
		switch status {
		case dedupe.Committed:
			return s.replay(ctx, id)
		case dedupe.Pending:
			metrics.RecordErrorByComponent("service", "submission_in_flight")
			return Receipt{}, ErrSubmissionInFlight
		case dedupe.Reserved:
		}
	}

	start := time.Now()
	out := s.pipeline.Score(sub)
	metrics.RecordPipelineLatency(float64(time.Since(start).Microseconds()) / 1000)

	rec := scoring.Assemble(sub, out, model.Identity(subjectID), s.now())

	id, err := s.store.AppendRecord(ctx, rec)
	if err != nil {
		if idempotencyKey != "" {
			s.deduper.Release(ctx, idempotencyKey)
		}
		s.logger.Error(ctx, "failed to store screening",
			logger.Int("tier", int(rec.Tier)),
			logger.Error(err),
		)
		return Receipt{}, err
	}
	if idempotencyKey != "" {
		s.deduper.Commit(ctx, idempotencyKey, id)
		metrics.UpdateDedupeSize(s.deduper.Size())
	}

	metrics.RecordSubmission(int(rec.Tier), rec.TierRule, rec.WellnessScore, rec.EmergencyFlag)
	s.logger.Debug(ctx, "screening stored",
		logger.String("id", id),
		logger.Int("tier", int(rec.Tier)),
		logger.String("tierRule", rec.TierRule),
		logger.Int("wellnessScore", rec.WellnessScore),
	)

	if rec.Tier >= s.minEscalationTier {
		s.escalate(ctx, id, &rec)
	}

	return Receipt{ID: id, Record: rec}, nil
}

// replay answers a repeated idempotency key with the stored record.
func (s *Service) replay(ctx context.Context, id string) (Receipt, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Receipt{}, err
	}
	metrics.RecordDuplicate()
	return Receipt{ID: id, Record: rec, Duplicate: true}, nil
}

// escalate queues a stored record for follow-up. A full or closed queue is
// logged and counted; the submission itself has already succeeded.
func (s *Service) escalate(ctx context.Context, id string, rec *model.Record) {
	e := model.NewEscalation(id, rec, s.now())
	if err := s.queue.Enqueue(context.WithoutCancel(ctx), e); err != nil {
		metrics.RecordEscalationDropped()
		s.logger.Warn(ctx, "escalation dropped",
			logger.String("id", id),
			logger.Int("tier", int(rec.Tier)),
			logger.String("tierRule", rec.TierRule),
			logger.Error(err),
		)
		return
	}
	metrics.RecordEscalationEnqueued()
}

// Get returns a stored record by id.
func (s *Service) Get(ctx context.Context, id string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Record{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"storeDriver":       s.storeDriver,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"dedupeSize":        s.dedupeSize,
		"minEscalationTier": int(s.minEscalationTier),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		records := s.store.Count(ctx)
		keys := s.deduper.Size()

		stats["queueSize"] = s.queue.Capacity()
		stats["queueLength"] = queueLen
		stats["weights"] = s.pipeline.Weights()
		stats["storedRecords"] = records
		stats["idempotencyKeys"] = keys
		stats["escalationsHandled"] = s.pool.Processed()
		stats["escalationsFailed"] = s.pool.Failed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoredRecords(records)
		metrics.UpdateDedupeSize(keys)
	}

	return stats
}
