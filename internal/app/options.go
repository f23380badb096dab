package service

import (
	"time"

	"github.com/okian/wellscreen/internal/adapters/mq/worker"
	"github.com/okian/wellscreen/internal/adapters/repository"
	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/internal/domain/scoring"
	"github.com/okian/wellscreen/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of escalation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the escalation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore injects a ready-made store. It takes precedence over WithStoreDriver.
// The service closes it on Stop, so a service built with WithStore cannot be
// restarted; one using WithStoreDriver reopens its store on Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreDriver selects the store opened on Start.
func WithStoreDriver(driver, path string) Option {
	return func(s *Service) {
		s.storeDriver = driver
		s.storePath = path
	}
}

// WithWeights overrides the scoring weights. Invalid weights are ignored.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.pipelineOpts = append(s.pipelineOpts, scoring.WithWeights(w))
	}
}

// WithMinEscalationTier sets the lowest tier handed to the escalation workers.
func WithMinEscalationTier(tier model.Tier) Option {
	return func(s *Service) {
		if tier.Valid() {
			s.minEscalationTier = tier
		}
	}
}

// WithEscalator replaces the default log escalator.
func WithEscalator(e worker.Escalator) Option {
	return func(s *Service) {
		if e != nil {
			s.escalator = e
		}
	}
}

// WithClock sets the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
