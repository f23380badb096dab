package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/pkg/metrics"
)

// DriverMemory keeps records in process memory.
const DriverMemory = "memory"

// MemoryStore is a map-backed Store. Records are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.Record
	closed  bool
	opts    options
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]model.Record),
		opts:    applyOptions(opts),
	}
}

func (s *MemoryStore) AppendRecord(ctx context.Context, rec model.Record) (id string, err error) {
	start := time.Now()
	defer func() { observeAppend(DriverMemory, start, err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	id = s.opts.newID()
	s.records[id] = rec
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		metrics.RecordErrorByComponent("repository_memory", "not_found")
		return model.Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close marks the store closed; later appends fail with ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
