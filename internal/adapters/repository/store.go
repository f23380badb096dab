// Package repository persists screening records.
package repository

import (
	"context"
	"time"

	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/pkg/metrics"
)

// Appender is the single-method persistence collaborator the screening
// pipeline hands finished records to.
type Appender interface {
	// AppendRecord stores rec and returns its opaque storage id. Failures are
	// returned as-is; nothing is retried and nothing is partially written.
	AppendRecord(ctx context.Context, rec model.Record) (string, error)
}

// Store adds read access and lifecycle to an Appender.
type Store interface {
	Appender

	// Get returns the record stored under id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (model.Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	// Close releases any files or connections held by the store.
	Close() error
}

// observeAppend records latency and outcome of one append.
func observeAppend(driver string, start time.Time, err error) {
	metrics.RecordStoreAppendLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordStoreError()
		metrics.RecordErrorByComponent("repository_"+driver, "append_failed")
	}
}
