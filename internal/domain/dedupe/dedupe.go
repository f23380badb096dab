// Package dedupe tracks idempotency keys so a retried submission resolves to
// the record stored the first time.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Status is the outcome of a Reserve call.
type Status int

const (
	// Reserved means the caller now owns the key and must Commit or Release it.
	Reserved Status = iota
	// Pending means another caller holds the key and has not committed yet.
	Pending
	// Committed means the key already resolved to a record id.
	Committed
)

// Deduper maps idempotency keys to stored record ids.
type Deduper interface {
	// Reserve atomically claims key. When the key is already committed the
	// stored record id is returned with Committed.
	Reserve(ctx context.Context, key string) (string, Status)

	// Commit binds a reserved key to the id of the record it produced.
	Commit(ctx context.Context, key, recordID string)

	// Release drops a reservation whose submission failed so it can be retried.
	// Committed keys are left alone.
	Release(ctx context.Context, key string)

	Size() int64
}

// node is one key in insertion order.
type node struct {
	key       string
	recordID  string
	committed bool
	prev      *node
	next      *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryDeduper keeps keys in a map plus a doubly linked list ordered by
// insertion. In bounded mode (maxSize > 0) the oldest committed key is
// evicted when the cache is full. Pending keys are never evicted, so the
// cache may briefly exceed maxSize while many submissions are in flight.
type inMemoryDeduper struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node // newest
	tail     *node // oldest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.entries = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return d
}

func (d *inMemoryDeduper) Reserve(_ context.Context, key string) (string, Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[key]; ok {
		if n.committed {
			return n.recordID, Committed
		}
		return "", Pending
	}

	d.insert(key)
	return "", Reserved
}

func (d *inMemoryDeduper) Commit(_ context.Context, key, recordID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.entries[key]
	if !ok {
		// released concurrently
		n = d.insert(key)
	}
	n.recordID = recordID
	n.committed = true
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.entries[key]
	if !ok || n.committed {
		return
	}
	d.remove(n)
}

func (d *inMemoryDeduper) lookup(key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.entries[key]
	if !ok || !n.committed {
		return "", false
	}
	return n.recordID, true
}

// Size returns the current number of tracked keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// insert adds key at the head, evicting committed keys from the tail while
// the cache is full. Must be called with d.mu held.
func (d *inMemoryDeduper) insert(key string) *node {
	for d.maxSize > 0 && len(d.entries) >= d.maxSize {
		victim := d.oldestCommitted()
		if victim == nil {
			break
		}
		d.remove(victim)
	}

	n := d.nodePool.Get().(*node)
	n.key = key
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}

	d.entries[key] = n
	d.size.Add(1)
	return n
}

// oldestCommitted walks from the tail to the first committed node.
func (d *inMemoryDeduper) oldestCommitted() *node {
	for n := d.tail; n != nil; n = n.prev {
		if n.committed {
			return n
		}
	}
	return nil
}

// remove unlinks n and returns it to the pool.
// Must be called with d.mu held.
func (d *inMemoryDeduper) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}

	delete(d.entries, n.key)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}
