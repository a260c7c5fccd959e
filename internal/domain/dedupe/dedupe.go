// Package dedupe remembers change-event ids so redelivered notifications are
// applied at most once.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 50000

// Deduper records seen event ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool
	// Unrecord forgets id so a failed event can be retried.
	Unrecord(ctx context.Context, id string)
	// Size returns the number of remembered ids.
	Size() int64
}

// Ring is an in-memory Deduper with first-in first-out eviction.
type Ring struct {
	mu      sync.Mutex
	seen    map[string]int // id -> slot in ids, -1 when unbounded
	ids     []string       // circular buffer of recorded ids; "" marks a freed slot
	next    int
	maxSize int
}

var _ Deduper = (*Ring)(nil)

// NewRing creates a deduper. The default bound is 50000 ids.
func NewRing(opts ...Option) *Ring {
	d := &Ring{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ids = make([]string, d.maxSize)
	}
	return d
}

// SeenAndRecord reports whether id was already seen and records it if not.
func (d *Ring) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[id] = -1
		return false
	}

	if old := d.ids[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ids[d.next] = id
	d.seen[id] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

// Unrecord forgets id.
func (d *Ring) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		d.ids[slot] = ""
	}
}

// Size returns the number of remembered ids.
func (d *Ring) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
