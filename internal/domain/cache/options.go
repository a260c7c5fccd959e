package cache

import "time"

// Option configures a Memory store.
type Option func(*Memory)

// WithMaxEntries bounds the store, evicting the least recently used entry when
// full. Zero or negative means unbounded.
func WithMaxEntries(n int) Option {
	return func(m *Memory) {
		m.maxEntries = n
	}
}

// WithClock sets the clock used to stamp entries without ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}
