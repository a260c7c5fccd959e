package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/okian/pawmatch/pkg/metrics"
)

type lruItem struct {
	key   Key
	entry Entry
}

// Memory is an in-process Store. It is unbounded unless WithMaxEntries is set.
type Memory struct {
	mu         sync.Mutex
	items      map[Key]*list.Element
	order      *list.List // front is most recently used
	maxEntries int
	now        func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		items: make(map[Key]*list.Element),
		order: list.New(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the entry for key.
func (m *Memory) Get(_ context.Context, key Key) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return Entry{}, false, nil
	}
	if m.maxEntries > 0 {
		m.order.MoveToFront(el)
	}
	return el.Value.(*lruItem).entry, true, nil
}

// Put stores e under key, replacing any previous entry.
func (m *Memory) Put(_ context.Context, key Key, e Entry) error {
	if e.ComputedAt.IsZero() {
		e.ComputedAt = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		el.Value.(*lruItem).entry = e
		m.order.MoveToFront(el)
		metrics.UpdateCacheEntries(len(m.items))
		return nil
	}

	m.items[key] = m.order.PushFront(&lruItem{key: key, entry: e})
	if m.maxEntries > 0 {
		for len(m.items) > m.maxEntries {
			oldest := m.order.Back()
			m.order.Remove(oldest)
			delete(m.items, oldest.Value.(*lruItem).key)
		}
	}
	metrics.UpdateCacheEntries(len(m.items))
	return nil
}

// Invalidate removes the entry for key. Missing keys are ignored.
func (m *Memory) Invalidate(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		m.order.Remove(el)
		delete(m.items, key)
	}
	metrics.UpdateCacheEntries(len(m.items))
	return nil
}

// InvalidateUser drops every entry belonging to userID.
func (m *Memory) InvalidateUser(_ context.Context, userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, el := range m.items {
		if k.UserID == userID {
			m.order.Remove(el)
			delete(m.items, k)
			n++
		}
	}
	metrics.UpdateCacheEntries(len(m.items))
	return n
}

// Len reports the number of entries.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}
