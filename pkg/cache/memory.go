package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// entry holds a cached value with its write and last-access timestamps.
type entry struct {
	value      any
	writtenAt  time.Time
	accessedAt time.Time
	key        string
}

// Memory is the in-process cache tier: a bounded LRU with dual expiry.
// An entry becomes invisible once either its write TTL or its access TTL has
// elapsed, even if it has not been physically evicted yet. Expiry is checked
// exactly on every access and swept eagerly by a low-frequency janitor.
//
// All operations are O(1) amortized and never touch the network.
type Memory struct {
	items    map[string]*list.Element
	eviction *list.List
	opts     *memoryOptions
	stats    counters
	done     chan struct{}
	mu       sync.Mutex
	closed   bool
}

// NewMemory creates an in-process cache tier.
//
// Example:
//
//	m := cache.NewMemory(
//	    cache.WithWriteTTL(5 * time.Minute),
//	    cache.WithAccessTTL(10 * time.Minute),
//	    cache.WithMaxEntries(10000),
//	)
//	defer m.Close()
func NewMemory(opts ...MemoryOption) *Memory {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory{
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		opts:     o,
		done:     make(chan struct{}),
	}

	if o.sweepInterval > 0 {
		go m.janitor()
	}

	return m
}

// expired reports whether the entry has crossed either expiry threshold.
func (m *Memory) expired(e *entry, now time.Time) bool {
	if m.opts.writeTTL > 0 && now.After(e.writtenAt.Add(m.opts.writeTTL)) {
		return true
	}
	if m.opts.accessTTL > 0 && now.After(e.accessedAt.Add(m.opts.accessTTL)) {
		return true
	}
	return false
}

// Get retrieves a value by key. Returns ErrNotFound if the key does not
// exist or has expired. Access refreshes the entry's access timestamp and
// LRU position.
func (m *Memory) Get(_ context.Context, key string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		m.stats.misses.Add(1)
		return nil, ErrNotFound
	}

	e := elem.Value.(*entry)
	now := time.Now()

	if m.expired(e, now) {
		m.removeElement(elem, true)
		m.stats.misses.Add(1)
		return nil, ErrNotFound
	}

	e.accessedAt = now
	m.eviction.MoveToFront(elem)
	m.stats.hits.Add(1)

	return e.value, nil
}

// Set stores a value. TTLs come from the tier's configuration, not per call:
// a namespace has one freshness policy for all its entries.
func (m *Memory) Set(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	now := time.Now()

	if elem, ok := m.items[key]; ok {
		e := elem.Value.(*entry)
		e.value = value
		e.writtenAt = now
		e.accessedAt = now
		m.eviction.MoveToFront(elem)
		return nil
	}

	if m.opts.maxEntries > 0 && len(m.items) >= m.opts.maxEntries {
		m.evictOldest()
	}

	e := &entry{key: key, value: value, writtenAt: now, accessedAt: now}
	m.items[key] = m.eviction.PushFront(e)

	return nil
}

// Delete removes a key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if elem, ok := m.items[key]; ok {
		m.removeElement(elem, false)
	}

	return nil
}

// Clear removes all entries.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.items = make(map[string]*list.Element)
	m.eviction.Init()

	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Stats returns a snapshot of the tier's counters.
func (m *Memory) Stats() Stats {
	return m.stats.snapshot()
}

// Close stops the janitor goroutine and marks the tier closed. Idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)

	return nil
}

// janitor periodically sweeps expired entries so memory is reclaimed even
// for keys that are never read again.
func (m *Memory) janitor() {
	ticker := time.NewTicker(m.opts.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep removes expired entries from the cold end of the LRU list.
func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for elem := m.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if m.expired(elem.Value.(*entry), now) {
			m.removeElement(elem, true)
		}
		elem = prev
	}
}

// evictOldest removes the least recently used entry. Caller holds the mutex.
func (m *Memory) evictOldest() {
	if elem := m.eviction.Back(); elem != nil {
		m.removeElement(elem, true)
	}
}

// removeElement unlinks one element. Caller holds the mutex. evicted marks
// removals by capacity or expiry, which feed the eviction counter; manual
// deletes do not.
func (m *Memory) removeElement(elem *list.Element, evicted bool) {
	m.eviction.Remove(elem)
	e := elem.Value.(*entry)
	delete(m.items, e.key)

	if evicted {
		m.stats.evictions.Add(1)
	}
}
