package cache

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader computes a value on a full cache miss, typically by querying the
// source of truth. A nil result with a nil error means "no data": it is
// returned to the caller but never stored. Loader errors propagate verbatim
// and are never cached.
type Loader func(ctx context.Context) (any, error)

// namespace is one logical cache with its own policy, local tier, and counters.
// generation advances on every eviction; queued repopulation writes carry the
// generation they observed and are discarded once it moves, so an eviction can
// never be undone by a write that was already in flight.
type namespace struct {
	name       string
	policy     Policy
	local      *Memory
	generation atomic.Uint64
	remoteHits atomic.Uint64
	loads      atomic.Uint64
}

// repopTask is a best-effort distributed-tier write queued off the hot path.
type repopTask struct {
	ns    *namespace
	gen   uint64
	key   string
	value any
	ttl   time.Duration
}

// Manager is the composite cache: a local tier per namespace plus an optional
// shared distributed tier. Reads try the distributed tier first (shared
// entries win for cross-instance consistency), fall back to the local tier on
// any distributed failure, and finally coalesce loader calls per key.
//
// A distributed-tier failure is never a caller-visible error: a full outage
// degrades latency and cross-instance consistency, never correctness.
type Manager struct {
	registry   *Registry
	remote     *Remote
	opts       *managerOptions
	group      singleflight.Group
	repop      chan repopTask
	done       chan struct{}
	workers    sync.WaitGroup
	mu         sync.RWMutex
	namespaces map[string]*namespace
	closed     atomic.Bool
}

// New creates a composite cache manager. Namespaces declared in the registry
// get their tiers eagerly; unknown namespaces used at runtime fall back to a
// conservative default policy with a warning.
//
// Without [WithRemote] the manager runs local-only for the process lifetime.
func New(registry *Registry, opts ...Option) *Manager {
	o := defaultManagerOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Manager{
		registry:   registry,
		remote:     o.remote,
		opts:       o,
		repop:      make(chan repopTask, o.repopulateQueue),
		done:       make(chan struct{}),
		namespaces: make(map[string]*namespace),
	}

	for _, name := range registry.Names() {
		p, _ := registry.Policy(name)
		m.namespaces[name] = m.newNamespace(name, p)
	}

	if m.remote != nil {
		for i := 0; i < o.repopulateWorkers; i++ {
			m.workers.Add(1)
			go m.repopulateWorker()
		}
	}

	return m
}

func (m *Manager) newNamespace(name string, p Policy) *namespace {
	return &namespace{
		name:   name,
		policy: p,
		local: NewMemory(
			WithWriteTTL(p.LocalTTL),
			WithAccessTTL(p.LocalAccessTTL),
			WithMaxEntries(p.MaxEntries),
			WithMemorySweepInterval(m.opts.sweepInterval),
		),
	}
}

// lookup resolves a namespace, creating it with the conservative default
// policy when it was never registered.
func (m *Manager) lookup(name string) *namespace {
	m.mu.RLock()
	n, ok := m.namespaces[name]
	m.mu.RUnlock()
	if ok {
		return n
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.namespaces[name]; ok {
		return n
	}

	m.opts.log.Warn("unregistered cache namespace, using default policy",
		slog.String("namespace", name))

	n = m.newNamespace(name, defaultPolicy())
	m.namespaces[name] = n
	return n
}

// Get returns the cached value for (namespace, key), loading it on a full
// miss. Concurrent callers for the same key share one loader invocation.
func (m *Manager) Get(ctx context.Context, ns, key string, loader Loader) (any, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	n := m.lookup(ns)
	full := ns + ":" + key

	// Observed before any tier is read: a concurrent eviction advances it and
	// thereby cancels whatever this read schedules for the distributed tier.
	gen := n.generation.Load()

	// Distributed tier first: the shared entry wins so all instances agree.
	if m.remoteEnabled(n) {
		v, err := m.remote.Get(ctx, full)
		switch {
		case err == nil:
			n.remoteHits.Add(1)
			_ = n.local.Set(ctx, key, v)
			return v, nil
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnavailable):
			// fall through to the local tier
		default:
			// Undecodable entry, e.g. written by an incompatible deployment.
			// A miss on this tier, not an error for the caller. Drop it so
			// every read until the TTL lapses does not re-fetch and re-log it.
			m.opts.log.Warn("discarding undecodable remote cache entry",
				slog.String("namespace", ns),
				slog.String("key", key),
				slog.String("error", err.Error()))
			_ = m.remote.Delete(ctx, full)
		}
	}

	if v, err := n.local.Get(ctx, key); err == nil {
		// Repair the distributed tier off the hot path: it missed due to
		// eviction or a lost write while this instance still has the value.
		m.scheduleRepopulate(n, gen, full, v)
		return v, nil
	}

	// Both tiers missed: one loader call per key, shared by all waiters.
	v, err, _ := m.group.Do(full, func() (any, error) {
		// The leader's result may be awaited by other callers, so the loader
		// outlives the leader's own request context.
		lctx := context.WithoutCancel(ctx)

		if v, err := n.local.Get(lctx, key); err == nil {
			return v, nil
		}

		v, err := loader(lctx)
		if err != nil {
			return nil, err
		}
		n.loads.Add(1)

		if isNil(v) {
			// "No data" is represented by a miss, never by a stored entry.
			return nil, nil
		}

		_ = n.local.Set(lctx, key, v)
		m.scheduleRepopulate(n, gen, full, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Refresh loads a value and writes it through both tiers unconditionally,
// bypassing reads. Used by cache warming to renew hot entries before expiry.
// A nil loader result evicts the key instead.
func (m *Manager) Refresh(ctx context.Context, ns, key string, loader Loader) (any, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	n := m.lookup(ns)

	v, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	n.loads.Add(1)

	if isNil(v) {
		return nil, m.Evict(ctx, ns, key)
	}

	// Queued repopulation writes predate this refresh; invalidate them so an
	// older value cannot land on top of the new one.
	n.generation.Add(1)

	_ = n.local.Set(ctx, key, v)
	if m.remoteConfigured(n) {
		if err := m.remote.Set(ctx, ns+":"+key, v, n.policy.RemoteTTL); err != nil {
			m.logRemoteWriteFailure(ns, key, err)
		}
	}

	return v, nil
}

// Evict invalidates (namespace, key) in both tiers. Clearing only the local
// tier would let the next local miss re-serve stale data from the shared one.
func (m *Manager) Evict(ctx context.Context, ns, key string) error {
	if m.closed.Load() {
		return ErrClosed
	}

	n := m.lookup(ns)
	n.generation.Add(1)
	_ = n.local.Delete(ctx, key)

	if m.remoteConfigured(n) {
		if err := m.remote.Delete(ctx, ns+":"+key); err != nil {
			// Never surfaced: the cool-down plus the remote TTL bound the
			// stale window when the shared tier cannot be reached.
			m.logRemoteWriteFailure(ns, key, err)
		}
	}

	return nil
}

// EvictAll invalidates every entry of a namespace in both tiers.
func (m *Manager) EvictAll(ctx context.Context, ns string) error {
	if m.closed.Load() {
		return ErrClosed
	}

	n := m.lookup(ns)
	n.generation.Add(1)
	_ = n.local.Clear(ctx)

	if m.remoteConfigured(n) {
		if err := m.remote.DeletePrefix(ctx, ns+":"); err != nil {
			m.logRemoteWriteFailure(ns, "*", err)
		}
	}

	return nil
}

// Reset clears every namespace in both tiers. Maintenance operation; caches
// rebuild on demand.
func (m *Manager) Reset(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}

	m.mu.RLock()
	names := make([]string, 0, len(m.namespaces))
	for name := range m.namespaces {
		names = append(names, name)
	}
	m.mu.RUnlock()

	for _, name := range names {
		if err := m.EvictAll(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns per-namespace counters for operational visibility.
func (m *Manager) Stats() map[string]NamespaceStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]NamespaceStats, len(m.namespaces))
	for name, n := range m.namespaces {
		out[name] = NamespaceStats{
			Local:      n.local.Stats(),
			RemoteHits: n.remoteHits.Load(),
			Loads:      n.loads.Load(),
		}
	}
	return out
}

// RemoteState reports the distributed tier's health. RemoteDisabled is
// permanent for the process lifetime when no tier was configured.
func (m *Manager) RemoteState() RemoteState {
	if m.remote == nil {
		return RemoteDisabled
	}
	return m.remote.State()
}

// Healthcheck returns a readiness probe for the distributed tier. A local-only
// manager always reports healthy: the cache serves without the shared tier.
func (m *Manager) Healthcheck() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if m.remote == nil {
			return nil
		}
		return m.remote.Ping(ctx)
	}
}

// Close stops the repopulation workers and closes every local tier.
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(m.done)
	m.workers.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.namespaces {
		_ = n.local.Close()
	}
	return nil
}

// remoteConfigured reports whether the namespace may use the distributed
// tier at all, regardless of its current health.
func (m *Manager) remoteConfigured(n *namespace) bool {
	return m.remote != nil && n.policy.Remote
}

// remoteEnabled additionally requires the tier to be outside its cool-down.
func (m *Manager) remoteEnabled(n *namespace) bool {
	return m.remoteConfigured(n) && m.remote.Available()
}

// scheduleRepopulate queues a best-effort distributed-tier write. The queue
// is bounded and drop-on-full: population never blocks a caller and never
// grows without bound. gen is the namespace generation the caller observed
// before reading the value; a later eviction invalidates the task.
func (m *Manager) scheduleRepopulate(n *namespace, gen uint64, fullKey string, value any) {
	if !m.remoteEnabled(n) {
		return
	}

	select {
	case m.repop <- repopTask{ns: n, gen: gen, key: fullKey, value: value, ttl: n.policy.RemoteTTL}:
	default:
		m.opts.log.Debug("repopulation queue full, dropping write",
			slog.String("key", fullKey))
	}
}

func (m *Manager) repopulateWorker() {
	defer m.workers.Done()

	for {
		select {
		case <-m.done:
			return
		case t := <-m.repop:
			if t.ns.generation.Load() != t.gen {
				continue // evicted after this write was queued
			}

			ctx, cancel := context.WithTimeout(context.Background(), m.opts.repopulateTimeout)
			err := m.remote.Set(ctx, t.key, t.value, t.ttl)
			if err == nil && t.ns.generation.Load() != t.gen {
				// An eviction raced the write: undo it, otherwise the next
				// local miss anywhere would resurrect the stale value.
				err = m.remote.Delete(ctx, t.key)
			}
			if err != nil {
				m.opts.log.Debug("remote repopulation failed",
					slog.String("key", t.key),
					slog.String("error", err.Error()))
			}
			cancel()
		}
	}
}

func (m *Manager) logRemoteWriteFailure(ns, key string, err error) {
	m.opts.log.Warn("remote cache write failed",
		slog.String("namespace", ns),
		slog.String("key", key),
		slog.String("error", err.Error()))
}

// isNil reports whether the loader result represents "no data", covering
// typed nil pointers, maps, and slices boxed in a non-nil interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
