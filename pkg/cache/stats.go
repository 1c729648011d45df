package cache

import "sync/atomic"

// Stats holds operation counters for a single tier of a namespace.
// Counters are operational visibility, not correctness: they are updated with
// relaxed atomics and a snapshot is not a consistent cut.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// NamespaceStats aggregates counters across tiers for one namespace.
type NamespaceStats struct {
	// Local is the in-process tier's view: every manager lookup that reached
	// L1 is counted here, plus evictions by capacity or expiry.
	Local Stats `json:"local"`

	// RemoteHits counts lookups served by the distributed tier.
	RemoteHits uint64 `json:"remote_hits"`

	// Loads counts loader invocations, i.e. misses on every tier.
	Loads uint64 `json:"loads"`
}

// counters is the mutable backing store for Stats.
type counters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
