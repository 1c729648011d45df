// Package cache implements a resilient multi-tier read-through cache: a
// bounded in-process tier (L1) per namespace, an optional shared Redis tier
// (L2), and a composite [Manager] that orchestrates them around
// caller-supplied loader functions.
//
// # Read path
//
// [Manager.Get] tries the distributed tier first (a shared entry wins so all
// instances agree), falls back to the local tier on a miss or any
// distributed failure, and finally invokes the loader, exactly once per key
// even under concurrent callers, via singleflight:
//
//	val, err := cache.Get(ctx, mgr, "products", cachekey.Build("products.byID", id),
//	    func(ctx context.Context) (ProductResponse, error) {
//	        return store.ProductByID(ctx, id)
//	    })
//
// Loader errors propagate verbatim and are never cached. A nil loader result
// means "no data" and is returned without being stored.
//
// # Namespaces and policies
//
// Every namespace carries one freshness [Policy]: local write/access TTLs, a
// distributed TTL (always ≥ the local one), and a size bound. Policies are
// grouped by volatility [Class] and registered once at startup in a
// [Registry], built in code via [DefaultRegistry]/[Registry.Register] or
// loaded from YAML via [LoadRegistry]. Contradictory policies fail
// registration, before the process accepts traffic. Unregistered namespaces
// used at runtime get a conservative default, never uncached or unbounded.
//
// # Degradation
//
// The distributed tier is failure-transparent. Any network, timeout, or
// protocol error opens a cool-down window during which the tier is skipped,
// and the operation falls back to the local tier or the loader; callers
// never see an error caused solely by the distributed tier being down.
// Writes to the distributed tier after a load happen off the hot path
// through a bounded, drop-on-full queue. Undecodable entries (after an
// incompatible deployment, say) count as a miss on that tier.
//
// # Invalidation
//
// [Manager.Evict] and [Manager.EvictAll] clear both tiers; clearing only the
// local one would let the next local miss re-serve stale data from the
// shared tier.
//
// # Operations
//
// [Manager.Stats] exposes per-namespace hit/miss/eviction/load counters and
// [Manager.RemoteState] the distributed tier's health. [Warmer] refreshes
// hot entries on a cron schedule before they expire.
package cache
