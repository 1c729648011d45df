// Package tiercache is the composition root for the multi-tier cache: it
// assembles the namespace policy table, the value codec, an optional shared
// Redis tier, and the composite manager behind a single constructor.
//
// The heavy lifting lives in the sub-packages:
//
//   - pkg/cache: local LRU tier, distributed Redis tier, composite manager,
//     policy table, cache warming
//   - pkg/cachekey: deterministic, injection-safe cache key construction
//   - pkg/cachecodec: allow-list envelope codec for values crossing the wire
//   - pkg/redis, pkg/db: connection helpers for the shared tier and the
//     source-of-truth database
//   - pkg/logger, pkg/health: structured logging and probe handlers
//
// Use the root package when the defaults fit:
//
//	mgr, err := tiercache.New(ctx, tiercache.WithRedisURL(redisURL))
//	if err != nil {
//	    return err
//	}
//	defer mgr.Close()
//
//	price, err := cache.Get(ctx, mgr, "products", cachekey.Build("products.byID", id), loadProduct)
//
// Wire the sub-packages directly when you need custom policies, codecs, or
// warming schedules; the example/ application shows the full setup.
package tiercache
