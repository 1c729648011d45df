// Package redis opens go-redis clients tuned for use as a cache tier.
//
// This package wraps [github.com/redis/go-redis/v9] with connection pooling,
// startup retry, health checks, and graceful shutdown. The defaults assume
// the client fronts a cache, not a primary store: dial and command timeouts
// are aggressive (500ms dial, 1s commands) so a slow or unreachable server
// fails fast and lets the caller fall back to a local tier or the database.
//
// # Usage
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"),
//	    redis.WithPoolSize(50),
//	)
//	if err != nil {
//	    // run local-only: the cache degrades, the service keeps serving
//	}
//
// [Healthcheck] returns a probe for readiness endpoints and [Shutdown] a
// closure for shutdown-hook registries.
//
// # Error Handling
//
// Sentinel errors cover the failure modes: [ErrEmptyConnectionURL],
// [ErrFailedToParseURL], [ErrConnectionFailed], [ErrHealthcheckFailed].
// Causes are attached with [errors.Join].
package redis
