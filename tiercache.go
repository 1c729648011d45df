package tiercache

import (
	"context"
	"log/slog"

	"github.com/eshopkit/tiercache/pkg/cache"
	"github.com/eshopkit/tiercache/pkg/cachecodec"
	"github.com/eshopkit/tiercache/pkg/logger"
	"github.com/eshopkit/tiercache/pkg/redis"
)

// New assembles a ready-to-use cache manager from one call: codec registry,
// namespace policies, and optionally a shared Redis tier.
//
//	mgr, err := tiercache.New(ctx,
//	    tiercache.WithRedisURL(os.Getenv("REDIS_URL")),
//	    tiercache.WithCodec(codec),
//	    tiercache.WithLogger(log),
//	)
//
// When a Redis URL is configured but unreachable at startup, New degrades to
// a local-only manager and logs a warning instead of failing, the same
// contract the manager itself applies to runtime outages. Use
// [WithRequireRemote] to make an unreachable Redis a startup error instead.
func New(ctx context.Context, opts ...Option) (*cache.Manager, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	mgrOpts := []cache.Option{cache.WithLogger(o.log)}

	if o.redisURL != "" {
		client, err := redis.Open(ctx, o.redisURL, o.redisOpts...)
		if err != nil {
			if o.requireRemote {
				return nil, err
			}
			o.log.Warn("redis unavailable, running local-only cache",
				slog.String("error", err.Error()))
		} else {
			remoteOpts := []cache.RemoteOption{cache.WithRemoteLogger(o.log)}
			if o.keyPrefix != "" {
				remoteOpts = append(remoteOpts, cache.WithRemotePrefix(o.keyPrefix))
			}
			mgrOpts = append(mgrOpts, cache.WithRemote(cache.NewRemote(client, o.codec, remoteOpts...)))
		}
	}

	return cache.New(o.registry, mgrOpts...), nil
}

type options struct {
	registry      *cache.Registry
	codec         *cachecodec.Registry
	log           *slog.Logger
	redisURL      string
	redisOpts     []redis.Option
	keyPrefix     string
	requireRemote bool
}

func defaultOptions() *options {
	return &options{
		registry: cache.DefaultRegistry(),
		codec:    cachecodec.NewRegistry(),
		log:      logger.NewNope(),
	}
}

// Option configures the assembled manager.
type Option func(*options)

// WithRegistry sets the namespace policy table. Default: [cache.DefaultRegistry].
func WithRegistry(r *cache.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithCodec sets the value codec registry used by the distributed tier.
// Register application transfer objects on it before passing it in.
// Default: the primitive-only registry.
func WithCodec(c *cachecodec.Registry) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger for all cache components. Default: discard.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRedisURL enables the distributed tier. An empty URL keeps the manager
// local-only.
func WithRedisURL(url string, opts ...redis.Option) Option {
	return func(o *options) {
		o.redisURL = url
		o.redisOpts = opts
	}
}

// WithKeyPrefix namespaces all distributed-tier keys, so several applications
// can share one Redis without collisions.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithRequireRemote makes an unreachable Redis a startup error instead of a
// local-only fallback.
func WithRequireRemote() Option {
	return func(o *options) {
		o.requireRemote = true
	}
}
