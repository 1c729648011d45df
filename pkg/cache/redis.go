package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eshopkit/tiercache/pkg/cachecodec"
)

// Remote is the distributed cache tier, backed by a shared Redis service.
// Values travel as cachecodec envelopes so any instance sharing the same
// registry can decode entries written by another.
//
// Remote is failure-transparent by contract: network, timeout, and protocol
// errors surface as ErrUnavailable and open a cool-down window during which
// the tier reports itself unavailable without touching the network. Decode
// errors do not degrade the tier (the service answered, the payload is just
// unusable) and are reported as-is for the caller to treat as a miss.
type Remote struct {
	client redis.UniversalClient
	codec  *cachecodec.Registry
	gate   *healthGate
	opts   *remoteOptions
}

// NewRemote wraps a Redis client as the distributed tier. The client should
// come from pkg/redis.Open, which applies cache-grade aggressive timeouts.
func NewRemote(client redis.UniversalClient, codec *cachecodec.Registry, opts ...RemoteOption) *Remote {
	o := defaultRemoteOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Remote{
		client: client,
		codec:  codec,
		gate:   newHealthGate(o.cooldown),
		opts:   o,
	}
}

// Get retrieves and decodes a value. Returns ErrNotFound on a miss,
// ErrUnavailable while the tier is down or cooling down, and a
// cachecodec error when the stored envelope cannot be decoded.
func (r *Remote) Get(ctx context.Context, key string) (any, error) {
	if !r.gate.available() {
		return nil, ErrUnavailable
	}

	data, err := r.client.Get(ctx, r.prefixed(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.gate.markSuccess()
			return nil, ErrNotFound
		}
		return nil, r.fail(ctx, "get", key, err)
	}
	r.gate.markSuccess()

	v, err := r.codec.Decode(data)
	if err != nil {
		// The tier is reachable; only this entry is poisoned or stale.
		return nil, err
	}
	return v, nil
}

// Set encodes and stores a value with the given TTL. Returns ErrUnavailable
// while the tier is down; encoding failures are returned verbatim.
func (r *Remote) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !r.gate.available() {
		return ErrUnavailable
	}

	data, err := r.codec.Encode(value)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.prefixed(key), data, ttl).Err(); err != nil {
		return r.fail(ctx, "set", key, err)
	}
	r.gate.markSuccess()

	return nil
}

// Delete removes a key.
func (r *Remote) Delete(ctx context.Context, key string) error {
	if !r.gate.available() {
		return ErrUnavailable
	}

	if err := r.client.Del(ctx, r.prefixed(key)).Err(); err != nil {
		return r.fail(ctx, "delete", key, err)
	}
	r.gate.markSuccess()

	return nil
}

// DeletePrefix removes every key under the given prefix using SCAN, which
// does not block the server.
func (r *Remote) DeletePrefix(ctx context.Context, prefix string) error {
	if !r.gate.available() {
		return ErrUnavailable
	}

	pattern := r.prefixed(prefix) + "*"
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return r.fail(ctx, "scan", prefix, err)
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return r.fail(ctx, "delete", prefix, err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	r.gate.markSuccess()

	return nil
}

// Ping probes the tier directly, bypassing the cool-down gate. A success
// closes the gate, so a health probe can restore a degraded tier early.
func (r *Remote) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return r.fail(ctx, "ping", "", err)
	}
	r.gate.markSuccess()
	return nil
}

// Available reports whether the tier should be tried right now.
func (r *Remote) Available() bool {
	return r.gate.available()
}

// State reports the tier's health as derived from the most recent operation.
func (r *Remote) State() RemoteState {
	return r.gate.state()
}

// fail records an operation failure, logs it (loud on the first failure of
// an outage, quiet afterwards to avoid flooding), and maps it to
// ErrUnavailable for the composite manager to swallow.
//
// A failure caused by the caller's own context is not held against the tier:
// an abandoned request says nothing about the service, and opening the
// cool-down for it would hide a healthy tier from every other caller.
func (r *Remote) fail(ctx context.Context, op, key string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}

	first := r.gate.markFailure()

	attrs := []any{
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
		slog.Duration("cooldown", r.opts.cooldown),
	}
	if first {
		r.opts.log.Warn("remote cache tier degraded", attrs...)
	} else {
		r.opts.log.Debug("remote cache tier still failing", attrs...)
	}

	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func (r *Remote) prefixed(key string) string {
	if r.opts.prefix == "" {
		return key
	}
	return r.opts.prefix + ":" + key
}
