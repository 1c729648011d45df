package cache

import (
	"io"
	"log/slog"
	"time"
)

// RemoteOption configures the distributed tier.
type RemoteOption func(*remoteOptions)

type remoteOptions struct {
	log      *slog.Logger
	prefix   string
	cooldown time.Duration
}

func defaultRemoteOptions() *remoteOptions {
	return &remoteOptions{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		cooldown: 5 * time.Second,
	}
}

// WithRemoteLogger sets the logger for tier degradation events.
// Default: discard.
func WithRemoteLogger(log *slog.Logger) RemoteOption {
	return func(o *remoteOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRemotePrefix namespaces all keys under "{prefix}:". Useful when several
// applications share one Redis deployment.
func WithRemotePrefix(prefix string) RemoteOption {
	return func(o *remoteOptions) {
		o.prefix = prefix
	}
}

// WithCooldown sets how long the tier is skipped after a failure before the
// next request re-probes it. Default: 5 seconds.
func WithCooldown(d time.Duration) RemoteOption {
	return func(o *remoteOptions) {
		if d > 0 {
			o.cooldown = d
		}
	}
}
