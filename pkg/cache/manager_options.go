package cache

import (
	"io"
	"log/slog"
	"time"
)

// Option configures the Manager.
type Option func(*managerOptions)

type managerOptions struct {
	remote            *Remote
	log               *slog.Logger
	sweepInterval     time.Duration
	repopulateWorkers int
	repopulateQueue   int
	repopulateTimeout time.Duration
}

func defaultManagerOptions() *managerOptions {
	return &managerOptions{
		log:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		sweepInterval:     time.Minute,
		repopulateWorkers: 2,
		repopulateQueue:   256,
		repopulateTimeout: 2 * time.Second,
	}
}

// WithRemote attaches the distributed tier. Without it the manager is
// local-only for the process lifetime (the RemoteDisabled state).
func WithRemote(r *Remote) Option {
	return func(o *managerOptions) {
		o.remote = r
	}
}

// WithLogger sets the logger for degradation and fallback events.
// Default: discard.
func WithLogger(log *slog.Logger) Option {
	return func(o *managerOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithSweepInterval sets the local tiers' janitor frequency.
// Default: 1 minute.
func WithSweepInterval(d time.Duration) Option {
	return func(o *managerOptions) {
		o.sweepInterval = d
	}
}

// WithRepopulateWorkers sets how many goroutines drain the asynchronous
// distributed-tier write queue. Default: 2.
func WithRepopulateWorkers(n int) Option {
	return func(o *managerOptions) {
		if n > 0 {
			o.repopulateWorkers = n
		}
	}
}

// WithRepopulateQueue bounds the asynchronous write queue. When full, writes
// are dropped rather than blocking callers. Default: 256.
func WithRepopulateQueue(n int) Option {
	return func(o *managerOptions) {
		if n > 0 {
			o.repopulateQueue = n
		}
	}
}

// WithRepopulateTimeout caps each asynchronous distributed-tier write.
// Default: 2 seconds.
func WithRepopulateTimeout(d time.Duration) Option {
	return func(o *managerOptions) {
		if d > 0 {
			o.repopulateTimeout = d
		}
	}
}
