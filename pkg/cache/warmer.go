package cache

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Warmer proactively refreshes hot cache entries before they expire, so a
// popular entry expiring does not send a burst of concurrent misses to the
// database. Schedules use standard cron expressions plus the @every syntax.
type Warmer struct {
	cron *cron.Cron
	m    *Manager
	log  *slog.Logger
}

// WarmerOption configures the Warmer.
type WarmerOption func(*Warmer)

// WithWarmerLogger sets the logger for warming outcomes. Default: discard.
func WithWarmerLogger(log *slog.Logger) WarmerOption {
	return func(w *Warmer) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWarmer creates a warmer bound to a manager. Call Start after adding jobs.
func NewWarmer(m *Manager, opts ...WarmerOption) *Warmer {
	w := &Warmer{
		cron: cron.New(),
		m:    m,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Add schedules a refresh of (namespace, key) through the given loader.
//
//	warmer.Add("@every 10m", "products", "featured", loadFeatured)
func (w *Warmer) Add(schedule, ns, key string, loader Loader) error {
	_, err := w.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		start := time.Now()
		if _, err := w.m.Refresh(ctx, ns, key, loader); err != nil {
			w.log.Warn("cache warming failed",
				slog.String("namespace", ns),
				slog.String("key", key),
				slog.String("error", err.Error()))
			return
		}
		w.log.Debug("cache entry warmed",
			slog.String("namespace", ns),
			slog.String("key", key),
			slog.Duration("took", time.Since(start)))
	})
	return err
}

// LogStats schedules periodic logging of per-namespace counters and the
// distributed tier's state, for operational visibility.
func (w *Warmer) LogStats(schedule string) error {
	_, err := w.cron.AddFunc(schedule, func() {
		for name, s := range w.m.Stats() {
			w.log.Info("cache namespace statistics",
				slog.String("namespace", name),
				slog.Uint64("hits", s.Local.Hits),
				slog.Uint64("misses", s.Local.Misses),
				slog.Uint64("evictions", s.Local.Evictions),
				slog.Uint64("remote_hits", s.RemoteHits),
				slog.Uint64("loads", s.Loads))
		}
		w.log.Info("remote cache tier state",
			slog.String("state", w.m.RemoteState().String()))
	})
	return err
}

// Start launches the scheduler in its own goroutine.
func (w *Warmer) Start() {
	w.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (w *Warmer) Stop() {
	<-w.cron.Stop().Done()
}
