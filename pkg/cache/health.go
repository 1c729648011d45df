package cache

import (
	"sync"
	"time"
)

// RemoteState describes the distributed tier as seen by the manager.
type RemoteState int

const (
	// RemoteDisabled means no distributed tier was configured for this
	// process. Permanent for the process lifetime.
	RemoteDisabled RemoteState = iota

	// RemoteHealthy means the last operation against the distributed tier
	// succeeded (or none has been attempted yet).
	RemoteHealthy

	// RemoteDegraded means a recent operation failed and the tier is inside
	// its cool-down window, during which it is skipped entirely.
	RemoteDegraded
)

func (s RemoteState) String() string {
	switch s {
	case RemoteDisabled:
		return "disabled"
	case RemoteHealthy:
		return "healthy"
	case RemoteDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// healthGate tracks the distributed tier's request-driven health. A failure
// opens a cool-down window during which the tier is not retried, so a
// known-bad dependency is not hammered on every request. The first operation
// after the window re-probes the tier; a success closes the gate immediately.
type healthGate struct {
	cooldown  time.Duration
	mu        sync.Mutex
	downUntil time.Time
	degraded  bool
}

func newHealthGate(cooldown time.Duration) *healthGate {
	return &healthGate{cooldown: cooldown}
}

// available reports whether the tier should be tried right now.
func (g *healthGate) available() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return !g.degraded || time.Now().After(g.downUntil)
}

// markFailure opens (or extends) the cool-down window. It reports whether
// this failure started a new window, so callers can log the first failure
// loudly and the rest quietly.
func (g *healthGate) markFailure() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	first := !g.degraded
	g.degraded = true
	g.downUntil = time.Now().Add(g.cooldown)
	return first
}

// markSuccess closes the gate.
func (g *healthGate) markSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.degraded = false
}

// state reports the gate's current view of the tier.
func (g *healthGate) state() RemoteState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.degraded && time.Now().Before(g.downUntil) {
		return RemoteDegraded
	}
	return RemoteHealthy
}
