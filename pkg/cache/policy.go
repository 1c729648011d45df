package cache

import (
	"fmt"
	"time"
)

// Class groups namespaces by data volatility. Each class maps to a base
// Policy; individual namespaces may override fields but the ordering of
// strictness between classes is fixed.
type Class int

const (
	// ClassRealTime covers live dashboards and operational counters.
	ClassRealTime Class = iota

	// ClassVolatile covers catalog items, stock levels, and orders.
	ClassVolatile

	// ClassSemiStatic covers taxonomy: categories, brands.
	ClassSemiStatic

	// ClassSlowChanging covers user profiles and reference data.
	ClassSlowChanging
)

func (c Class) String() string {
	switch c {
	case ClassRealTime:
		return "real-time"
	case ClassVolatile:
		return "volatile"
	case ClassSemiStatic:
		return "semi-static"
	case ClassSlowChanging:
		return "slow-changing"
	default:
		return "unknown"
	}
}

// ParseClass resolves a class name as used in policy files.
func ParseClass(name string) (Class, error) {
	switch name {
	case "real-time":
		return ClassRealTime, nil
	case "volatile":
		return ClassVolatile, nil
	case "semi-static":
		return ClassSemiStatic, nil
	case "slow-changing":
		return ClassSlowChanging, nil
	default:
		return 0, fmt.Errorf("%w: unknown class %q", ErrInvalidPolicy, name)
	}
}

// Policy is the freshness and size contract of one namespace. Registered once
// at process start; immutable thereafter.
type Policy struct {
	// LocalTTL is the in-process tier's expire-after-write threshold.
	LocalTTL time.Duration

	// LocalAccessTTL is the in-process tier's expire-after-access threshold.
	// Zero disables access expiry for the namespace.
	LocalAccessTTL time.Duration

	// RemoteTTL is the distributed tier's entry TTL.
	RemoteTTL time.Duration

	// MaxEntries bounds the in-process tier's entry count.
	MaxEntries int

	// Remote enables the distributed tier for this namespace. Namespaces
	// holding instance-local data can opt out of the shared store.
	Remote bool
}

// Policy returns the base policy of the class. The local tier exists to
// absorb bursts between distributed-tier round trips, so LocalTTL is always
// at most RemoteTTL.
func (c Class) Policy() Policy {
	switch c {
	case ClassRealTime:
		return Policy{
			LocalTTL:       time.Minute,
			LocalAccessTTL: 2 * time.Minute,
			RemoteTTL:      5 * time.Minute,
			MaxEntries:     128,
			Remote:         true,
		}
	case ClassVolatile:
		return Policy{
			LocalTTL:       5 * time.Minute,
			LocalAccessTTL: 10 * time.Minute,
			RemoteTTL:      30 * time.Minute,
			MaxEntries:     10_000,
			Remote:         true,
		}
	case ClassSemiStatic:
		return Policy{
			LocalTTL:       30 * time.Minute,
			LocalAccessTTL: time.Hour,
			RemoteTTL:      time.Hour,
			MaxEntries:     2_048,
			Remote:         true,
		}
	case ClassSlowChanging:
		return Policy{
			LocalTTL:       time.Hour,
			LocalAccessTTL: 2 * time.Hour,
			RemoteTTL:      24 * time.Hour,
			MaxEntries:     4_096,
			Remote:         true,
		}
	default:
		return defaultPolicy()
	}
}

// defaultPolicy is the conservative fallback for namespaces used at runtime
// without registration: short TTLs and a small bound, never uncached-forever
// and never unbounded.
func defaultPolicy() Policy {
	return Policy{
		LocalTTL:       time.Minute,
		LocalAccessTTL: 2 * time.Minute,
		RemoteTTL:      2 * time.Minute,
		MaxEntries:     1_000,
		Remote:         true,
	}
}

// Validate rejects contradictory policies. Called at registration, which
// happens before the process accepts traffic.
func (p Policy) Validate() error {
	if p.LocalTTL <= 0 {
		return fmt.Errorf("%w: local TTL must be positive, got %s", ErrInvalidPolicy, p.LocalTTL)
	}
	if p.LocalAccessTTL < 0 {
		return fmt.Errorf("%w: local access TTL must not be negative, got %s", ErrInvalidPolicy, p.LocalAccessTTL)
	}
	if p.MaxEntries <= 0 {
		return fmt.Errorf("%w: max entries must be positive, got %d", ErrInvalidPolicy, p.MaxEntries)
	}
	if p.Remote {
		if p.RemoteTTL <= 0 {
			return fmt.Errorf("%w: remote TTL must be positive, got %s", ErrInvalidPolicy, p.RemoteTTL)
		}
		if p.LocalTTL > p.RemoteTTL {
			return fmt.Errorf("%w: local TTL %s exceeds remote TTL %s", ErrInvalidPolicy, p.LocalTTL, p.RemoteTTL)
		}
	}
	return nil
}
