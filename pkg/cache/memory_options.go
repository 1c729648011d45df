package cache

import "time"

// MemoryOption configures the in-process tier.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	writeTTL      time.Duration
	accessTTL     time.Duration
	sweepInterval time.Duration
	maxEntries    int
}

func defaultMemoryOptions() *memoryOptions {
	return &memoryOptions{
		writeTTL:      5 * time.Minute,
		accessTTL:     10 * time.Minute,
		sweepInterval: time.Minute,
		maxEntries:    10_000,
	}
}

// WithWriteTTL sets the expire-after-write threshold.
// Zero disables write expiry. Default: 5 minutes.
func WithWriteTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.writeTTL = d
	}
}

// WithAccessTTL sets the expire-after-access threshold.
// Zero disables access expiry. Default: 10 minutes.
func WithAccessTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.accessTTL = d
	}
}

// WithMemorySweepInterval sets how often the janitor removes expired entries.
// Zero disables the janitor; expiry is then enforced lazily on access only.
// Default: 1 minute.
func WithMemorySweepInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.sweepInterval = d
	}
}

// WithMaxEntries bounds the tier's entry count. When the limit is reached,
// the least recently used entry is evicted. Default: 10000.
func WithMaxEntries(n int) MemoryOption {
	return func(o *memoryOptions) {
		o.maxEntries = n
	}
}
