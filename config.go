// config.go: configuration for the bastion cache facade.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import (
	"time"

	timecache "github.com/agilira/go-timecache"
)

// NearConfig groups the near-cache tier's knobs.
type NearConfig struct {
	// MaxSize is the maximum number of entries the near cache holds.
	// Must be > 0. Default: DefaultNearMaxSize.
	MaxSize int

	// DefaultTTL is the near-cache entry lifetime. Must be > 0.
	// Default: DefaultNearTTL.
	DefaultTTL time.Duration

	// RecordStats toggles near-cache hit/miss/eviction counters.
	RecordStats bool
}

// FarConfig groups the far-cache tier's knobs.
type FarConfig struct {
	// DefaultTTL is the far-cache entry lifetime before jitter. Must be > 0.
	// Default: DefaultFarTTL.
	DefaultTTL time.Duration

	// TTLJitterPct is clamped into [MinTTLJitterPct, MaxTTLJitterPct].
	// Default: DefaultTTLJitterPct.
	TTLJitterPct int

	// LockTimeout bounds the distributed lock's wait and auto-release TTL.
	// Must be > 0. Default: DefaultLockTimeout.
	LockTimeout time.Duration
}

// FilterConfig groups the membership filter's knobs.
type FilterConfig struct {
	// ExpectedInsertions sizes the filter. Must be > 0.
	// Default: DefaultExpectedInsertions.
	ExpectedInsertions int

	// FalsePositiveRate is the target rate, in (0, 1).
	// Default: DefaultFalsePositiveRate.
	FalsePositiveRate float64

	// RebuildThreshold is the estimated FP rate, in (0, 1), above which a
	// warning is logged recommending a rebuild. Default: DefaultRebuildThreshold.
	RebuildThreshold float64
}

// NegativeConfig groups negative-caching knobs.
type NegativeConfig struct {
	// Enabled toggles negative caching entirely.
	Enabled bool

	// TTL bounds how long a negative entry is cached. Must be <= 5m.
	// Default: DefaultNegativeCacheTTL.
	TTL time.Duration
}

// HotKeyConfig groups the sliding-window hot-key detector's knobs.
type HotKeyConfig struct {
	// Threshold is the access count within Window at or above which a key
	// is hot.
	// Must be >= 1. Default: DefaultHotKeyThreshold.
	Threshold int

	// Window is the sliding window duration. Must be > 0.
	// Default: DefaultHotKeyWindow.
	Window time.Duration
}

// BreakerConfig groups the circuit breaker's knobs.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that trips the
	// breaker from CLOSED to OPEN. Must be >= 1.
	// Default: DefaultBreakerFailureThreshold.
	FailureThreshold int

	// ResetTimeout is how long the breaker stays OPEN before allowing a
	// HALF_OPEN probe. Must be > 0. Default: DefaultBreakerResetTimeout.
	ResetTimeout time.Duration
}

// DataSourceConfig groups knobs for the loader collaborator.
type DataSourceConfig struct {
	// MaxLoadRPS rate-limits calls into the data loader. 0 disables the
	// limiter (the default): the loader is called as often as misses occur.
	MaxLoadRPS float64
}

// Config is a frozen record supplied at facade construction.
type Config struct {
	Near       NearConfig
	Far        FarConfig
	Filter     FilterConfig
	Negative   NegativeConfig
	HotKey     HotKeyConfig
	Breaker    BreakerConfig
	DataSource DataSourceConfig

	// Retry configures the executor wrapping the data-loader call.
	Retry RetryConfig

	// Logger is used for logging swallowed errors and protection events.
	// If nil, NoOpLogger is used.
	Logger Logger

	// TimeProvider supplies the hot-path clock. If nil, a default backed
	// by go-timecache is used.
	TimeProvider TimeProvider
}

// DefaultConfig returns a configuration with every documented default
// applied.
func DefaultConfig() Config {
	return Config{
		Near: NearConfig{
			MaxSize:     DefaultNearMaxSize,
			DefaultTTL:  DefaultNearTTL,
			RecordStats: true,
		},
		Far: FarConfig{
			DefaultTTL:   DefaultFarTTL,
			TTLJitterPct: DefaultTTLJitterPct,
			LockTimeout:  DefaultLockTimeout,
		},
		Filter: FilterConfig{
			ExpectedInsertions: DefaultExpectedInsertions,
			FalsePositiveRate:  DefaultFalsePositiveRate,
			RebuildThreshold:   DefaultRebuildThreshold,
		},
		Negative: NegativeConfig{
			Enabled: true,
			TTL:     DefaultNegativeCacheTTL,
		},
		HotKey: HotKeyConfig{
			Threshold: DefaultHotKeyThreshold,
			Window:    DefaultHotKeyWindow,
		},
		Breaker: BreakerConfig{
			FailureThreshold: DefaultBreakerFailureThreshold,
			ResetTimeout:     DefaultBreakerResetTimeout,
		},
		Retry:        DefaultRetryConfig(),
		Logger:       NoOpLogger{},
		TimeProvider: &systemTimeProvider{},
	}
}

// Validate normalizes options in place, returning an error only for the two
// constraints with no safe repair (a cache sized <= 0, a filter
// false-positive rate outside (0,1)). The TTL jitter percentage and the
// negative-cache TTL ceiling are clamped to their nearest valid bound; every
// other unset or out-of-range value is replaced by its default.
func (c *Config) Validate() error {
	if c.Near.MaxSize <= 0 {
		return NewErrInvalidConfig("near.max_size", c.Near.MaxSize, "must be > 0")
	}
	if c.Near.DefaultTTL <= 0 {
		c.Near.DefaultTTL = DefaultNearTTL
	}

	if c.Far.DefaultTTL <= 0 {
		c.Far.DefaultTTL = DefaultFarTTL
	}
	if c.Far.TTLJitterPct < MinTTLJitterPct {
		c.Far.TTLJitterPct = MinTTLJitterPct
	} else if c.Far.TTLJitterPct > MaxTTLJitterPct {
		c.Far.TTLJitterPct = MaxTTLJitterPct
	}
	if c.Far.LockTimeout <= 0 {
		c.Far.LockTimeout = DefaultLockTimeout
	}

	if c.Filter.ExpectedInsertions <= 0 {
		c.Filter.ExpectedInsertions = DefaultExpectedInsertions
	}
	if c.Filter.FalsePositiveRate <= 0 || c.Filter.FalsePositiveRate >= 1 {
		return NewErrInvalidConfig("filter.false_positive_rate", c.Filter.FalsePositiveRate, "must be in (0, 1)")
	}
	if c.Filter.RebuildThreshold <= 0 || c.Filter.RebuildThreshold >= 1 {
		c.Filter.RebuildThreshold = DefaultRebuildThreshold
	}

	if c.Negative.TTL <= 0 {
		c.Negative.TTL = DefaultNegativeCacheTTL
	} else if c.Negative.TTL > MaxNegativeCacheTTL {
		c.Negative.TTL = MaxNegativeCacheTTL
	}

	if c.HotKey.Threshold < 1 {
		c.HotKey.Threshold = DefaultHotKeyThreshold
	}
	if c.HotKey.Window <= 0 {
		c.HotKey.Window = DefaultHotKeyWindow
	}

	if c.Breaker.FailureThreshold < 1 {
		c.Breaker.FailureThreshold = DefaultBreakerFailureThreshold
	}
	if c.Breaker.ResetTimeout <= 0 {
		c.Breaker.ResetTimeout = DefaultBreakerResetTimeout
	}

	if c.DataSource.MaxLoadRPS < 0 {
		c.DataSource.MaxLoadRPS = 0
	}

	if c.Retry.MaxAttempts <= 0 {
		c.Retry = DefaultRetryConfig()
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}

	return nil
}

// systemTimeProvider is the default TimeProvider, backed by go-timecache's
// cached clock for near-allocation-free access on the hot path.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
