// Package bastion provides a two-tier read-through cache facade that fronts
// a slow authoritative data source with a process-local near cache and a
// shared, networked far cache.
//
// Bastion composes four protections against the classic mass-miss
// pathologies around a cache: penetration (repeated queries for keys that
// do not exist), avalanche (many keys expiring at once), breakdown
// (concurrent misses on a single hot key), and downstream failure (the data
// source itself going away). The facade orchestrates an approximate-
// membership filter, a sliding-window hot-key detector, a distributed lock
// for single-flight coordination, and a circuit breaker around the loader
// call.
//
// Example usage:
//
//	store := farcache.New[User](farcache.Config{Addr: "localhost:6379"})
//	near := nearcache.New[string, User](nearcache.Config{MaxSize: 10_000})
//	f, err := bastion.New[string, User](bastion.DefaultConfig(), near, store, loadUser)
//	if err != nil {
//		return err
//	}
//
//	user, ok := f.Get(ctx, "user:123")
//	if ok {
//		fmt.Printf("User: %+v\n", user)
//	}
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import "time"

const (
	// Version of the bastion cache facade.
	Version = "v0.1.0-dev"

	// DefaultNearMaxSize is the default maximum number of near-cache entries.
	DefaultNearMaxSize = 10_000

	// DefaultNearTTL is the default near-cache entry lifetime.
	DefaultNearTTL = 60 * time.Second

	// DefaultFarTTL is the default far-cache entry lifetime.
	DefaultFarTTL = 300 * time.Second

	// DefaultTTLJitterPct is the default far-cache TTL jitter percentage.
	DefaultTTLJitterPct = 20

	// MinTTLJitterPct and MaxTTLJitterPct bound the jitter percentage.
	MinTTLJitterPct = 10
	MaxTTLJitterPct = 30

	// DefaultLockTimeout bounds both the distributed lock wait and its
	// auto-release TTL.
	DefaultLockTimeout = 3 * time.Second

	// DefaultExpectedInsertions sizes the membership filter.
	DefaultExpectedInsertions = 100_000

	// DefaultFalsePositiveRate is the membership filter's target FP rate.
	DefaultFalsePositiveRate = 0.01

	// DefaultRebuildThreshold is the estimated FP rate above which the
	// facade logs a warning about the membership filter.
	DefaultRebuildThreshold = 0.05

	// DefaultNegativeCacheTTL bounds negative entries. Never exceeds 5m.
	DefaultNegativeCacheTTL = 5 * time.Minute
	MaxNegativeCacheTTL     = 5 * time.Minute

	// DefaultHotKeyThreshold and DefaultHotKeyWindow parameterize the
	// sliding-window hot-key detector.
	DefaultHotKeyThreshold = 100
	DefaultHotKeyWindow    = 60 * time.Second

	// DefaultBreakerFailureThreshold and DefaultBreakerResetTimeout
	// parameterize the circuit breaker.
	DefaultBreakerFailureThreshold = 5
	DefaultBreakerResetTimeout     = 30 * time.Second

	// lockRetrySleep is the back-off slept after losing the single-flight
	// lock race, before re-reading L2 once.
	lockRetrySleep = 50 * time.Millisecond

	// doubleDeleteDelay is the fixed gap between the immediate delete and
	// the scheduled second delete in Invalidate. Not tunable in the core.
	doubleDeleteDelay = 500 * time.Millisecond

	// schedulerShutdownGrace bounds how long Close waits for in-flight
	// scheduled deletes to finish.
	schedulerShutdownGrace = 5 * time.Second
)
