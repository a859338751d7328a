// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nearcache

import (
	"sync"
	"sync/atomic"

	"github.com/agilira/bastion"
	timecache "github.com/agilira/go-timecache"
)

// Config parameterizes an Engine.
type Config struct {
	MaxSize     int
	DefaultTTL  int64 // nanoseconds
	RecordStats bool

	// TimeProvider supplies the write-instant clock for TTL stamping. If
	// nil, a cached system clock is used.
	TimeProvider bastion.TimeProvider
}

type slot[V any] struct {
	entry bastion.Entry[V]
	valid bool
}

// Engine is a generic, mutex-guarded, sampled-LFU-eviction near cache. It
// implements bastion.NearCache[K,V].
//
// Put always writes with cfg.DefaultTTL and ignores the ttl argument
// passed by the facade.
type Engine[K comparable, V any] struct {
	cfg Config

	mu   sync.Mutex
	data map[K]*slot[V]
	freq *freqEstimator

	hits      uint64
	misses    uint64
	evictions uint64
}

// New builds an Engine sized per cfg.
func New[K comparable, V any](cfg Config) *Engine[K, V] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = bastion.DefaultNearMaxSize
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = int64(bastion.DefaultNearTTL)
	}
	if cfg.TimeProvider == nil {
		cfg.TimeProvider = cachedTimeProvider{}
	}
	return &Engine[K, V]{
		cfg:  cfg,
		data: make(map[K]*slot[V], cfg.MaxSize),
		freq: newFreqEstimator(cfg.MaxSize),
	}
}

// Get returns the entry for key, if present. Staleness is the facade's
// responsibility to check against Entry.ExpiresAt; Get never evaluates TTL
// itself so tests can drive a fake clock without racing a real one.
func (e *Engine[K, V]) Get(key K) (bastion.Entry[V], bool) {
	e.mu.Lock()
	s, ok := e.data[key]
	e.mu.Unlock()

	if !ok || !s.valid {
		if e.cfg.RecordStats {
			atomic.AddUint64(&e.misses, 1)
		}
		var zero bastion.Entry[V]
		return zero, false
	}
	if e.cfg.RecordStats {
		atomic.AddUint64(&e.hits, 1)
	}
	e.freq.touch(e.hash(key))
	return s.entry, true
}

// Put stores entry under key. ttl is accepted for interface parity with the
// far-cache collaborator but is intentionally ignored: the near cache
// always uses its own configured default TTL, counted from the write
// instant, so an entry refilled from the far tier still gets a full near
// lifetime.
func (e *Engine[K, V]) Put(key K, entry bastion.Entry[V], ttl int64) {
	_ = ttl
	entry.ExpiresAt = e.cfg.TimeProvider.Now() + e.cfg.DefaultTTL

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.data[key]; !exists && len(e.data) >= e.cfg.MaxSize {
		e.evictOneLocked()
	}
	e.data[key] = &slot[V]{entry: entry, valid: true}
}

// Delete removes key, if present.
func (e *Engine[K, V]) Delete(key K) {
	e.mu.Lock()
	delete(e.data, key)
	e.mu.Unlock()
}

// Clear empties the engine and resets its counters.
func (e *Engine[K, V]) Clear() {
	e.mu.Lock()
	e.data = make(map[K]*slot[V], e.cfg.MaxSize)
	e.mu.Unlock()
	atomic.StoreUint64(&e.hits, 0)
	atomic.StoreUint64(&e.misses, 0)
	atomic.StoreUint64(&e.evictions, 0)
}

// Size returns the current number of entries.
func (e *Engine[K, V]) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.data)
}

// Stats returns hit/miss/eviction counters.
func (e *Engine[K, V]) Stats() bastion.NearStats {
	e.mu.Lock()
	size := len(e.data)
	e.mu.Unlock()
	return bastion.NearStats{
		Hits:      atomic.LoadUint64(&e.hits),
		Misses:    atomic.LoadUint64(&e.misses),
		Evictions: atomic.LoadUint64(&e.evictions),
		Size:      size,
		Capacity:  e.cfg.MaxSize,
	}
}

// Close releases Engine resources. The engine holds no background
// goroutines, so this is a no-op kept for interface parity.
func (e *Engine[K, V]) Close() error {
	return nil
}

// evictOneLocked samples a handful of candidate keys and evicts the one
// with the lowest estimated access frequency. Must be called with e.mu held.
func (e *Engine[K, V]) evictOneLocked() {
	const sampleSize = 8

	var victim K
	var victimFreq uint64 = ^uint64(0)
	found := false

	sampled := 0
	for k := range e.data {
		if sampled >= sampleSize {
			break
		}
		sampled++
		est := e.freq.estimate(e.hash(k))
		if !found || est < victimFreq {
			victim = k
			victimFreq = est
			found = true
		}
	}

	if found {
		delete(e.data, victim)
		atomic.AddUint64(&e.evictions, 1)
	}
}

func (e *Engine[K, V]) hash(key K) uint64 {
	return stringHash(bastion.KeyString(key))
}

// cachedTimeProvider is the default clock, backed by go-timecache.
type cachedTimeProvider struct{}

func (cachedTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
