// Package hotkey implements the sliding-window hot-key detector that
// triggers the facade's single-flight branch.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package hotkey

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// record is a per-key access history: an append-only-from-the-tail,
// prune-from-the-head timestamp sequence plus a counter tracking its
// length. Both are mutated under the record's own mutex; the counter is
// kept with atomic operations. IsHot does not read the record at all: it
// consults the detector's hot set, which RecordAccess updates while still
// holding the record's mutex.
type record struct {
	mu         sync.Mutex
	timestamps []int64
	count      int64 // atomic mirror of len(timestamps), read lock-free
}

// Detector tracks one record per distinct key string and a hot set derived
// from count >= threshold.
type Detector struct {
	clock clockwork.Clock

	mu        sync.RWMutex
	threshold int64
	window    time.Duration

	records sync.Map // string -> *record
	hotSet  sync.Map // string -> struct{}
}

// Config parameterizes a Detector.
type Config struct {
	Threshold int
	Window    time.Duration
	Clock     clockwork.Clock
}

// New builds a Detector. A nil Clock defaults to the real clock.
func New(cfg Config) *Detector {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Threshold < 1 {
		cfg.Threshold = 1
	}
	return &Detector{
		clock:     cfg.Clock,
		threshold: int64(cfg.Threshold),
		window:    cfg.Window,
	}
}

// RecordAccess appends now to s's record, prunes timestamps older than
// now-window, and updates hot-set membership.
func (d *Detector) RecordAccess(s string) {
	now := d.clock.Now().UnixNano()

	v, _ := d.records.LoadOrStore(s, &record{})
	r := v.(*record)

	d.mu.RLock()
	window := d.window
	threshold := d.threshold
	d.mu.RUnlock()

	r.mu.Lock()
	r.timestamps = append(r.timestamps, now)
	atomic.AddInt64(&r.count, 1)

	cutoff := now - window.Nanoseconds()
	dropped := 0
	for dropped < len(r.timestamps) && r.timestamps[dropped] < cutoff {
		dropped++
	}
	if dropped > 0 {
		r.timestamps = r.timestamps[dropped:]
		atomic.AddInt64(&r.count, -int64(dropped))
	}
	count := atomic.LoadInt64(&r.count)

	if count >= threshold {
		d.hotSet.Store(s, struct{}{})
	} else {
		d.hotSet.Delete(s)
	}
	r.mu.Unlock()
}

// IsHot reports s's current hot-set membership.
func (d *Detector) IsHot(s string) bool {
	_, ok := d.hotSet.Load(s)
	return ok
}

// Reconfigure replaces threshold/window and re-evaluates every known key's
// record against the new window, without waiting for the next access.
func (d *Detector) Reconfigure(threshold int, window time.Duration) {
	if threshold < 1 {
		threshold = 1
	}

	d.mu.Lock()
	d.threshold = int64(threshold)
	d.window = window
	d.mu.Unlock()

	now := d.clock.Now().UnixNano()
	cutoff := now - window.Nanoseconds()

	d.records.Range(func(key, value interface{}) bool {
		s := key.(string)
		r := value.(*record)

		r.mu.Lock()
		dropped := 0
		for dropped < len(r.timestamps) && r.timestamps[dropped] < cutoff {
			dropped++
		}
		if dropped > 0 {
			r.timestamps = r.timestamps[dropped:]
		}
		atomic.StoreInt64(&r.count, int64(len(r.timestamps)))
		count := atomic.LoadInt64(&r.count)
		r.mu.Unlock()

		if count >= int64(threshold) {
			d.hotSet.Store(s, struct{}{})
		} else {
			d.hotSet.Delete(s)
		}
		return true
	})
}
