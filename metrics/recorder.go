// Package metrics implements the core hit/miss/latency/event counters the
// facade records, plus a Prometheus-style text exposition. The core
// recorder has no third-party dependency and no dependency on the facade's
// own package, so it can be imported from both the root module and the
// metrics/prom satellite module without a cycle; callers pass label
// strings (the facade passes its own enums' String() forms).
//
// metrics/prom adapts this recorder to prometheus.Collector for scrape
// integration.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Levels, Operations, and EventTypes are the fixed label sets this recorder
// tracks, matching bastion's CacheLevel/CacheOperation/CacheEventType.
var (
	Levels     = []string{"L1_NEAR", "L2_FAR"}
	Operations = []string{"GET", "PUT", "DELETE"}
	EventTypes = []string{"PENETRATION", "AVALANCHE_RISK", "BREAKDOWN", "CIRCUIT_OPEN"}
)

type latencyAccum struct {
	totalNanos int64
	count      int64
}

// Recorder is bastion's core metrics component: concurrent, lock-free
// counters and latency accumulators, keyed by label string.
type Recorder struct {
	hits   map[string]*int64
	misses map[string]*int64
	events map[string]*int64

	latencies map[string]*latencyAccum
}

// New builds an empty Recorder pre-populated with the known label sets.
func New() *Recorder {
	r := &Recorder{
		hits:      make(map[string]*int64, len(Levels)),
		misses:    make(map[string]*int64, len(Levels)),
		events:    make(map[string]*int64, len(EventTypes)),
		latencies: make(map[string]*latencyAccum, len(Operations)),
	}
	for _, l := range Levels {
		var h, m int64
		r.hits[l] = &h
		r.misses[l] = &m
	}
	for _, e := range EventTypes {
		var c int64
		r.events[e] = &c
	}
	for _, op := range Operations {
		r.latencies[op] = &latencyAccum{}
	}
	return r
}

// RecordHit increments the hit counter for level.
func (r *Recorder) RecordHit(level string) {
	if p, ok := r.hits[level]; ok {
		atomic.AddInt64(p, 1)
	}
}

// RecordMiss increments the miss counter for level.
func (r *Recorder) RecordMiss(level string) {
	if p, ok := r.misses[level]; ok {
		atomic.AddInt64(p, 1)
	}
}

// RecordLatency folds nanos into operation's running average.
func (r *Recorder) RecordLatency(operation string, nanos int64) {
	if a, ok := r.latencies[operation]; ok {
		atomic.AddInt64(&a.totalNanos, nanos)
		atomic.AddInt64(&a.count, 1)
	}
}

// RecordEvent increments the counter for a protection event.
func (r *Recorder) RecordEvent(eventType string) {
	if p, ok := r.events[eventType]; ok {
		atomic.AddInt64(p, 1)
	}
}

// Snapshot is a point-in-time view of every counter; see Recorder.Snapshot
// for how consistent it is.
type Snapshot struct {
	Timestamp      int64
	HitsByLevel    map[string]int64
	MissesByLevel  map[string]int64
	HitRateByLevel map[string]float64
	AvgLatencyByOp map[string]float64
	EventsByType   map[string]int64
}

// Snapshot reads every counter. Each individual counter read is atomic; the
// snapshot as a whole is best-effort consistent (no global lock), matching
// the "lock-free concurrent adders" resource model for metrics.
func (r *Recorder) Snapshot(now int64) Snapshot {
	s := Snapshot{
		Timestamp:      now,
		HitsByLevel:    make(map[string]int64, len(Levels)),
		MissesByLevel:  make(map[string]int64, len(Levels)),
		HitRateByLevel: make(map[string]float64, len(Levels)),
		AvgLatencyByOp: make(map[string]float64, len(Operations)),
		EventsByType:   make(map[string]int64, len(EventTypes)),
	}

	for _, level := range Levels {
		hits := atomic.LoadInt64(r.hits[level])
		misses := atomic.LoadInt64(r.misses[level])
		s.HitsByLevel[level] = hits
		s.MissesByLevel[level] = misses
		if total := hits + misses; total > 0 {
			s.HitRateByLevel[level] = float64(hits) / float64(total)
		}
	}

	for _, op := range Operations {
		a := r.latencies[op]
		total := atomic.LoadInt64(&a.totalNanos)
		count := atomic.LoadInt64(&a.count)
		if count > 0 {
			s.AvgLatencyByOp[op] = float64(total) / float64(count)
		}
	}

	for _, ev := range EventTypes {
		s.EventsByType[ev] = atomic.LoadInt64(r.events[ev])
	}

	return s
}

// ExportText renders the recorder's state as Prometheus-style text, one
// line per series: cache_hits_total, cache_misses_total and cache_hit_rate
// per level, cache_operation_latency_nanoseconds per operation, and
// cache_events_total per event type.
func (r *Recorder) ExportText(now int64) string {
	snap := r.Snapshot(now)
	var b strings.Builder

	for _, level := range Levels {
		fmt.Fprintf(&b, "cache_hits_total{level=%q} %d\n", level, snap.HitsByLevel[level])
		fmt.Fprintf(&b, "cache_misses_total{level=%q} %d\n", level, snap.MissesByLevel[level])
		fmt.Fprintf(&b, "cache_hit_rate{level=%q} %f\n", level, snap.HitRateByLevel[level])
	}

	for _, op := range Operations {
		fmt.Fprintf(&b, "cache_operation_latency_nanoseconds{operation=%q} %f\n", op, snap.AvgLatencyByOp[op])
	}

	for _, ev := range EventTypes {
		fmt.Fprintf(&b, "cache_events_total{type=%q} %d\n", ev, snap.EventsByType[ev])
	}

	return b.String()
}
