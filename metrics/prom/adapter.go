// Package prom adapts metrics.Recorder to prometheus.Collector. Kept as a
// satellite module so the core bastion module never depends on Prometheus.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package prom

import (
	"github.com/agilira/bastion/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a metrics.Recorder's snapshot as Prometheus metrics.
type Collector struct {
	recorder *metrics.Recorder
	now      func() int64

	hitsTotal    *prometheus.Desc
	missesTotal  *prometheus.Desc
	hitRate      *prometheus.Desc
	latencyNanos *prometheus.Desc
	eventsTotal  *prometheus.Desc
}

// New builds a Collector over recorder. now supplies the snapshot instant;
// pass time.Now().UnixNano if no TimeProvider is already in scope.
func New(recorder *metrics.Recorder, now func() int64) *Collector {
	return &Collector{
		recorder: recorder,
		now:      now,
		hitsTotal: prometheus.NewDesc(
			"cache_hits_total", "Cache hits by level.", []string{"level"}, nil),
		missesTotal: prometheus.NewDesc(
			"cache_misses_total", "Cache misses by level.", []string{"level"}, nil),
		hitRate: prometheus.NewDesc(
			"cache_hit_rate", "Cache hit rate by level, in [0,1].", []string{"level"}, nil),
		latencyNanos: prometheus.NewDesc(
			"cache_operation_latency_nanoseconds", "Average operation latency.", []string{"operation"}, nil),
		eventsTotal: prometheus.NewDesc(
			"cache_events_total", "Protection events by type.", []string{"type"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hitsTotal
	ch <- c.missesTotal
	ch <- c.hitRate
	ch <- c.latencyNanos
	ch <- c.eventsTotal
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.recorder.Snapshot(c.now())

	for _, name := range metrics.Levels {
		ch <- prometheus.MustNewConstMetric(c.hitsTotal, prometheus.CounterValue, float64(snap.HitsByLevel[name]), name)
		ch <- prometheus.MustNewConstMetric(c.missesTotal, prometheus.CounterValue, float64(snap.MissesByLevel[name]), name)
		ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, snap.HitRateByLevel[name], name)
	}

	for _, name := range metrics.Operations {
		ch <- prometheus.MustNewConstMetric(c.latencyNanos, prometheus.GaugeValue, snap.AvgLatencyByOp[name], name)
	}

	for _, name := range metrics.EventTypes {
		ch <- prometheus.MustNewConstMetric(c.eventsTotal, prometheus.CounterValue, float64(snap.EventsByType[name]), name)
	}
}
