// Package breaker implements the three-state circuit breaker guarding the
// facade's data-source call.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package breaker

import (
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// State is one of CLOSED, OPEN, HALF_OPEN.
type State int32

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config parameterizes a Breaker.
type Config struct {
	FailureThreshold int
	ResetTimeout     time.Duration

	// Clock is the time source; defaults to the real clock.
	Clock clockwork.Clock
}

// Breaker is a CAS-driven circuit breaker. In OPEN state, concurrent
// Execute calls race to become the single HALF_OPEN prober: only the
// first CAS from Open to HalfOpen wins.
type Breaker struct {
	cfg Config

	state int32 // atomic State

	failureCount int64 // atomic
	successCount int64 // atomic

	lastFailureTime int64 // atomic, unix nanos
	lastSuccessTime int64 // atomic, unix nanos
	openSince       int64 // atomic, unix nanos; 0 when not OPEN
}

// New builds a Breaker. A nil Clock defaults to the real clock.
func New(cfg Config) *Breaker {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}
	return &Breaker{cfg: cfg}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	return State(atomic.LoadInt32(&b.state))
}

// Execute runs primary under breaker protection. If the breaker is OPEN and
// the reset timeout has not elapsed, fallback runs immediately without
// calling primary. If the reset timeout has elapsed, at most one concurrent
// caller is admitted as the HALF_OPEN probe; the rest are treated as still
// OPEN and run fallback.
func (b *Breaker) Execute(primary func() error, fallback func() error) error {
	switch b.State() {
	case Open:
		if !b.tryProbe() {
			return fallback()
		}
		return b.runProbe(primary, fallback)
	case HalfOpen:
		// Another goroutine already won the probe slot; treat as open.
		return fallback()
	default:
		return b.runClosed(primary)
	}
}

func (b *Breaker) now() int64 {
	return b.cfg.Clock.Now().UnixNano()
}

func (b *Breaker) tryProbe() bool {
	openSince := atomic.LoadInt64(&b.openSince)
	if openSince == 0 {
		return false
	}
	if b.now() < openSince+b.cfg.ResetTimeout.Nanoseconds() {
		return false
	}
	// Only the first CAS from Open to HalfOpen wins; it becomes the probe.
	return atomic.CompareAndSwapInt32(&b.state, int32(Open), int32(HalfOpen))
}

func (b *Breaker) runProbe(primary func() error, fallback func() error) error {
	err := primary()
	if err != nil {
		b.onFailure()
		return fallback()
	}
	b.onProbeSuccess()
	return nil
}

func (b *Breaker) runClosed(primary func() error) error {
	err := primary()
	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) onSuccess() {
	atomic.StoreInt64(&b.failureCount, 0)
	atomic.AddInt64(&b.successCount, 1)
	atomic.StoreInt64(&b.lastSuccessTime, b.now())
}

func (b *Breaker) onProbeSuccess() {
	b.onSuccess()
	atomic.StoreInt64(&b.openSince, 0)
	atomic.StoreInt32(&b.state, int32(Closed))
}

func (b *Breaker) onFailure() {
	atomic.StoreInt64(&b.lastFailureTime, b.now())
	count := atomic.AddInt64(&b.failureCount, 1)

	if State(atomic.LoadInt32(&b.state)) == HalfOpen {
		atomic.StoreInt64(&b.openSince, b.now())
		atomic.StoreInt32(&b.state, int32(Open))
		return
	}

	if int(count) >= b.cfg.FailureThreshold {
		if atomic.CompareAndSwapInt32(&b.state, int32(Closed), int32(Open)) {
			atomic.StoreInt64(&b.openSince, b.now())
		}
	}
}

// Reset forces the breaker back to CLOSED, clearing the failure count and
// the open-since stamp.
func (b *Breaker) Reset() {
	atomic.StoreInt32(&b.state, int32(Closed))
	atomic.StoreInt64(&b.failureCount, 0)
	atomic.StoreInt64(&b.openSince, 0)
}

// Snapshot reports the breaker's current tuple, for diagnostics.
type Snapshot struct {
	State           State
	FailureCount    int64
	SuccessCount    int64
	LastFailureTime int64
	LastSuccessTime int64
	OpenSince       int64
}

// Snapshot returns a point-in-time view of the breaker's state tuple.
func (b *Breaker) Snapshot() Snapshot {
	return Snapshot{
		State:           b.State(),
		FailureCount:    atomic.LoadInt64(&b.failureCount),
		SuccessCount:    atomic.LoadInt64(&b.successCount),
		LastFailureTime: atomic.LoadInt64(&b.lastFailureTime),
		LastSuccessTime: atomic.LoadInt64(&b.lastSuccessTime),
		OpenSince:       atomic.LoadInt64(&b.openSince),
	}
}
