// facade.go: the read/write/invalidate orchestrator tying together the
// near cache, far cache, membership filter, hot-key detector, circuit
// breaker, and metrics recorder. In-process single-flight coalescing is
// layered in front of the distributed lock ahead of a direct load.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import (
	"context"
	"time"

	"github.com/agilira/bastion/internal/breaker"
	"github.com/agilira/bastion/internal/filter"
	"github.com/agilira/bastion/internal/hotkey"
	"github.com/agilira/bastion/metrics"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Facade is the generic two-tier read-through cache orchestrator.
type Facade[K comparable, V any] struct {
	cfg Config

	near   NearCache[K, V]
	far    FarCache[V]
	loader DataLoader[K, V]

	filter   *filter.Filter
	hotkeys  *hotkey.Detector
	breaker  *breaker.Breaker
	recorder *metrics.Recorder
	executor *Executor
	sched    *deleteScheduler
	limiter  *rate.Limiter

	group singleflight.Group
}

// New builds a Facade from cfg, a near-cache collaborator, a far-cache
// collaborator, and the authoritative data loader. cfg is validated (and
// defaulted) in place.
func New[K comparable, V any](cfg Config, near NearCache[K, V], far FarCache[V], loader DataLoader[K, V]) (*Facade[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Facade[K, V]{
		cfg:      cfg,
		near:     near,
		far:      far,
		loader:   loader,
		filter:   filter.New(cfg.Filter.ExpectedInsertions, cfg.Filter.FalsePositiveRate, cfg.Filter.RebuildThreshold),
		hotkeys:  hotkey.New(hotkey.Config{Threshold: cfg.HotKey.Threshold, Window: cfg.HotKey.Window}),
		breaker:  breaker.New(breaker.Config{FailureThreshold: cfg.Breaker.FailureThreshold, ResetTimeout: cfg.Breaker.ResetTimeout}),
		recorder: metrics.New(),
		executor: NewExecutor(cfg.Retry),
		sched:    newDeleteScheduler(),
	}

	if cfg.DataSource.MaxLoadRPS > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.DataSource.MaxLoadRPS), 1)
	}

	return f, nil
}

// Metrics returns the facade's metrics recorder, for export.
func (f *Facade[K, V]) Metrics() *metrics.Recorder {
	return f.recorder
}

// Filter returns the membership filter, for operator-driven warmup
// (inserting the known key population at startup) and rebuild against a
// known source of truth.
func (f *Facade[K, V]) Filter() MembershipFilter {
	return f.filter
}

var _ MembershipFilter = (*filter.Filter)(nil)

// HotKeyReconfigurer exposes the hot-key detector for HotReload.
func (f *Facade[K, V]) HotKeyReconfigurer() HotKeyReconfigurer {
	return f.hotkeys
}

func (f *Facade[K, V]) now() int64 {
	return f.cfg.TimeProvider.Now()
}

// Get implements the GET path: hot-key recording, penetration guard,
// near-cache lookup, far-cache lookup with refill, then a hot-key or
// direct-load branch.
func (f *Facade[K, V]) Get(ctx context.Context, key K) (V, bool) {
	start := time.Now()
	defer func() {
		f.recorder.RecordLatency(OpGet.String(), time.Since(start).Nanoseconds())
	}()

	var zero V
	ks := KeyString(key)

	f.hotkeys.RecordAccess(ks)

	if !f.filter.MightContain(ks) {
		f.recorder.RecordEvent(EventPenetration.String())
		return zero, false
	}

	if fp := f.filter.EstimatedFPRate(); fp > f.cfg.Filter.RebuildThreshold {
		f.cfg.Logger.Warn("membership filter false-positive rate above threshold", "rate", fp)
	}

	now := f.now()

	if entry, ok := f.near.Get(key); ok && !entry.Stale(now) {
		f.recorder.RecordHit(LevelNear.String())
		if entry.IsNegative {
			return zero, false
		}
		return entry.Value, true
	}
	f.recorder.RecordMiss(LevelNear.String())

	if entry, ok, err := f.far.Get(ctx, ks); err == nil && ok && !entry.Stale(now) {
		f.recorder.RecordHit(LevelFar.String())
		f.near.Put(key, entry, int64(f.cfg.Near.DefaultTTL))
		if entry.IsNegative {
			return zero, false
		}
		return entry.Value, true
	} else if err != nil {
		f.cfg.Logger.Warn("far-cache get failed", "key", ks, "error", err)
	}
	f.recorder.RecordMiss(LevelFar.String())

	if f.hotkeys.IsHot(ks) {
		return f.singleFlightBranch(ctx, key, ks)
	}
	return f.directLoadBranch(ctx, key, ks)
}

// singleFlightBranch coalesces concurrent loads for a hot key: an
// in-process singleflight group ahead of a distributed lock, with a
// bounded retry-then-reread fallback for callers that lose the lock race.
func (f *Facade[K, V]) singleFlightBranch(ctx context.Context, key K, ks string) (V, bool) {
	var zero V

	type result struct {
		value V
		found bool
	}

	v, err, _ := f.group.Do(lockKey(ks), func() (interface{}, error) {
		entry, found, acquired, token, err := f.far.GetWithLock(ctx, ks, int64(f.cfg.Far.LockTimeout))
		if err != nil {
			return result{}, nil // lock round-trip failure: treated as "not acquired, no value"
		}

		if acquired {
			f.recorder.RecordEvent(EventBreakdown.String())
			defer func() {
				if relErr := f.far.ReleaseLock(ctx, ks, token); relErr != nil {
					f.cfg.Logger.Warn("lock release failed", "key", ks, "error", relErr)
				}
			}()
			val, found := f.directLoadBranch(ctx, key, ks)
			return result{value: val, found: found}, nil
		}

		now := f.now()
		if found && !entry.Stale(now) {
			if entry.IsNegative {
				return result{}, nil
			}
			return result{value: entry.Value, found: true}, nil
		}

		select {
		case <-time.After(lockRetrySleep):
		case <-ctx.Done():
			return result{}, ctx.Err()
		}

		retryEntry, retryFound, retryErr := f.far.Get(ctx, ks)
		if retryErr == nil && retryFound && !retryEntry.Stale(f.now()) {
			if retryEntry.IsNegative {
				return result{}, nil
			}
			return result{value: retryEntry.Value, found: true}, nil
		}
		return result{}, nil
	})
	if err != nil {
		return zero, false
	}

	r := v.(result)
	if !r.found {
		return zero, false
	}
	return r.value, true
}

// directLoadBranch calls the data loader under circuit-breaker protection,
// writing a positive or negative entry on success.
func (f *Facade[K, V]) directLoadBranch(ctx context.Context, key K, ks string) (V, bool) {
	var zero V
	var value V
	var found bool

	loadOnce := func(ctx context.Context) error {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		v, ok, err := f.loader(ctx, key)
		if err != nil {
			return NewErrDataSourceFailed(ks, err)
		}
		if ok {
			f.putInternal(key, ks, v, int64(f.cfg.Far.DefaultTTL), f.hotkeys.IsHot(ks))
			value, found = v, true
			return nil
		}

		if f.cfg.Negative.Enabled {
			now := f.now()
			entry := NewNegativeEntry[V](now, int64(f.cfg.Negative.TTL), f.hotkeys.IsHot(ks))
			f.near.Put(key, entry, int64(f.cfg.Near.DefaultTTL))
			if putErr := f.far.Put(ctx, ks, entry, int64(f.cfg.Negative.TTL)); putErr != nil {
				f.cfg.Logger.Warn("far-cache negative put failed", "key", ks, "error", putErr)
			}
		}
		found = false
		return nil
	}

	// The retry executor runs inside the breaker: retries are exhausted
	// before a DATASOURCE failure counts against the breaker's threshold.
	primary := func() error {
		return f.executor.Execute(ctx, loadOnce)
	}

	fallback := func() error {
		f.recorder.RecordEvent(EventCircuitOpen.String())
		f.cfg.Logger.Error("circuit breaker open, returning absent", "key", ks)
		found = false
		return nil
	}

	if err := f.breaker.Execute(primary, fallback); err != nil {
		f.cfg.Logger.Warn("data loader failed", "key", ks, "error", err, "disposition", dispositionName(classifyDisposition(err)))
		return zero, false
	}
	if !found {
		return zero, false
	}
	return value, true
}

// Put writes value to both tiers and marks key present in the membership
// filter.
func (f *Facade[K, V]) Put(ctx context.Context, key K, value V, ttl time.Duration) error {
	start := time.Now()
	defer func() {
		f.recorder.RecordLatency(OpPut.String(), time.Since(start).Nanoseconds())
	}()

	if ttl <= 0 {
		ttl = f.cfg.Far.DefaultTTL
	}
	ks := KeyString(key)
	return f.putInternal(key, ks, value, int64(ttl), f.hotkeys.IsHot(ks))
}

func (f *Facade[K, V]) putInternal(key K, ks string, value V, ttl int64, hot bool) error {
	now := f.now()
	entry := NewEntry[V](value, now, ttl, hot)

	f.near.Put(key, entry, int64(f.cfg.Near.DefaultTTL))

	ctx := context.Background()
	if err := f.far.PutWithRandomTTL(ctx, ks, entry, ttl, f.cfg.Far.TTLJitterPct); err != nil {
		f.cfg.Logger.Warn("far-cache put failed", "key", ks, "error", err)
	}

	f.filter.Insert(ks)
	return nil
}

// Delete removes key from both tiers. Idempotent.
func (f *Facade[K, V]) Delete(ctx context.Context, key K) error {
	start := time.Now()
	defer func() {
		f.recorder.RecordLatency(OpDelete.String(), time.Since(start).Nanoseconds())
	}()

	ks := KeyString(key)
	f.near.Delete(key)
	if err := f.far.Delete(ctx, ks); err != nil {
		f.cfg.Logger.Warn("far-cache delete failed", "key", ks, "error", err)
	}
	return nil
}

// Invalidate deletes key immediately, then schedules a second delete after
// doubleDeleteDelay to close the write/read race window.
func (f *Facade[K, V]) Invalidate(ctx context.Context, key K) error {
	if err := f.Delete(ctx, key); err != nil {
		return err
	}
	f.sched.Schedule(doubleDeleteDelay, func() {
		if err := f.Delete(context.Background(), key); err != nil {
			f.cfg.Logger.Warn("scheduled delayed delete failed", "error", err)
		}
	})
	return nil
}

// MultiGet is a serial composition of Get; absent keys are omitted.
func (f *Facade[K, V]) MultiGet(ctx context.Context, keys []K) map[K]V {
	out := make(map[K]V, len(keys))
	for _, k := range keys {
		if v, ok := f.Get(ctx, k); ok {
			out[k] = v
		}
	}
	return out
}

// MultiPut is a serial composition of Put.
func (f *Facade[K, V]) MultiPut(ctx context.Context, values map[K]V, ttl time.Duration) error {
	for k, v := range values {
		if err := f.Put(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the scheduler and closes the far cache.
func (f *Facade[K, V]) Close() error {
	_ = f.sched.Close()
	_ = f.near.Close()
	return f.far.Close()
}
