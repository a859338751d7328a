// Package farcache implements the default, Redis-backed far-cache
// collaborator: a networked key/value store with a single-key distributed
// lock and a TTL-jitter put. The lock is an NX set with a per-holder
// token and a TTL; release is a Lua compare-and-delete so only the
// current holder can remove it.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package farcache

import (
	"context"
	"math/rand"
	"time"

	"github.com/agilira/bastion"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript atomically deletes a key only if its current value matches
// the holder's token, so an expired-then-reacquired lock is never released
// by a stale holder.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Config parameterizes a Store.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Client, if set, is used instead of constructing one from Addr/
	// Password/DB. Primarily for tests against miniredis.
	Client redis.UniversalClient
}

// Store is a Redis-backed bastion.FarCache[V].
type Store[V any] struct {
	client  redis.UniversalClient
	release *redis.Script
}

// New builds a Store from cfg.
func New[V any](cfg Config) *Store[V] {
	client := cfg.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}
	return &Store[V]{
		client:  client,
		release: redis.NewScript(releaseScript),
	}
}

// Get implements bastion.FarCache[V].
func (s *Store[V]) Get(ctx context.Context, key string) (bastion.Entry[V], bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		var zero bastion.Entry[V]
		return zero, false, nil
	}
	if err != nil {
		var zero bastion.Entry[V]
		return zero, false, bastion.NewErrFarConnection("get", key, err)
	}

	entry, decErr := decodeEntry[V](data)
	if decErr != nil {
		var zero bastion.Entry[V]
		return zero, false, bastion.NewErrSerialization("decode", decErr)
	}
	return entry, true, nil
}

// Put implements bastion.FarCache[V].
func (s *Store[V]) Put(ctx context.Context, key string, entry bastion.Entry[V], ttl int64) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return bastion.NewErrSerialization("encode", err)
	}
	if err := s.client.Set(ctx, key, data, time.Duration(ttl)).Err(); err != nil {
		return bastion.NewErrFarConnection("put", key, err)
	}
	return nil
}

// Delete implements bastion.FarCache[V].
func (s *Store[V]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return bastion.NewErrFarConnection("delete", key, err)
	}
	return nil
}

// GetWithLock implements bastion.FarCache[V]: it attempts "SET NX PX" on
// the lock key with a fresh token, then reads the current cached entry
// regardless of whether the lock was acquired.
func (s *Store[V]) GetWithLock(ctx context.Context, key string, lockTimeout int64) (bastion.Entry[V], bool, bool, string, error) {
	token := uuid.NewString()
	lk := "lock:" + key

	acquired, err := s.client.SetNX(ctx, lk, token, time.Duration(lockTimeout)).Result()
	if err != nil {
		var zero bastion.Entry[V]
		return zero, false, false, "", bastion.NewErrLockNotAcquired(key, err)
	}

	entry, found, getErr := s.Get(ctx, key)
	if getErr != nil {
		return entry, found, acquired, token, getErr
	}
	return entry, found, acquired, token, nil
}

// ReleaseLock implements bastion.FarCache[V] via the atomic compare-and-
// delete Lua script.
func (s *Store[V]) ReleaseLock(ctx context.Context, key string, token string) error {
	lk := "lock:" + key
	if err := s.release.Run(ctx, s.client, []string{lk}, token).Err(); err != nil && err != redis.Nil {
		return bastion.NewErrFarConnection("release_lock", key, err)
	}
	return nil
}

// PutWithRandomTTL writes with effective TTL base·(1±u), u drawn uniformly
// from [0.10,0.30] with a fair-coin sign, floored at 1s. jitterPct is
// clamped into [10,30] but only bounds the clamp; u is always redrawn from
// the fixed [0.10,0.30] range regardless of jitterPct's value.
func (s *Store[V]) PutWithRandomTTL(ctx context.Context, key string, entry bastion.Entry[V], baseTTL int64, jitterPct int) error {
	if jitterPct < bastion.MinTTLJitterPct {
		jitterPct = bastion.MinTTLJitterPct
	} else if jitterPct > bastion.MaxTTLJitterPct {
		jitterPct = bastion.MaxTTLJitterPct
	}
	_ = jitterPct // clamped for parity with callers; intentionally unused beyond that, see doc comment.

	u := 0.10 + rand.Float64()*0.20
	sign := 1.0
	if rand.Intn(2) == 1 {
		sign = -1.0
	}

	effective := int64(float64(baseTTL) * (1 + sign*u))
	if effective < int64(time.Second) {
		effective = int64(time.Second)
	}

	return s.Put(ctx, key, entry, effective)
}

// Close implements bastion.FarCache[V].
func (s *Store[V]) Close() error {
	return s.client.Close()
}
