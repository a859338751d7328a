// Package filter implements the approximate-membership filter used as the
// facade's penetration guard: a classic bit-array Bloom filter with
// Kirsch-Mitzenmacher double hashing over a zero-alloc FNV-1a string hash.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package filter

import (
	"math"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Filter is a classic k-hash-function bit-array Bloom filter behind a
// single-writer/many-reader discipline: rebuild swaps in a fresh bit array
// under an exclusive lock; all other operations only need a read lock.
type Filter struct {
	mu sync.RWMutex

	bits []uint64
	m    uint64 // number of bits
	k    int    // number of hash functions

	expectedInsertions int
	falsePositiveRate  float64
	rebuildThreshold   float64

	insertedCount int64 // atomic, approximate count of Insert calls since last rebuild
}

// New sizes a Filter for expectedInsertions at the target falsePositiveRate,
// per the standard Bloom filter sizing formulas:
// m = -n*ln(p)/(ln(2)^2), k = (m/n)*ln(2).
func New(expectedInsertions int, falsePositiveRate float64, rebuildThreshold float64) *Filter {
	n := float64(expectedInsertions)
	if n < 1 {
		n = 1
	}
	p := falsePositiveRate
	if p <= 0 || p >= 1 {
		p = 0.01
	}

	m := uint64(math.Ceil(-n * math.Log(p) / (math.Ln2 * math.Ln2)))
	if m < 64 {
		m = 64
	}
	k := int(math.Round((float64(m) / n) * math.Ln2))
	if k < 1 {
		k = 1
	}

	words := (m + 63) / 64

	return &Filter{
		bits:               make([]uint64, words),
		m:                  words * 64,
		k:                  k,
		expectedInsertions: expectedInsertions,
		falsePositiveRate:  falsePositiveRate,
		rebuildThreshold:   rebuildThreshold,
	}
}

// MightContain tests whether s may have been inserted. False negatives are
// impossible for keys inserted since the last rebuild; false positives
// occur at roughly the configured rate.
func (f *Filter) MightContain(s string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	h1, h2 := splitHash(stringHash(s))
	for i := 0; i < f.k; i++ {
		bit := (h1 + uint64(i)*h2) % f.m
		if !f.getBit(bit) {
			return false
		}
	}
	return true
}

// Insert adds s to the filter. Inserting a key that is already present sets
// no new bits, but every call still counts toward ActualInsertions.
func (f *Filter) Insert(s string) {
	f.mu.RLock()
	h1, h2 := splitHash(stringHash(s))
	for i := 0; i < f.k; i++ {
		bit := (h1 + uint64(i)*h2) % f.m
		f.setBit(bit)
	}
	f.mu.RUnlock()

	atomic.AddInt64(&f.insertedCount, 1)
}

// Rebuild atomically replaces the filter with a fresh one sized to the same
// parameters, re-inserting every key in keys. Readers observe either the
// old or the new filter in full, never a partial swap.
func (f *Filter) Rebuild(keys []string) {
	fresh := New(f.expectedInsertions, f.falsePositiveRate, f.rebuildThreshold)
	for _, k := range keys {
		fresh.insertLocked(k)
	}
	atomic.StoreInt64(&fresh.insertedCount, int64(len(keys)))

	f.mu.Lock()
	f.bits = fresh.bits
	f.m = fresh.m
	f.k = fresh.k
	f.mu.Unlock()
	atomic.StoreInt64(&f.insertedCount, int64(len(keys)))
}

func (f *Filter) insertLocked(s string) {
	h1, h2 := splitHash(stringHash(s))
	for i := 0; i < f.k; i++ {
		bit := (h1 + uint64(i)*h2) % f.m
		f.setBit(bit)
	}
}

// EstimatedFPRate estimates the filter's current false-positive rate from
// its fill ratio: p ≈ (1 - e^(-k*n/m))^k.
func (f *Filter) EstimatedFPRate() float64 {
	f.mu.RLock()
	m := float64(f.m)
	k := float64(f.k)
	f.mu.RUnlock()

	n := float64(atomic.LoadInt64(&f.insertedCount))
	if n == 0 {
		return 0
	}
	return math.Pow(1-math.Exp(-k*n/m), k)
}

// ActualInsertions returns the number of Insert calls since construction
// (repeated keys counted each time), or the number of keys passed to the
// last Rebuild plus the Insert calls since then.
func (f *Filter) ActualInsertions() int64 {
	return atomic.LoadInt64(&f.insertedCount)
}

// Stats is a point-in-time view of the filter's sizing and fill state.
type Stats struct {
	ExpectedInsertions int
	ActualInsertions   int64
	TargetFPRate       float64
	EstimatedFPRate    float64
	Bits               uint64
	HashFunctions      int
}

// FilterStats returns a consistent snapshot of the filter's parameters and
// current fill state.
func (f *Filter) FilterStats() Stats {
	f.mu.RLock()
	s := Stats{
		ExpectedInsertions: f.expectedInsertions,
		TargetFPRate:       f.falsePositiveRate,
		Bits:               f.m,
		HashFunctions:      f.k,
	}
	m := float64(f.m)
	k := float64(f.k)
	f.mu.RUnlock()

	s.ActualInsertions = atomic.LoadInt64(&f.insertedCount)
	if n := float64(s.ActualInsertions); n > 0 {
		s.EstimatedFPRate = math.Pow(1-math.Exp(-k*n/m), k)
	}
	return s
}

func (f *Filter) getBit(i uint64) bool {
	word := atomic.LoadUint64(&f.bits[i/64])
	return word&(1<<(i%64)) != 0
}

func (f *Filter) setBit(i uint64) {
	idx := i / 64
	mask := uint64(1) << (i % 64)
	for {
		old := atomic.LoadUint64(&f.bits[idx])
		if old&mask != 0 {
			return
		}
		if atomic.CompareAndSwapUint64(&f.bits[idx], old, old|mask) {
			return
		}
	}
}

// splitHash derives two independent-enough hash values from one 64-bit
// hash via Kirsch-Mitzenmacher double hashing, avoiding k separate hash
// function evaluations.
func splitHash(h uint64) (uint64, uint64) {
	const goldenRatio = 0x9e3779b97f4a7c15
	h1 := h
	h2 := (h * goldenRatio) >> 1
	if h2 == 0 {
		h2 = 1
	}
	return h1, h2
}

// stringHash computes a 64-bit FNV-1a hash, avoiding an allocation for the
// string-to-bytes conversion.
func stringHash(s string) uint64 {
	const (
		fnv64Offset = 14695981039346656037
		fnv64Prime  = 1099511628211
	)

	hash := uint64(fnv64Offset)
	// #nosec G103 - read-only view of the string's backing bytes.
	data := unsafe.Slice(unsafe.StringData(s), len(s))
	for _, b := range data {
		hash ^= uint64(b)
		hash *= fnv64Prime
	}
	return hash
}
