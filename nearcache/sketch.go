// sketch.go: the compact frequency estimator backing Engine's sampled
// eviction.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nearcache

import (
	"sync/atomic"
	"unsafe"
)

// freqEstimator approximates per-key access frequency with two atomic
// counter slots per key, derived from one hash by double hashing — the
// same discipline bastion's membership filter uses. Engine only needs a
// coarse ranking of eviction candidates, so two slots and a min are
// enough; the smaller slot bounds overcounting from colliding keys.
//
// Counters decay by halving once agePeriod touches have accumulated, so a
// formerly hot key cools off instead of pinning its slots forever.
type freqEstimator struct {
	slots []uint32
	mask  uint64

	ticks     uint32 // atomic; touches since the last aging pass
	agePeriod uint32
}

func newFreqEstimator(maxSize int) *freqEstimator {
	size := 256
	for size < maxSize {
		size <<= 1
	}
	return &freqEstimator{
		slots:     make([]uint32, size),
		mask:      uint64(size - 1),
		agePeriod: uint32(size) * 8,
	}
}

// touch records one access for keyHash.
func (f *freqEstimator) touch(keyHash uint64) {
	p1, p2 := f.positions(keyHash)
	f.bump(p1)
	f.bump(p2)

	if atomic.AddUint32(&f.ticks, 1)%f.agePeriod == 0 {
		f.age()
	}
}

// estimate returns a coarse access frequency for keyHash.
func (f *freqEstimator) estimate(keyHash uint64) uint64 {
	p1, p2 := f.positions(keyHash)
	a := atomic.LoadUint32(&f.slots[p1])
	b := atomic.LoadUint32(&f.slots[p2])
	if b < a {
		a = b
	}
	return uint64(a)
}

// positions derives the two slot indices for keyHash via
// Kirsch-Mitzenmacher double hashing.
func (f *freqEstimator) positions(keyHash uint64) (uint64, uint64) {
	const goldenRatio = 0x9e3779b97f4a7c15
	step := (keyHash * goldenRatio) | 1
	return keyHash & f.mask, (keyHash + step) & f.mask
}

func (f *freqEstimator) bump(i uint64) {
	for {
		old := atomic.LoadUint32(&f.slots[i])
		if old == ^uint32(0) {
			return
		}
		if atomic.CompareAndSwapUint32(&f.slots[i], old, old+1) {
			return
		}
	}
}

// age halves every slot so stale popularity decays.
func (f *freqEstimator) age() {
	for i := range f.slots {
		for {
			old := atomic.LoadUint32(&f.slots[i])
			if atomic.CompareAndSwapUint32(&f.slots[i], old, old>>1) {
				break
			}
		}
	}
}

// stringHash computes a 64-bit FNV-1a hash without allocating for the
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
