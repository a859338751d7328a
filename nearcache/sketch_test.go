// sketch_test.go: tests for the frequency estimator.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nearcache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreqEstimatorRanksHotOverCold(t *testing.T) {
	f := newFreqEstimator(100)

	hot := stringHash("hot")
	cold := stringHash("cold")

	for i := 0; i < 50; i++ {
		f.touch(hot)
	}
	f.touch(cold)

	require.Greater(t, f.estimate(hot), f.estimate(cold))
}

func TestFreqEstimatorUntouchedIsZero(t *testing.T) {
	f := newFreqEstimator(100)
	require.EqualValues(t, 0, f.estimate(stringHash("never seen")))
}

func TestFreqEstimatorAgeHalves(t *testing.T) {
	f := newFreqEstimator(100)

	h := stringHash("k")
	for i := 0; i < 8; i++ {
		f.touch(h)
	}
	before := f.estimate(h)
	f.age()

	require.Equal(t, before/2, f.estimate(h))
}

func TestFreqEstimatorConcurrentTouch(t *testing.T) {
	f := newFreqEstimator(1000)
	h := stringHash("shared")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.touch(h)
			}
		}()
	}
	wg.Wait()

	require.Greater(t, f.estimate(h), uint64(0))
}
