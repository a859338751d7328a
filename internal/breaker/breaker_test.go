package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(Config{FailureThreshold: 3, ResetTimeout: time.Second, Clock: clock})

	failing := func() error { return errors.New("boom") }
	fallbackCalls := 0
	fallback := func() error { fallbackCalls++; return nil }

	for i := 0; i < 3; i++ {
		err := b.Execute(failing, fallback)
		require.Error(t, err)
	}

	require.Equal(t, Open, b.State())
	require.Equal(t, 0, fallbackCalls)

	// Fourth call within reset timeout short-circuits via fallback.
	require.NoError(t, b.Execute(failing, fallback))
	require.Equal(t, 1, fallbackCalls)
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(Config{FailureThreshold: 1, ResetTimeout: time.Second, Clock: clock})

	require.Error(t, b.Execute(func() error { return errors.New("boom") }, func() error { return nil }))
	require.Equal(t, Open, b.State())

	clock.Advance(2 * time.Second)

	probed := false
	err := b.Execute(func() error { probed = true; return nil }, func() error { return nil })
	require.NoError(t, err)
	require.True(t, probed)
	require.Equal(t, Closed, b.State())
}

func TestBreakerProbeFailureReopens(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(Config{FailureThreshold: 1, ResetTimeout: time.Second, Clock: clock})

	require.Error(t, b.Execute(func() error { return errors.New("boom") }, func() error { return nil }))
	clock.Advance(2 * time.Second)

	err := b.Execute(func() error { return errors.New("still broken") }, func() error { return nil })
	require.NoError(t, err) // fallback swallows on probe failure
	require.Equal(t, Open, b.State())
}

func TestBreakerReset(t *testing.T) {
	b := New(Config{FailureThreshold: 1, ResetTimeout: time.Second})
	require.Error(t, b.Execute(func() error { return errors.New("boom") }, func() error { return nil }))
	require.Equal(t, Open, b.State())
	b.Reset()
	require.Equal(t, Closed, b.State())
}
