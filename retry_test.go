// retry_test.go: tests for the exponential-backoff retry executor.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import (
	"context"
	goerrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestExecutorRetriesRetryableErrors(t *testing.T) {
	ex := NewExecutor(fastRetryConfig())

	calls := 0
	err := ex.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewErrDataSourceFailed("k", goerrors.New("transient"))
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestExecutorStopsAtMaxAttempts(t *testing.T) {
	ex := NewExecutor(fastRetryConfig())

	calls := 0
	err := ex.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return NewErrDataSourceFailed("k", goerrors.New("permanent"))
	})

	require.Error(t, err)
	require.Equal(t, 3, calls)
}

func TestExecutorNonRetryableSurfacesImmediately(t *testing.T) {
	ex := NewExecutor(fastRetryConfig())

	calls := 0
	err := ex.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return NewErrSerialization("decode", goerrors.New("bad payload"))
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestExecutorWithFallback(t *testing.T) {
	ex := NewExecutor(fastRetryConfig())

	fallbackRan := false
	err := ex.ExecuteWithFallback(context.Background(),
		func(ctx context.Context) error {
			return NewErrDataSourceFailed("k", goerrors.New("down"))
		},
		func() error {
			fallbackRan = true
			return nil
		})

	require.NoError(t, err)
	require.True(t, fallbackRan)
}

func TestExecutorCancelledBetweenAttempts(t *testing.T) {
	cfg := fastRetryConfig()
	cfg.InitialDelay = 100 * time.Millisecond
	cfg.MaxDelay = time.Second
	ex := NewExecutor(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := ex.Execute(ctx, func(ctx context.Context) error {
		calls++
		return NewErrDataSourceFailed("k", goerrors.New("down"))
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestBackoffSchedule(t *testing.T) {
	ex := NewExecutor(RetryConfig{
		MaxAttempts:       5,
		InitialDelay:      10 * time.Millisecond,
		MaxDelay:          35 * time.Millisecond,
		BackoffMultiplier: 2.0,
	})

	require.Equal(t, 10*time.Millisecond, ex.backoffFor(1))
	require.Equal(t, 20*time.Millisecond, ex.backoffFor(2))
	require.Equal(t, 35*time.Millisecond, ex.backoffFor(3)) // capped at MaxDelay
	require.Equal(t, 35*time.Millisecond, ex.backoffFor(4))
}

func TestClassifyDisposition(t *testing.T) {
	require.Equal(t, DispositionSuccess, classifyDisposition(nil))
	require.Equal(t, DispositionCircuitBreak,
		classifyDisposition(NewErrDataSourceFailed("k", goerrors.New("down"))))
	require.Equal(t, DispositionRetry,
		classifyDisposition(NewErrFarConnection("get", "k", goerrors.New("refused"))))
	require.Equal(t, DispositionNoRetry,
		classifyDisposition(NewErrSerialization("decode", goerrors.New("bad"))))
}
