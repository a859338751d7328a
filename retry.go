// retry.go: error/retry policy — the exponential-backoff executor wrapping
// the data-loader call, and the classification feeding the circuit
// breaker.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import (
	"context"
	"time"
)

// RetryConfig specifies the retry executor's backoff schedule and which
// error kinds it retries at all.
type RetryConfig struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	RetryableErrors   map[CacheErrorType]bool
}

// DefaultRetryConfig returns the default retryable set:
// {L2_CONNECTION, L2_TIMEOUT, DATASOURCE}.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      50 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableErrors: map[CacheErrorType]bool{
			ErrTypeL2Connection: true,
			ErrTypeL2Timeout:    true,
			ErrTypeDataSource:   true,
		},
	}
}

// Disposition classifies how the executor handled a thunk's terminal
// outcome.
type Disposition int

const (
	DispositionSuccess Disposition = iota
	DispositionRetry
	DispositionNoRetry
	DispositionFallback
	DispositionCircuitBreak
)

// Executor runs thunks per RetryConfig, sleeping interruptibly between
// attempts.
type Executor struct {
	cfg RetryConfig
}

// NewExecutor builds an Executor from cfg.
func NewExecutor(cfg RetryConfig) *Executor {
	return &Executor{cfg: cfg}
}

// Execute runs thunk up to MaxAttempts times. Between attempt n and n+1 it
// sleeps min(initial*multiplier^(n-1), max_delay). If the classified error
// type is not in RetryableErrors, the first failure surfaces immediately.
func (e *Executor) Execute(ctx context.Context, thunk func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		lastErr = thunk(ctx)
		if lastErr == nil {
			return nil
		}

		errType := ClassifyError(lastErr)
		if !e.cfg.RetryableErrors[errType] {
			return lastErr
		}
		if attempt == e.cfg.MaxAttempts {
			break
		}

		delay := e.backoffFor(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// ExecuteWithFallback behaves like Execute but returns fallback() instead of
// the terminal error.
func (e *Executor) ExecuteWithFallback(ctx context.Context, thunk func(ctx context.Context) error, fallback func() error) error {
	if err := e.Execute(ctx, thunk); err != nil {
		return fallback()
	}
	return nil
}

func (e *Executor) backoffFor(attempt int) time.Duration {
	delay := float64(e.cfg.InitialDelay) * pow(e.cfg.BackoffMultiplier, attempt-1)
	if time.Duration(delay) > e.cfg.MaxDelay {
		return e.cfg.MaxDelay
	}
	return time.Duration(delay)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

func dispositionName(d Disposition) string {
	switch d {
	case DispositionSuccess:
		return "success"
	case DispositionRetry:
		return "retry"
	case DispositionNoRetry:
		return "no_retry"
	case DispositionFallback:
		return "fallback"
	case DispositionCircuitBreak:
		return "circuit_break"
	default:
		return "unknown"
	}
}

// classifyDisposition folds ClassifyError and retryability into the
// disposition vocabulary the error handling design names distinctly from
// plain retry/no_retry: a DATASOURCE failure is additionally
// circuit_break-worthy.
func classifyDisposition(err error) Disposition {
	if err == nil {
		return DispositionSuccess
	}
	errType := ClassifyError(err)
	if errType == ErrTypeDataSource {
		return DispositionCircuitBreak
	}
	if IsRetryable(err) {
		return DispositionRetry
	}
	return DispositionNoRetry
}

