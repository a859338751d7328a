// errors.go: structured error handling for bastion, built on go-errors for
// rich context, retryability tagging, and standardized error codes.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import (
	goerrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for bastion operations, grouped by concern.
const (
	// Configuration errors
	ErrCodeInvalidConfig errors.ErrorCode = "BASTION_INVALID_CONFIG"

	// Near-cache errors
	ErrCodeNearFailure errors.ErrorCode = "BASTION_NEAR_FAILURE"

	// Far-cache errors
	ErrCodeFarConnection   errors.ErrorCode = "BASTION_FAR_CONNECTION"
	ErrCodeFarTimeout      errors.ErrorCode = "BASTION_FAR_TIMEOUT"
	ErrCodeLockTimeout     errors.ErrorCode = "BASTION_LOCK_TIMEOUT"
	ErrCodeLockNotAcquired errors.ErrorCode = "BASTION_LOCK_NOT_ACQUIRED"

	// Data-source errors
	ErrCodeDataSourceFailed errors.ErrorCode = "BASTION_DATASOURCE_FAILED"

	// Serialization errors
	ErrCodeSerialization errors.ErrorCode = "BASTION_SERIALIZATION"

	// Internal errors
	ErrCodeInternalError  errors.ErrorCode = "BASTION_INTERNAL_ERROR"
	ErrCodePanicRecovered errors.ErrorCode = "BASTION_PANIC_RECOVERED"
)

// NewErrInvalidConfig reports a configuration constraint with no safe
// automatic repair.
func NewErrInvalidConfig(field string, value interface{}, constraint string) error {
	return errors.NewWithContext(ErrCodeInvalidConfig, "invalid configuration", map[string]interface{}{
		"field":      field,
		"value":      value,
		"constraint": constraint,
	})
}

// NewErrNearFailure wraps a near-cache collaborator error. Always
// logged-and-treated-as-miss by the facade, never surfaced.
func NewErrNearFailure(op string, key string, cause error) error {
	return errors.Wrap(cause, ErrCodeNearFailure, "near-cache operation failed").
		WithContext("operation", op).
		WithContext("key", key)
}

// NewErrFarConnection wraps a far-cache connectivity failure. Retryable.
func NewErrFarConnection(op string, key string, cause error) error {
	return errors.Wrap(cause, ErrCodeFarConnection, "far-cache connection failed").
		WithContext("operation", op).
		WithContext("key", key).
		AsRetryable()
}

// NewErrFarTimeout wraps a far-cache round-trip timeout. Retryable.
func NewErrFarTimeout(op string, key string, cause error) error {
	return errors.Wrap(cause, ErrCodeFarTimeout, "far-cache operation timed out").
		WithContext("operation", op).
		WithContext("key", key).
		AsRetryable()
}

// NewErrLockTimeout reports that the distributed lock could not be
// acquired within lock_timeout. Internal outcome, never surfaced.
func NewErrLockTimeout(key string) error {
	return errors.NewWithField(ErrCodeLockTimeout, "lock acquisition timed out", "key", key)
}

// NewErrLockNotAcquired reports any other failure to acquire the lock.
func NewErrLockNotAcquired(key string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeLockNotAcquired, "lock not acquired").WithContext("key", key)
	}
	return errors.NewWithField(ErrCodeLockNotAcquired, "lock not acquired", "key", key)
}

// NewErrDataSourceFailed wraps a data-loader failure. Retryable and
// circuit-breaker-worthy.
func NewErrDataSourceFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeDataSourceFailed, "data source load failed").
		WithContext("key", key).
		AsRetryable()
}

// NewErrSerialization wraps an Entry (de)serialization failure. Treated as
// a miss.
func NewErrSerialization(op string, cause error) error {
	return errors.Wrap(cause, ErrCodeSerialization, "serialization failed").
		WithContext("operation", op)
}

// NewErrInternal is a catch-all for defensive panics and unreachable states.
func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, "internal error").
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, "internal error", "operation", operation).
		WithSeverity("warning")
}

// NewErrPanicRecovered reports a recovered panic from a loader or
// collaborator call.
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, "panic recovered", map[string]interface{}{
		"operation":   operation,
		"panic_value": panicValue,
	}).WithSeverity("critical")
}

// ClassifyError maps a bastion error to the CacheErrorType taxonomy used by
// the retry executor and the circuit breaker. Unrecognized errors classify
// as ErrTypeDataSource, the conservative choice for an opaque loader failure.
func ClassifyError(err error) CacheErrorType {
	switch GetErrorCode(err) {
	case ErrCodeNearFailure:
		return ErrTypeL1Error
	case ErrCodeFarConnection:
		return ErrTypeL2Connection
	case ErrCodeFarTimeout:
		return ErrTypeL2Timeout
	case ErrCodeLockTimeout:
		return ErrTypeLockTimeout
	case ErrCodeSerialization:
		return ErrTypeSerialization
	default:
		return ErrTypeDataSource
	}
}

// IsRetryable reports whether err is tagged retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from err, if any.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the structured context attached to err, if any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var bastionErr *errors.Error
	if goerrors.As(err, &bastionErr) {
		return bastionErr.Context
	}
	return nil
}
