package service

import (
	"errors"
	"fmt"
)

// Closed error-code set for the transaction core. Every failure a core
// operation can return carries one of these codes plus a retryable flag, so
// callers (handlers, batch updater, sweeper) can branch without string
// matching.
const (
	CodeInvalidTable           = "INVALID_TABLE"
	CodeInvalidRestaurant      = "INVALID_RESTAURANT"
	CodeTableLocked            = "TABLE_LOCKED"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeValidationError        = "VALIDATION_ERROR"
	CodeTransactionAborted     = "TRANSACTION_ABORTED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeTransactionFailed      = "TRANSACTION_FAILED"
	CodeMaxRetriesExceeded     = "MAX_RETRIES_EXCEEDED"
)

// TxError is the uniform failure type returned by every core operation.
// Retryable marks transient contention (safe to re-run the whole operation);
// everything else is terminal and should be surfaced to the caller.
type TxError struct {
	Code      string
	Message   string
	Detail    map[string]any
	Retryable bool
	Err       error
}

func (e *TxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

func newTxError(code, message string, retryable bool) *TxError {
	return &TxError{Code: code, Message: message, Retryable: retryable}
}

// withDetail attaches a structured detail entry, allocating the map lazily.
func (e *TxError) withDetail(key string, value any) *TxError {
	if e.Detail == nil {
		e.Detail = make(map[string]any)
	}
	e.Detail[key] = value
	return e
}

// AsTxError extracts a *TxError from an error chain.
func AsTxError(err error) (*TxError, bool) {
	var txErr *TxError
	if errors.As(err, &txErr) {
		return txErr, true
	}
	return nil, false
}

// IsRetryable reports whether err represents transient contention. Unknown
// error types are never retried.
func IsRetryable(err error) bool {
	if txErr, ok := AsTxError(err); ok {
		return txErr.Retryable
	}
	return false
}

// CodeOf returns the error code, or empty string for non-TxError errors.
func CodeOf(err error) string {
	if txErr, ok := AsTxError(err); ok {
		return txErr.Code
	}
	return ""
}
