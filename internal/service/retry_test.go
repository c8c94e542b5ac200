package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meja-order/api/internal/service"
)

func fastRetry(maxRetries int) service.RetryConfig {
	return service.RetryConfig{MaxRetries: maxRetries, BaseDelay: time.Millisecond}
}

func TestExecuteWithRetryFirstAttemptSucceeds(t *testing.T) {
	attempts := 0
	result, err := service.ExecuteWithRetry(context.Background(), fastRetry(3),
		func(ctx context.Context) (int, error) {
			attempts++
			return 42, nil
		})
	if err != nil {
		t.Fatalf("ExecuteWithRetry: %v", err)
	}
	if result != 42 {
		t.Errorf("result = %d, want 42", result)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestExecuteWithRetryEventualSuccess(t *testing.T) {
	attempts := 0
	result, err := service.ExecuteWithRetry(context.Background(), fastRetry(3),
		func(ctx context.Context) (string, error) {
			attempts++
			if attempts < 3 {
				return "", &service.TxError{Code: service.CodeTransactionAborted, Retryable: true}
			}
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("ExecuteWithRetry: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok", result)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestExecuteWithRetryNonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	terminal := &service.TxError{Code: service.CodeValidationError, Message: "bad input"}
	_, err := service.ExecuteWithRetry(context.Background(), fastRetry(3),
		func(ctx context.Context) (int, error) {
			attempts++
			return 0, terminal
		})
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if !errors.Is(err, terminal) {
		t.Fatalf("err = %v, want the terminal error unchanged", err)
	}
}

func TestExecuteWithRetryExhaustsBudget(t *testing.T) {
	attempts := 0
	conflict := &service.TxError{Code: service.CodeTableLocked, Message: "busy", Retryable: true}
	_, err := service.ExecuteWithRetry(context.Background(), fastRetry(3),
		func(ctx context.Context) (int, error) {
			attempts++
			return 0, conflict
		})

	// MaxRetries counts retries, so the op runs MaxRetries+1 times.
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
	if service.CodeOf(err) != service.CodeMaxRetriesExceeded {
		t.Fatalf("err = %v, want MAX_RETRIES_EXCEEDED", err)
	}
	txErr, _ := service.AsTxError(err)
	if txErr.Detail["attempts"] != 4 {
		t.Errorf("detail attempts = %v, want 4", txErr.Detail["attempts"])
	}
	if !errors.Is(err, conflict) {
		t.Error("exhaustion error does not wrap the last failure")
	}
}

func TestExecuteWithRetryZeroRetries(t *testing.T) {
	attempts := 0
	_, err := service.ExecuteWithRetry(context.Background(), fastRetry(0),
		func(ctx context.Context) (int, error) {
			attempts++
			return 0, &service.TxError{Code: service.CodeTransactionAborted, Retryable: true}
		})
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if service.CodeOf(err) != service.CodeMaxRetriesExceeded {
		t.Fatalf("err = %v, want MAX_RETRIES_EXCEEDED", err)
	}
}

func TestExecuteWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := service.ExecuteWithRetry(ctx, service.RetryConfig{MaxRetries: 3, BaseDelay: time.Minute},
		func(ctx context.Context) (int, error) {
			attempts++
			cancel() // cancel while the first backoff is pending
			return 0, &service.TxError{Code: service.CodeTransactionAborted, Retryable: true}
		})
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if service.CodeOf(err) != service.CodeTransactionFailed {
		t.Fatalf("err = %v, want TRANSACTION_FAILED", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("error does not wrap context.Canceled")
	}
}
