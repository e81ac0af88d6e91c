package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestRetry(t *testing.T) {
	errFatal := errors.New("fatal")
	tests := []struct {
		name      string
		fails     []error
		wantCalls int
		wantErr   error
	}{
		{"success", nil, 1, nil},
		{"fatal stops", []error{errFatal}, 1, errFatal},
		{"transient then ok", []error{Retryable(errTransient)}, 2, nil},
		{"exhausted", []error{Retryable(errTransient), Retryable(errTransient), Retryable(errTransient)}, 3, errTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), 3, time.Millisecond, func() error {
				calls++
				if calls <= len(tt.fails) {
					return tt.fails[calls-1]
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Retry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error { return Retryable(errTransient) })
	if err != context.Canceled {
		t.Errorf("Retry() error = %v, want %v", err, context.Canceled)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	err := Retryable(errTransient)
	if !IsRetryable(err) || err.Error() != errTransient.Error() {
		t.Errorf("Retryable() = %v, want a retryable %v", err, errTransient)
	}
	if IsRetryable(errTransient) {
		t.Error("IsRetryable(plain error) = true")
	}
}
