package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"config error is fatal", NewConfigError("embedding.api_key", ErrMissingCredentials), true},
		{"wrapped config error is fatal", fmt.Errorf("startup: %w", NewConfigError("judge.endpoint", nil)), true},
		{"executor error is not fatal", NewExecutorError("searcher", "q", ErrTimeout), false},
		{"extraction error is not fatal", NewExtractionError("{broken", nil), false},
		{"inconclusive error is not fatal", NewInconclusiveError("claim", nil), false},
		{"timeout error is not fatal", NewTimeoutError("search", time.Second), false},
		{"nil is not fatal", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewExecutorError("analyzer", "q", New("boom"))) {
		t.Error("executor errors should be retryable")
	}
	if !IsRetryable(NewTimeoutError("analyze", 30*time.Second)) {
		t.Error("timeout errors should be retryable")
	}
	if IsRetryable(NewConfigError("memory.provider", nil)) {
		t.Error("config errors should not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
}

func TestTimeoutErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("batch: %w", NewTimeoutError("subtask", 30*time.Second))
	if !Is(err, ErrTimeout) {
		t.Error("TimeoutError should match ErrTimeout sentinel through wrapping")
	}
}

func TestExecutorErrorUnwrap(t *testing.T) {
	cause := New("upstream 503")
	err := NewExecutorError("searcher", "solar panels", cause)
	if !Is(err, cause) {
		t.Error("ExecutorError should unwrap to its cause")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "context") != nil {
		t.Error("Wrapf(nil) should return nil")
	}
	err := Wrapf(ErrItemNotFound, "lookup %s", "mem-3")
	if !Is(err, ErrItemNotFound) {
		t.Error("Wrapf should preserve the wrapped sentinel")
	}
}
