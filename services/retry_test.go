package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

var fastRetry = RetryConfig{
	MaxRetries:     3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     5 * time.Millisecond,
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		permanent bool
		wantCalls int
		wantErr   bool
	}{
		{"first attempt succeeds", 0, false, 1, false},
		{"succeeds after transient failures", 2, false, 3, false},
		{"exhausts retries", 10, false, 4, true},
		{"permanent error stops immediately", 10, true, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), fastRetry, func() error {
				calls++
				if calls <= tt.failures {
					if tt.permanent {
						return Permanent(ErrSymbolNotFound)
					}
					return errors.New("upstream 503")
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestWithRetry_PermanentUnwraps(t *testing.T) {
	err := WithRetry(context.Background(), fastRetry, func() error {
		return Permanent(ErrSymbolNotFound)
	})
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("err = %v, want ErrSymbolNotFound", err)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, RetryConfig{MaxRetries: 5, InitialBackoff: 50 * time.Millisecond, MaxBackoff: time.Second}, func() error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_BackoffCapped(t *testing.T) {
	start := time.Now()
	_ = WithRetry(context.Background(), RetryConfig{MaxRetries: 4, InitialBackoff: 2 * time.Millisecond, MaxBackoff: 4 * time.Millisecond}, func() error {
		return errors.New("fail")
	})
	// 2 + 4 + 4 + 4 ms of backoff
	if elapsed := time.Since(start); elapsed < 14*time.Millisecond {
		t.Errorf("elapsed = %v, want at least 14ms", elapsed)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code      int
		wantNil   bool
		permanent bool
		notFound  bool
	}{
		{200, true, false, false},
		{404, false, true, true},
		{400, false, true, false},
		{403, false, true, false},
		{429, false, false, false},
		{500, false, false, false},
		{503, false, false, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := classifyStatus(BreakerYahoo, "AAPL", tt.code)
			if (err == nil) != tt.wantNil {
				t.Fatalf("err = %v", err)
			}
			if err == nil {
				return
			}
			var perm *permanentError
			if got := errors.As(err, &perm); got != tt.permanent {
				t.Errorf("permanent = %v, want %v", got, tt.permanent)
			}
			if got := errors.Is(err, ErrSymbolNotFound); got != tt.notFound {
				t.Errorf("not found = %v, want %v", got, tt.notFound)
			}
		})
	}
}

func TestWithRetry_RateLimitRetried(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry, func() error {
		calls++
		if calls == 1 {
			return classifyStatus(BreakerYahoo, "AAPL", http.StatusTooManyRequests)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}
