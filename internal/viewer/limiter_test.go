package viewer

import (
	"context"
	"testing"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("Expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("Expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_PerDocument(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)

	if err := limiter.Wait(context.Background(), "doc-1"); err != nil {
		t.Fatalf("First wait failed: %v", err)
	}
	if limiter.Allow("doc-1") {
		t.Error("Expected allow to fail with exhausted tokens")
	}
	if !limiter.Allow("doc-2") {
		t.Error("Expected allow for another document")
	}
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 20; i++ {
		if !limiter.Allow("doc-1") {
			t.Fatalf("Expected unlimited limiter to allow call %d", i)
		}
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	_ = limiter.Wait(context.Background(), "doc-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Wait(ctx, "doc-1"); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
