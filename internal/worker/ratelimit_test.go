package worker

import (
	"context"
	"testing"
)

func TestNewRateLimiter(t *testing.T) {
	if !NewRateLimiter(0).Unlimited() {
		t.Error("NewRateLimiter(0) should be unlimited")
	}
	if NewRateLimiter(10).Unlimited() {
		t.Error("NewRateLimiter(10) should be limited")
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(100)

	if err := rl.Wait(context.Background()); err != nil {
		t.Errorf("Wait returned error: %v", err)
	}
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	rl := NewRateLimiter(100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Error("expected error from Wait with cancelled context")
	}
}
