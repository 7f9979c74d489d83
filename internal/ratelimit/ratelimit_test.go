package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestKeyedLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			calls:    5,
			wantPass: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kl := New(tt.rps, tt.burst)

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if kl.Allow("discover") {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedLimiter_KeysAreIndependent(t *testing.T) {
	kl := New(1, 1)

	if !kl.Allow("discover") {
		t.Error("first discover call should pass")
	}
	if kl.Allow("discover") {
		t.Error("second discover call should be limited")
	}
	if !kl.Allow("search") {
		t.Error("search must not be starved by discover traffic")
	}
}

func TestKeyedLimiter_WaitRespectsContext(t *testing.T) {
	kl := New(0.1, 1) // one token every 10s after the burst

	if err := kl.Wait(context.Background(), "discover"); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := kl.Wait(ctx, "discover"); err == nil {
		t.Error("Wait() should fail when the context expires before a token")
	}
}
