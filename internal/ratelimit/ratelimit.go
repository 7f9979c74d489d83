// Package ratelimit provides a keyed token-bucket rate limiter. Each key
// gets its own independent limiter; the catalog client keys on endpoint
// family so search traffic cannot starve discovery.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// KeyedLimiter manages per-key rate limiting.
type KeyedLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a keyed limiter allowing rps requests per second with the
// given burst per key.
func New(rps float64, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether a request for the key may proceed now, without
// blocking.
func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.getLimiter(key).Allow()
}

// Wait blocks until a request for the key is allowed or the context is
// canceled. Use for outbound requests that must respect provider limits.
func (kl *KeyedLimiter) Wait(ctx context.Context, key string) error {
	return kl.getLimiter(key).Wait(ctx)
}

func (kl *KeyedLimiter) getLimiter(key string) *rate.Limiter {
	kl.mu.RLock()
	limiter, exists := kl.limiters[key]
	kl.mu.RUnlock()

	if exists {
		return limiter
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	if limiter, exists = kl.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(kl.limit, kl.burst)
	kl.limiters[key] = limiter
	return limiter
}
