package viewer

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles viewer calls per document
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter; a non-positive rate disables throttling
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until a call for the document is allowed or ctx is done
func (l *Limiter) Wait(ctx context.Context, documentID string) error {
	return l.getLimiter(documentID).Wait(ctx)
}

// Allow checks if a call is allowed without waiting
func (l *Limiter) Allow(documentID string) bool {
	return l.getLimiter(documentID).Allow()
}

func (l *Limiter) getLimiter(documentID string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[documentID]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[documentID]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[documentID] = limiter

	return limiter
}
