package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	DefaultAPIRequests   = 10
	DefaultAPIWindow     = time.Minute
	DefaultAPIMaxClients = 500
)

// RequestLimiter keeps one token bucket per client identifier. Each bucket
// holds up to requests tokens and refills at requests per window.
type RequestLimiter struct {
	mu      sync.Mutex
	buckets *expirable.LRU[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

func NewRequestLimiter(requests int, window time.Duration, maxClients int) *RequestLimiter {
	if requests <= 0 {
		requests = DefaultAPIRequests
	}
	if window <= 0 {
		window = DefaultAPIWindow
	}
	if maxClients <= 0 {
		maxClients = DefaultAPIMaxClients
	}
	return &RequestLimiter{
		buckets: expirable.NewLRU[string, *rate.Limiter](maxClients, nil, window),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
	}
}

// Allow consumes one token from the bucket of key.
func (l *RequestLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.buckets.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	// Re-adding refreshes the idle expiry of the bucket.
	l.buckets.Add(key, limiter)
	l.mu.Unlock()

	return limiter.Allow()
}
