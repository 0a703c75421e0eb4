package ratelimiter

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"
)

// unlimited is used when a zero rate is configured.
const unlimited = 1_000_000_000

// RateLimiter keeps one token bucket per client key (the API uses the
// client IP).
//
// Tokens are added to each bucket at requestsPerSecond and a request
// consumes one. A full bucket serves burst requests back to back.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *xsync.Map[string, *bucket]

	// now is swapped in tests.
	now func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// New creates a RateLimiter with the given per-client rate and burst.
//
// Special cases:
//   - requestsPerSecond = 0: no rate limiting
//   - burst = 0: defaults to requestsPerSecond
//
// Example:
//
//	// 50 req/s per client, bursts of 100
//	limiter := New(50, 100)
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		requestsPerSecond = unlimited
		burst = unlimited
	}
	if burst == 0 {
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limit:   rate.Limit(requestsPerSecond),
		burst:   int(burst),
		buckets: xsync.NewMap[string, *bucket](),
		now:     time.Now,
	}
}

// Allow reports whether a request from key may proceed now, consuming a
// token if so. It never blocks.
func (r *RateLimiter) Allow(key string) bool {
	now := r.now()
	b := r.bucketFor(key)
	b.lastSeen.Store(now.UnixNano())
	return b.limiter.AllowN(now, 1)
}

// Tokens returns the tokens currently available to key. Unknown keys report
// a full bucket.
func (r *RateLimiter) Tokens(key string) float64 {
	b, ok := r.buckets.Load(key)
	if !ok {
		return float64(r.burst)
	}
	return b.limiter.TokensAt(r.now())
}

// Len returns the number of tracked clients.
func (r *RateLimiter) Len() int {
	return r.buckets.Size()
}

// Prune forgets clients that have not been seen for idle and returns how
// many were removed. A pruned client starts again with a full bucket.
func (r *RateLimiter) Prune(idle time.Duration) int {
	cutoff := r.now().Add(-idle).UnixNano()

	removed := 0
	r.buckets.Range(func(key string, b *bucket) bool {
		if b.lastSeen.Load() < cutoff {
			r.buckets.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func (r *RateLimiter) bucketFor(key string) *bucket {
	if b, ok := r.buckets.Load(key); ok {
		return b
	}
	b, _ := r.buckets.LoadOrStore(key, &bucket{limiter: rate.NewLimiter(r.limit, r.burst)})
	return b
}
