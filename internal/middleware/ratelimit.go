package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Limiter decides whether one more request from key fits in the current
// window. retryAfter is the time left until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}

type bucket struct {
	count int
	until time.Time
}

// MemoryLimiter is a per-process fixed window limiter. Expired buckets are
// swept at most once per window.
type MemoryLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     int
	per       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

func NewMemoryLimiter(limit int, per time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		per:     per,
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if now.After(m.nextSweep) {
		m.sweepLocked(now)
	}
	b, ok := m.buckets[key]
	if !ok || now.After(b.until) {
		b = &bucket{count: 0, until: now.Add(m.per)}
		m.buckets[key] = b
	}
	if b.count >= m.limit {
		return false, b.until.Sub(now), nil
	}
	b.count++
	return true, 0, nil
}

func (m *MemoryLimiter) sweepLocked(now time.Time) {
	for key, b := range m.buckets {
		if now.After(b.until) {
			delete(m.buckets, key)
		}
	}
	m.nextSweep = now.Add(m.per)
}

// RedisLimiter shares fixed windows across replicas with INCR and EXPIRE.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	per    time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, per time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, per: per, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	redisKey := windowKey(l.prefix, key, now, l.per)
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.per)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, fmt.Errorf("rate limit: %w", err)
	}
	if incr.Val() > int64(l.limit) {
		return false, windowRemaining(now, l.per), nil
	}
	return true, 0, nil
}

// windowKey names the counter for the fixed window containing now.
func windowKey(prefix, key string, now time.Time, per time.Duration) string {
	window := now.UnixNano() / int64(per)
	return prefix + ":" + key + ":" + strconv.FormatInt(window, 10)
}

func windowRemaining(now time.Time, per time.Duration) time.Duration {
	elapsed := time.Duration(now.UnixNano() % int64(per))
	return per - elapsed
}

// RateLimit answers 429 once a client exceeds its window. Limiter failures
// let the request through.
func RateLimit(limiter Limiter, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			ok, retryAfter, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				secs := int(retryAfter.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				WriteError(w, r, http.StatusTooManyRequests, "rate_limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIPForRateLimit keys on the connection address. Forwarded headers are
// only honored when the router runs chi's RealIP (TRUST_PROXY_HEADERS), which
// rewrites RemoteAddr before this point.
func clientIPForRateLimit(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
