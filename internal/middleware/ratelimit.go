package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/config"
	"github.com/stemsi/gradebook-backend/internal/response"
)

// RateLimiter implements a per-IP fixed-window limiter. Counters live in Redis
// when a client is configured so every instance shares them; otherwise, or when
// Redis fails, an in-process counter is used.
type RateLimiter struct {
	rdb    *redis.Client
	scope  string
	limit  int
	window time.Duration
	log    zerolog.Logger

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	window int64
	count  int
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window for
// each client IP. rdb may be nil.
func NewRateLimiter(rdb *redis.Client, scope string, limit int, window time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		scope:    scope,
		limit:    limit,
		window:   window,
		log:      log.With().Str("component", "rate_limiter").Str("scope", scope).Logger(),
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.Request.Context(), c.ClientIP()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

// Allow counts one request from ip and reports whether it is within the limit.
func (rl *RateLimiter) Allow(ctx context.Context, ip string) bool {
	if rl.limit <= 0 {
		return true
	}
	window := rl.now().UnixNano() / int64(rl.window)

	if rl.rdb != nil {
		count, err := rl.incrRemote(ctx, ip, window)
		if err == nil {
			return count <= int64(rl.limit)
		}
		rl.log.Warn().Err(err).Msg("Redis rate limit failed, using local counter")
	}
	return rl.incrLocal(ip, window) <= rl.limit
}

func (rl *RateLimiter) incrRemote(ctx context.Context, ip string, window int64) (int64, error) {
	key := config.CacheKey.RateLimitKey(rl.scope, ip, window)

	var incr *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (rl *RateLimiter) incrLocal(ip string, window int64) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists || v.window != window {
		if !exists && len(rl.visitors) > 4096 {
			rl.cleanup(window)
		}
		v = &visitor{window: window}
		rl.visitors[ip] = v
	}
	v.count++
	return v.count
}

// cleanup drops counters from past windows. Caller holds rl.mu.
func (rl *RateLimiter) cleanup(current int64) {
	for ip, v := range rl.visitors {
		if v.window != current {
			delete(rl.visitors, ip)
		}
	}
}
