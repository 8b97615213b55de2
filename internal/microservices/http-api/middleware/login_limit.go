package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// LoginLimiter caps login attempts per client IP. Counts live in Redis when a
// client is configured; otherwise, or when Redis errors, a per-process token
// bucket keyed by IP takes over.
type LoginLimiter struct {
	rdb         *redis.Client
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger

	mu        sync.Mutex
	buckets   map[string]*localBucket
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLoginLimiter(rdb *redis.Client, maxAttempts int, window time.Duration, logger *slog.Logger) *LoginLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginLimiter{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		buckets:     make(map[string]*localBucket),
		now:         time.Now,
	}
}

// Handler returns the gin middleware guarding the login route.
func (l *LoginLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		if !l.allow(c.Request.Context(), ip) {
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
			return
		}
		c.Next()
	}
}

func (l *LoginLimiter) allow(ctx context.Context, ip string) bool {
	if l.rdb != nil {
		key := "rl:login:" + ip

		// INCR and set TTL if new
		n, err := l.rdb.Incr(ctx, key).Result()
		if err == nil {
			if n == 1 {
				_ = l.rdb.Expire(ctx, key, l.window).Err()
			}
			return n <= int64(l.maxAttempts)
		}
		l.logger.Warn("login limiter falling back to local buckets", "error", err)
	}
	return l.bucket(ip).Allow()
}

func (l *LoginLimiter) bucket(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[ip]
	if !ok {
		// refill the full allowance once per window
		every := l.window / time.Duration(l.maxAttempts)
		b = &localBucket{limiter: rate.NewLimiter(rate.Every(every), l.maxAttempts)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

// sweep drops buckets idle for a whole window, at most once per window. A bucket
// idle that long has refilled completely, so a fresh one behaves the same.
func (l *LoginLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.window {
			delete(l.buckets, ip)
		}
	}
	l.lastSweep = now
}
