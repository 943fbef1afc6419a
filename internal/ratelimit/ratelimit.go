// Package ratelimit throttles API callers per token subject, or per client IP
// for anonymous requests.
package ratelimit

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/industria/api/internal/config"
	apierrors "github.com/industria/api/internal/errors"
	"github.com/industria/api/internal/middleware"
)

const storePrefix = "industria:ratelimit"

// Limiter wraps a ulule limiter instance and the optional Redis client
// backing its store.
type Limiter struct {
	instance *limiter.Limiter
	client   *redis.Client
}

// New builds a Limiter from configuration. An empty RedisURL selects an
// in-memory store, which only limits a single process.
func New(cfg config.RateLimitConfig) (*Limiter, error) {
	rate := limiter.Rate{Period: cfg.Window, Limit: int64(cfg.Requests)}

	if cfg.RedisURL == "" {
		store := memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          storePrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
		return &Limiter{instance: limiter.New(store, rate)}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RATE_LIMIT_REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: storePrefix})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}

	return &Limiter{instance: limiter.New(store, rate), client: client}, nil
}

// Close releases the Redis client, if any.
func (l *Limiter) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}

// Middleware enforces the limit and reports it through X-RateLimit-* headers.
// Store failures let the request through.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := requestKey(c)

		lctx, err := l.instance.Get(c.Request.Context(), key)
		if err != nil {
			if log := middleware.GetLogger(c); log != nil {
				log.Error("Rate limiter store failed", err, map[string]interface{}{"key": key})
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryAfter := int64(time.Until(time.Unix(lctx.Reset, 0)).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			apierrors.TooManyRequests(c, "Too many requests, please try again later",
				map[string]interface{}{"retry_after": retryAfter})
			return
		}

		c.Next()
	}
}

func requestKey(c *gin.Context) string {
	if subject := c.GetString(middleware.SubjectKey); subject != "" {
		return "sub:" + subject
	}
	return "ip:" + c.ClientIP()
}
