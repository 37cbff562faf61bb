package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter in Redis. A nil client or an
// unreachable Redis lets every request through.
type RateLimiter struct {
	redisClient *redis.Client
}

type RateLimit struct {
	Requests int
	Window   time.Duration
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
	}
}

// Limit counts requests per client IP.
func (rl *RateLimiter) Limit(name string, limit RateLimit) gin.HandlerFunc {
	return rl.limit(limit, func(c *gin.Context) string {
		return fmt.Sprintf("rate_limit:%s:%s", name, c.ClientIP())
	})
}

// UserLimit counts requests per authenticated member and falls back to the
// client IP when RequireAuth has not run.
func (rl *RateLimiter) UserLimit(name string, limit RateLimit) gin.HandlerFunc {
	return rl.limit(limit, func(c *gin.Context) string {
		if id := GetUserID(c); id != 0 {
			return fmt.Sprintf("rate_limit:%s:user:%d", name, id)
		}
		return fmt.Sprintf("rate_limit:%s:%s", name, c.ClientIP())
	})
}

func (rl *RateLimiter) AuthLimit() gin.HandlerFunc {
	return rl.Limit("auth", RateLimit{
		Requests: 5,
		Window:   time.Minute,
	})
}

func (rl *RateLimiter) APILimit() gin.HandlerFunc {
	return rl.UserLimit("api", RateLimit{
		Requests: 100,
		Window:   time.Minute,
	})
}

func (rl *RateLimiter) limit(limit RateLimit, keyFor func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.redisClient == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := keyFor(c)

		val, err := rl.redisClient.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}

		count := 0
		if err == nil {
			count, _ = strconv.Atoi(val)
		}

		if count >= limit.Requests {
			ttl, _ := rl.redisClient.TTL(ctx, key).Result()

			c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "too many requests, please try again later")
			return
		}

		pipe := rl.redisClient.Pipeline()
		pipe.Incr(ctx, key)
		if count == 0 {
			pipe.Expire(ctx, key, limit.Window)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			c.Next()
			return
		}

		remaining := limit.Requests - count - 1
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(limit.Window).Unix(), 10))

		c.Next()
	}
}
