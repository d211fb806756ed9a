package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	client func() *redis.Client
	limit  int64
	window time.Duration
}

type rateLimit struct {
	limit  int64
	window time.Duration
}

func rateLimitFromEnv() rateLimit {
	limit := int64(600)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	windowSec := int64(60)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			windowSec = n
		}
	}
	return rateLimit{limit: limit, window: time.Duration(windowSec) * time.Second}
}

// NewRateLimiter counts requests per client IP in fixed Redis windows.
// client is resolved per request because Redis connects after the server starts.
func NewRateLimiter(client func() *redis.Client, cfg rateLimit) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  cfg.limit,
		window: cfg.window,
	}
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	client := rl.client()
	if client == nil {
		c.Next()
		return
	}
	key := "RateLimit:" + c.ClientIP()
	ctx := c.Request.Context()

	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if count == 1 {
		if err := client.Expire(ctx, key, rl.window).Err(); err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}
	c.Next()
}
