package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// callerID renders the account_id context value as a decimal string.
// JWT claims decode numbers as float64, which fmt would print in
// scientific notation for large IDs; keys must stay readable and stable.
func callerID(v any) (string, bool) {
	switch t := v.(type) {
	case uint64:
		return strconv.FormatUint(t, 10), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatUint(uint64(t), 10), true
	case string:
		if t != "" {
			return t, true
		}
	}
	return "", false
}

// RateLimit returns a fixed-window limiter allowing perMin requests per
// minute per caller per route, counted in Redis so the limit holds across
// restarts. The caller key is the authenticated account when present,
// otherwise the client IP. With a nil Redis client, or when Redis errors,
// requests pass through rather than failing closed.
func RateLimit(rdb *redis.Client, perMin int) echo.MiddlewareFunc {
	if rdb == nil || perMin <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := c.RealIP()
			if id, ok := callerID(c.Get("account_id")); ok {
				caller = id
			}
			window := time.Now().UTC().Unix() / 60
			key := fmt.Sprintf("rl:%s:%s:%d", caller, c.Path(), window)

			ctx := c.Request().Context()
			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, 2*time.Minute).Err()
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(perMin))
			remaining := int64(perMin) - n
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if n > int64(perMin) {
				retry := 60 - time.Now().UTC().Unix()%60
				c.Response().Header().Set("Retry-After", strconv.FormatInt(retry, 10))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"retry_after": retry,
				})
			}
			return next(c)
		}
	}
}
