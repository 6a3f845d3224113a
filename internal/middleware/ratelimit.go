package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen lets the submission through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoStore = errors.New("rate limit store unavailable")

// Quota is a fixed-window budget of form submissions.
type Quota struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Take.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// limitsDisabled reports whether quotas are off for the current environment.
// Local development and tests never throttle.
func limitsDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// Take spends one unit of the quota for who.
func (q Quota) Take(ctx context.Context, rdb *redis.Client, who string) (Decision, error) {
	if limitsDisabled() {
		return Decision{Allowed: true, Remaining: q.Limit}, nil
	}
	if rdb == nil {
		return Decision{}, errNoStore
	}

	key := fmt.Sprintf("rl:%s:%s", q.Name, who)
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("ratelimit").Inc()
		return Decision{}, err
	}

	left := ttl.Val()
	if left < 0 {
		// First hit of the window.
		if err := rdb.Expire(ctx, key, q.Window).Err(); err != nil {
			observability.RedisErrorRate.WithLabelValues("ratelimit").Inc()
			return Decision{}, err
		}
		left = q.Window
	}

	used := int(incr.Val())
	d := Decision{Allowed: used <= q.Limit, Remaining: max(q.Limit-used, 0)}
	if !d.Allowed {
		d.RetryAfter = left
	}
	return d, nil
}

// RateLimit returns a middleware allowing limit submissions per window.
// It keys by the signed-in user when present, otherwise by remote IP, and fails open.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	return Throttle(rdb, Quota{Name: name, Limit: limit, Window: window}, FailOpen)
}

// Throttle enforces q on unsafe methods; form pages can always be viewed.
func Throttle(rdb *redis.Client, q Quota, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Next()
		}

		who := "ip:" + c.IP()
		if p := auth.FromCtx(c); p != nil {
			who = "user:" + strconv.FormatUint(uint64(p.ID), 10)
		}

		d, err := q.Take(c.UserContext(), rdb, who)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"quota", q.Name, "error", err)
				return fiber.NewError(fiber.StatusServiceUnavailable, "rate limit unavailable")
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			Logger.InfoContext(c.UserContext(), "submission throttled", "quota", q.Name, "who", who)
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, slow down.")
		}
		return c.Next()
	}
}
