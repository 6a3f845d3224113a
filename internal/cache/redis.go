// Package cache provides the Redis client and the page cache built on it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

// instrumentation records command latency and failures. A cache miss is not a failure.
type instrumentation struct{}

func (instrumentation) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (instrumentation) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, finish := observability.StartClientSpan(ctx, "redis", cmd.Name())
		start := time.Now()
		err := next(ctx, cmd)
		observability.RedisCommandLatency.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
			finish(err)
			return err
		}
		finish(nil)
		return err
	}
}

func (instrumentation) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, finish := observability.StartClientSpan(ctx, "redis", "pipeline")
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
			finish(err)
			return err
		}
		finish(nil)
		return err
	}
}

// NewClient builds an instrumented client for addr, which may be host:port
// or a redis:// URL. It does not dial.
func NewClient(addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}

	c := redis.NewClient(opts)
	c.AddHook(instrumentation{})
	return c, nil
}

// Open returns a client for addr once it answers a PING.
func Open(ctx context.Context, addr string) (*redis.Client, error) {
	c, err := NewClient(addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// OpenOptional is Open for deployments where redis is an optimization: on
// failure it logs a warning and returns nil, and callers fall back to
// in-process state.
func OpenOptional(ctx context.Context, addr string) *redis.Client {
	c, err := Open(ctx, addr)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "redis unavailable, continuing without it",
			"addr", addr, "error", err)
		return nil
	}
	middleware.Logger.InfoContext(ctx, "redis connected", "addr", addr)
	return c
}
