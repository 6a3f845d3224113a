package cache

import (
	"time"

	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
	fibercache "github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/redis/go-redis/v9"
)

// CacheHeader reports hit or miss on cached pages.
const CacheHeader = "X-Cache"

// PageCacheOptions configures PageCache.
type PageCacheOptions struct {
	TTL time.Duration
	// Redis backs the cache when non-nil; otherwise entries live in process memory.
	Redis *redis.Client
	// Enabled is consulted per request so the cache can be switched off by a flag.
	Enabled func() bool
}

// PageCache serves GET responses from a fixed-TTL cache keyed by the full
// request URL, query string included. Entries are shared by all visitors and
// are never invalidated by writes; they simply expire.
func PageCache(opts PageCacheOptions) fiber.Handler {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}

	cfg := fibercache.Config{
		Expiration:  ttl,
		CacheHeader: CacheHeader,
		Methods:     []string{fiber.MethodGet, fiber.MethodHead},
		KeyGenerator: func(c *fiber.Ctx) string {
			return utils.CopyString(c.OriginalURL())
		},
	}
	if opts.Enabled != nil {
		cfg.Next = func(*fiber.Ctx) bool { return !opts.Enabled() }
	}
	if s := NewRedisStorage(opts.Redis, PageKeyPrefix); s != nil {
		cfg.Storage = s
	}

	handler := fibercache.New(cfg)
	return func(c *fiber.Ctx) error {
		err := handler(c)
		if result := string(c.Response().Header.Peek(CacheHeader)); result != "" {
			observability.PageCacheResults.WithLabelValues(result).Inc()
		}
		return err
	}
}
