// Package bootstrap wires the runtime dependencies shared by the server and
// the command line tools.
package bootstrap

import (
	"context"
	"fmt"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/repository"
	"inkwell/internal/seed"
	"inkwell/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedGroups bool
	// SkipRedis leaves the redis client nil, for tools that never touch it.
	SkipRedis bool
}

// InitRuntime connects to the database and redis and optionally upserts the
// built-in groups. The redis client is nil when redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	var rdb *redis.Client
	if !opts.SkipRedis {
		rdb = cache.OpenOptional(ctx, cfg.RedisURL)
	}

	if opts.SeedGroups {
		groups := service.NewGroupService(repository.NewGroupRepository(db))
		if err := seed.Groups(ctx, groups); err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in groups: %w", err)
		}
	}

	return db, rdb, nil
}
