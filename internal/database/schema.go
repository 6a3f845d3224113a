package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan says how the schema is brought up to date for one deployment.
type SchemaPlan struct {
	Mode    string
	Env     string
	Driver  string
	RunSQL  bool
	RunAuto bool
}

// SchemaStatus is a SchemaPlan plus the migration bookkeeping, for the
// migrate command.
type SchemaStatus struct {
	SchemaPlan
	AppliedVersions   []int
	PendingMigrations []Migration
}

// PlanSchema resolves DB_SCHEMA_MODE for the configured driver and
// environment. SQL migrations are written for PostgreSQL, so sqlite is always
// managed by AutoMigrate. AutoMigrate never runs against production or staging.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{
		Mode:   strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		Env:    cfg.Env,
		Driver: driverName(cfg),
	}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	switch plan.Mode {
	case SchemaModeHybrid, SchemaModeSQL, SchemaModeAuto:
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}

	if plan.Driver == DriverSQLite {
		plan.RunAuto = true
		return plan, nil
	}

	deployed := false
	switch strings.ToLower(strings.TrimSpace(cfg.Env)) {
	case "production", "prod", "staging", "stage":
		deployed = true
	}

	switch plan.Mode {
	case SchemaModeSQL:
		plan.RunSQL = true
	case SchemaModeAuto:
		if deployed {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		plan.RunAuto = true
	case SchemaModeHybrid:
		plan.RunSQL, plan.RunAuto = true, !deployed
	}
	return plan, nil
}

// AutoMigrate creates or updates tables for every persistent model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema runs the steps PlanSchema selects: SQL migrations first, then AutoMigrate.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.RunAuto {
		middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate",
			slog.String("mode", plan.Mode),
			slog.String("env", plan.Env),
			slog.String("driver", plan.Driver))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the plan and, when SQL migrations are in play,
// which ones are applied and pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.RunSQL {
		return status, nil
	}

	m, err := NewMigrator(db)
	if err != nil {
		return nil, err
	}
	if status.AppliedVersions, status.PendingMigrations, err = m.Status(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
