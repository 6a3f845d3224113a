package database

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"inkwell/internal/middleware"

	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrationFile = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.(up|down)\.sql$`)

// Migration is one versioned pair of SQL scripts.
type Migration struct {
	Version  int
	Name     string
	Up       string
	Down     string
	Checksum string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// ParseMigrations reads NNNNNN_name.up.sql / NNNNNN_name.down.sql pairs from
// the root of fsys, ordered by version. Every up script needs its down script.
func ParseMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFile.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("unexpected file in migrations: %s", entry.Name())
		}
		version, _ := strconv.Atoi(match[1])
		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, err
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: match[2]}
			byVersion[version] = m
		} else if m.Name != match[2] {
			return nil, fmt.Errorf("migration %06d has two names: %s and %s", version, m.Name, match[2])
		}
		if match[3] == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("migration %s needs both an up and a down script", m)
		}
		sum := sha256.Sum256([]byte(m.Up))
		m.Checksum = hex.EncodeToString(sum[:])
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

var embeddedMigrations = sync.OnceValues(func() ([]Migration, error) {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}
	return ParseMigrations(sub)
})

// EmbeddedMigrations returns the migrations compiled into the binary.
func EmbeddedMigrations() ([]Migration, error) {
	return embeddedMigrations()
}

// appliedMigration is the bookkeeping row for one applied migration.
type appliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (appliedMigration) TableName() string {
	return "schema_migrations"
}

// Migrator applies and reverts SQL migrations, recording each one in
// schema_migrations together with a checksum of its up script.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a Migrator over the given migrations, or the embedded
// ones when none are passed.
func NewMigrator(db *gorm.DB, migrations ...Migration) (*Migrator, error) {
	if len(migrations) == 0 {
		embedded, err := EmbeddedMigrations()
		if err != nil {
			return nil, err
		}
		migrations = embedded
	}
	return &Migrator{db: db, migrations: migrations}, nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]appliedMigration, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&appliedMigration{}) {
		return map[int]appliedMigration{}, nil
	}
	var rows []appliedMigration
	if err := db.Order("version").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	out := make(map[int]appliedMigration, len(rows))
	for _, r := range rows {
		out[r.Version] = r
	}
	return out, nil
}

// verify rejects applied versions the binary does not know and applied
// scripts whose content has changed since.
func (m *Migrator) verify(applied map[int]appliedMigration) error {
	known := make(map[int]Migration, len(m.migrations))
	for _, mig := range m.migrations {
		known[mig.Version] = mig
	}

	var problems []string
	for version, row := range applied {
		mig, ok := known[version]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%06d is applied but unknown", version))
		case mig.Checksum != row.Checksum:
			problems = append(problems, fmt.Sprintf("%s was edited after being applied", mig))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return errors.New("schema_migrations is inconsistent: " + strings.Join(problems, "; "))
}

// Status returns the applied versions in order and the pending migrations.
func (m *Migrator) Status(ctx context.Context) ([]int, []Migration, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, nil, err
	}
	versions := make([]int, 0, len(applied))
	for v := range applied {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	var pending []Migration
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}
	return versions, pending, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&appliedMigration{}); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}
	if err := m.verify(applied); err != nil {
		return 0, err
	}

	ran := 0
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&appliedMigration{Version: mig.Version, Name: mig.Name, Checksum: mig.Checksum}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("apply %s: %w", mig, err)
		}
		middleware.Logger.InfoContext(ctx, "Migration applied", slog.String("migration", mig.String()))
		ran++
	}
	return ran, nil
}

// Down reverts version, which must be the most recently applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	versions, _, err := m.Status(ctx)
	if err != nil {
		return err
	}
	if len(versions) == 0 || versions[len(versions)-1] != version {
		return fmt.Errorf("migration %06d is not the latest applied migration", version)
	}

	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			target = &m.migrations[i]
		}
	}
	if target == nil {
		return fmt.Errorf("migration %06d is not known to this binary", version)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(target.Down).Error; err != nil {
			return err
		}
		return tx.Delete(&appliedMigration{}, version).Error
	})
	if err != nil {
		return fmt.Errorf("revert %s: %w", target, err)
	}
	middleware.Logger.InfoContext(ctx, "Migration rolled back", slog.String("migration", target.String()))
	return nil
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	_, err = m.Up(ctx)
	return err
}

// RollbackMigration reverts the embedded migration version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	return m.Down(ctx, version)
}
