package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)

	cfg := &config.Config{
		DBDriver:                 DriverPostgres,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	cfg.DBDriver = DriverSQLite
	require.NoError(t, configurePool(db, cfg))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:blog.db?_foreign_keys=on&_busy_timeout=5000", SQLiteDSN("blog.db"))
	assert.Contains(t, SQLiteDSN(""), "inkwell.db")
}

func TestDialectorFor_RejectsUnknownDriver(t *testing.T) {
	_, err := dialectorFor(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestQueryLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewQueryLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), 200*time.Millisecond)
	ctx := context.Background()
	sql := func() (string, int64) { return `SELECT * FROM "posts"`, 3 }

	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), sql, errors.New("syntax error"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Empty(t, buf.String())

	// Fast statements are only logged in Info mode, at debug level.
	l.Trace(ctx, time.Now(), sql, nil)
	assert.Empty(t, buf.String())
	l.LogMode(logger.Info).Trace(ctx, time.Now(), sql, nil)
	assert.Contains(t, buf.String(), "level=DEBUG")

	buf.Reset()
	NewQueryLogger(slog.New(slog.NewTextHandler(&buf, nil)), 0).Trace(ctx, time.Now().Add(-time.Hour), sql, nil)
	assert.Empty(t, buf.String(), "slow query logging disabled")
}

func TestAutoMigrate_EnforcesRelationalRules(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))

	author := models.User{Username: "leo", Password: "x"}
	reader := models.User{Username: "anna", Password: "x"}
	require.NoError(t, db.Create(&author).Error)
	require.NoError(t, db.Create(&reader).Error)

	group := models.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, db.Create(&group).Error)

	post := models.Post{Text: "hello", AuthorID: author.ID, GroupID: &group.ID}
	require.NoError(t, db.Create(&post).Error)
	assert.False(t, post.PubDate.IsZero())

	comment := models.Comment{PostID: post.ID, AuthorID: reader.ID, Text: "nice"}
	require.NoError(t, db.Create(&comment).Error)

	require.NoError(t, db.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)

	t.Run("duplicate follow rejected", func(t *testing.T) {
		err := db.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error
		assert.Error(t, err)
	})

	t.Run("self follow rejected", func(t *testing.T) {
		err := db.Create(&models.Follow{UserID: reader.ID, AuthorID: reader.ID}).Error
		assert.Error(t, err)
	})

	t.Run("group delete sets post group to null", func(t *testing.T) {
		require.NoError(t, db.Delete(&models.Group{}, group.ID).Error)
		var reloaded models.Post
		require.NoError(t, db.First(&reloaded, post.ID).Error)
		assert.Nil(t, reloaded.GroupID)
	})

	t.Run("author delete cascades", func(t *testing.T) {
		require.NoError(t, db.Delete(&models.User{}, author.ID).Error)

		var posts, comments, follows int64
		db.Model(&models.Post{}).Count(&posts)
		db.Model(&models.Comment{}).Count(&comments)
		db.Model(&models.Follow{}).Count(&follows)
		assert.Zero(t, posts)
		assert.Zero(t, comments)
		assert.Zero(t, follows)
	})
}
