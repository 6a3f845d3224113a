// Package testutil provides shared test doubles and fixtures for tests.
package testutil

import (
	"testing"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB returns a fresh in-memory sqlite database with the full schema and
// foreign keys enforced. Each call gets its own database.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "!"}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateGroup inserts a group.
func CreateGroup(t testing.TB, db *gorm.DB, slug, title string) *models.Group {
	t.Helper()
	g := &models.Group{Slug: slug, Title: title, Description: title + " description"}
	require.NoError(t, db.Create(g).Error)
	return g
}

// CreatePost inserts a post. A zero pubDate means "now".
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, group *models.Group, text string, pubDate time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID, PubDate: pubDate}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, db.Omit("Author", "Group").Create(p).Error)
	return p
}
