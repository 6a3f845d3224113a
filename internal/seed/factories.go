// Package seed creates demo data for development databases: the built-in
// groups plus fake users, posts, comments and follow edges.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them.
type Factory struct {
	db      *gorm.DB
	faker   *gofakeit.Faker
	follows repository.FollowRepository
	now     time.Time
	maxDays int
	// hash is reused for every generated user; bcrypt per user is too slow for bulk seeding.
	hash string
}

// NewFactory creates a Factory. The same seed always yields the same content.
func NewFactory(db *gorm.DB, seed int64, passwordHash string, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{
		db:      db,
		faker:   gofakeit.New(seed),
		follows: repository.NewFollowRepository(db),
		now:     time.Now(),
		maxDays: maxDays,
		hash:    passwordHash,
	}
}

// BuildUser returns an unsaved user. n keeps usernames unique within a run.
func (f *Factory) BuildUser(n int, overrides ...func(*models.User)) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Username:  fmt.Sprintf("%s_%d", usernameFrom(first+last), n),
		Email:     strings.ToLower(f.faker.Email()),
		Password:  f.hash,
		FirstName: first,
		LastName:  last,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(ctx context.Context, n int, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(n, overrides...)
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost returns an unsaved post by author with a pub date somewhere in
// the last maxDays days. group may be nil.
func (f *Factory) BuildPost(author *models.User, group *models.Group, overrides ...func(*models.Post)) *models.Post {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	post := &models.Post{
		Text:     f.faker.Paragraph(1, f.faker.Number(1, 4), 12, " "),
		AuthorID: author.ID,
		PubDate:  f.now.Add(-back),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists posts in a single insert.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).Omit("Author", "Group").Create(&posts).Error
}

// BuildComment returns an unsaved comment on post, dated after the post.
func (f *Factory) BuildComment(post *models.Post, author *models.User) *models.Comment {
	created := post.PubDate.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if created.After(f.now) {
		created = f.now
	}
	return &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Text:     f.faker.Sentence(f.faker.Number(3, 16)),
		Created:  created,
	}
}

// CreateCommentsBatch persists comments in a single insert.
func (f *Factory) CreateCommentsBatch(ctx context.Context, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).Omit("Author", "Post").Create(&comments).Error
}

// Follow records user -> author. It reports whether a new edge was created.
func (f *Factory) Follow(ctx context.Context, user, author *models.User) (bool, error) {
	if user.ID == author.ID {
		return false, nil
	}
	return f.follows.GetOrCreate(ctx, user.ID, author.ID)
}

// Pick returns an index in [0, n).
func (f *Factory) Pick(n int) int {
	return f.faker.Number(0, n-1)
}

func usernameFrom(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
