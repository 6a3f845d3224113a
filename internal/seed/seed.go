package seed

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/auth"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "inkwell-demo"

// Options configures a seeding run.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	FollowsPerUser  int
	// MaxDays bounds how far back generated pub dates go.
	MaxDays  int
	Password string
	Seed     int64
	// Clean wipes users, posts, comments, follows and groups first.
	Clean bool
	// SkipGroups leaves groups untouched; posts are then ungrouped unless groups exist.
	SkipGroups bool
	Logger     *slog.Logger
}

// Summary counts what a run created.
type Summary struct {
	Groups   int
	Users    int
	Posts    int
	Comments int
	Follows  int
}

func (s Summary) String() string {
	return fmt.Sprintf("groups=%d users=%d posts=%d comments=%d follows=%d",
		s.Groups, s.Users, s.Posts, s.Comments, s.Follows)
}

// Run seeds db according to opts.
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}

	if opts.Clean {
		if err := Clean(ctx, db); err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "database cleaned")
	}

	summary := &Summary{}
	groupRepo := repository.NewGroupRepository(db)
	if !opts.SkipGroups {
		builtIns := BuiltInGroups()
		if err := Groups(ctx, service.NewGroupService(groupRepo)); err != nil {
			return nil, fmt.Errorf("seed groups: %w", err)
		}
		summary.Groups = len(builtIns)
	}
	groups, err := groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	f := NewFactory(db, opts.Seed, hash, opts.MaxDays)

	existing, err := repository.NewUserRepository(db).Count(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := f.CreateUser(ctx, int(existing)+i+1)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	summary.Users = len(users)
	if len(users) == 0 {
		return summary, nil
	}

	posts := make([]*models.Post, 0, len(users)*opts.PostsPerUser)
	for _, user := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			var group *models.Group
			// Roughly a third of posts stay ungrouped.
			if len(groups) > 0 && f.Pick(3) > 0 {
				group = &groups[f.Pick(len(groups))]
			}
			posts = append(posts, f.BuildPost(user, group))
		}
	}
	if err := f.CreatePostsBatch(ctx, posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	summary.Posts = len(posts)

	comments := make([]*models.Comment, 0, len(posts)*opts.CommentsPerPost)
	for _, post := range posts {
		for i := 0; i < opts.CommentsPerPost; i++ {
			comments = append(comments, f.BuildComment(post, users[f.Pick(len(users))]))
		}
	}
	if err := f.CreateCommentsBatch(ctx, comments); err != nil {
		return nil, fmt.Errorf("create comments: %w", err)
	}
	summary.Comments = len(comments)

	for _, user := range users {
		for i := 0; i < opts.FollowsPerUser; i++ {
			created, err := f.Follow(ctx, user, users[f.Pick(len(users))])
			if err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			if created {
				summary.Follows++
			}
		}
	}

	logger.InfoContext(ctx, "seed complete",
		slog.Int("groups", summary.Groups),
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
		slog.Int("comments", summary.Comments),
		slog.Int("follows", summary.Follows),
	)
	return summary, nil
}

// Clean removes all blog content and accounts.
func Clean(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}} {
			if err := all.Delete(model).Error; err != nil {
				return fmt.Errorf("clean %T: %w", model, err)
			}
		}
		return nil
	})
}
