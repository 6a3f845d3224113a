// Package server contains the HTTP handlers and routing for the blog pages.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/bootstrap"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	views          *views.Engine
	media          *media.Store
	tokens         *auth.Manager
	featureFlags   *featureflags.Manager

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	userService    *service.UserService
	postService    *service.PostService
	feedService    *service.FeedService
	commentService *service.CommentService
	followService  *service.FollowService
	groupService   *service.GroupService
}

// NewServer creates a new server instance, connecting to the database and redis.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{
		SeedGroups: cfg.SeedGroupsOnStart,
	})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; the page cache then lives in memory and logout
// only clears the cookie.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	engine := views.New()
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("inkwell"),
		views:          engine,
		media:          media.NewStore(cfg.MediaDir),
		tokens:         auth.NewManager(cfg.JWTSecret, cfg.SessionTTL(), redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
	}

	s.userService = service.NewUserService(s.userRepo)
	s.postService = service.NewPostService(s.postRepo, s.media)
	s.feedService = service.NewFeedService(s.postRepo, s.groupRepo)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)
	s.followService = service.NewFollowService(s.followRepo, s.userRepo)
	s.groupService = service.NewGroupService(s.groupRepo)

	return s, nil
}

// NewApp builds the fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Inkwell",
		Views:        s.views,
		ErrorHandler: s.ErrorHandler,
		// Leave room for the form fields around the largest accepted image.
		BodyLimit: int(s.config.ImageMaxUploadBytes()) + 1024*1024,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.TracingMiddleware())

	// Session must run before the context middleware so the user id is propagated.
	app.Use(middleware.Session(s.tokens, s.userRepo))
	app.Use(middleware.ContextMiddleware())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())
}

// SetupRoutes configures all routes for the application.
// Fixed prefixes must be registered before the /:username catch-alls.
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Inkwell Metrics Dashboard",
	}))

	app.Static(strings.TrimSuffix(media.URLPrefix, "/"), s.media.Root(), fiber.Static{
		ByteRange: true,
		MaxAge:    int((24 * time.Hour).Seconds()),
	})

	app.Get("/", cache.PageCache(cache.PageCacheOptions{
		TTL:   s.config.PageCacheTTL(),
		Redis: s.redis,
		Enabled: func() bool {
			return s.featureFlags.Enabled(featureflags.PageCache, 0)
		},
	}), s.Index)

	app.Get("/group/:slug/", s.GroupPosts)

	postLimit := middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post")
	app.Get("/new/", middleware.LoginRequired(), s.NewPostForm)
	app.Post("/new/", middleware.LoginRequired(), postLimit, s.CreatePost)

	app.Get("/follow/", middleware.LoginRequired(), s.FollowIndex)

	authRoutes := app.Group("/auth")
	authRoutes.Use(s.authLimiter())
	authRoutes.Get("/login/", s.LoginForm)
	authRoutes.Post("/login/", s.Login)
	authRoutes.Get("/signup/", s.SignupForm)
	authRoutes.Post("/signup/", s.Signup)
	authRoutes.Get("/logout/", s.Logout)
	authRoutes.Post("/logout/", s.Logout)

	// Define specific /:username/:resource routes BEFORE generic /:username/:post_id route
	app.Post("/:username/follow/", middleware.LoginRequired(), s.ProfileFollow)
	app.Post("/:username/unfollow/", middleware.LoginRequired(), s.ProfileUnfollow)
	app.Get("/:username/", s.Profile)

	commentLimit := middleware.RateLimit(s.redis, 20, time.Minute, "create_comment")
	app.Get("/:username/:post_id/edit/", middleware.LoginRequired(), s.EditPostForm)
	app.Post("/:username/:post_id/edit/", middleware.LoginRequired(), postLimit, s.EditPost)
	app.Post("/:username/:post_id/comment/", middleware.LoginRequired(), commentLimit, s.AddComment)
	app.Get("/:username/:post_id/", s.PostDetail)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

// authLimiter throttles credential submissions per client IP.
func (s *Server) authLimiter() fiber.Handler {
	cfg := limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many attempts, please try again later.")
		},
	}
	if storage := cache.NewRedisStorage(s.redis, "limiter:"); storage != nil {
		cfg.Storage = storage
	}
	return limiter.New(cfg)
}

// ErrorHandler maps handler errors to pages. Missing records render the 404
// page, an UNAUTHORIZED error sends the visitor to the login page and
// anything unexpected renders the 500 page.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if appErr, ok := models.AsAppError(err); ok {
		switch appErr.Code {
		case models.CodeNotFound:
			code = fiber.StatusNotFound
		case models.CodeUnauthorized:
			return c.Redirect(middleware.LoginURL(c.OriginalURL()), fiber.StatusFound)
		case models.CodeValidation:
			code = fiber.StatusBadRequest
		}
	} else if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	switch {
	case code == fiber.StatusNotFound:
		c.Status(code)
		if rerr := c.Render("misc/404", s.pageData(c, fiber.Map{"path": c.Path()})); rerr != nil {
			return c.SendString("Not Found")
		}
		return nil
	case code >= fiber.StatusInternalServerError:
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		c.Status(code)
		if rerr := c.Render("misc/500", s.pageData(c, nil)); rerr != nil {
			return c.SendString("Internal Server Error")
		}
		return nil
	default:
		msg := err.Error()
		if fiberErr != nil {
			msg = fiberErr.Message
		}
		return c.Status(code).SendString(msg)
	}
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
