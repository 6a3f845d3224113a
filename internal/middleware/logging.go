// Package middleware provides request-scoped logging, tracing, session and rate limit middleware.
package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"inkwell/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// Logger is the global structured logger instance used throughout the application.
var Logger = NewLogger(os.Stdout, os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

type requestMetaKey struct{}

// RequestMeta identifies the request a log line belongs to.
type RequestMeta struct {
	RequestID string
	TraceID   string
	UserID    uint
	Username  string
}

// WithRequestMeta stores meta in ctx for the context-aware logger.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the meta stored by WithRequestMeta.
func RequestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}

// NewLogger builds the application logger: JSON in production, text elsewhere.
// level is one of debug, info, warn or error and defaults to info.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(&ctxHandler{handler})
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ctxHandler appends the RequestMeta found in the record's context.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if meta, ok := RequestMetaFrom(ctx); ok {
		if meta.RequestID != "" {
			r.AddAttrs(slog.String("request_id", meta.RequestID))
		}
		if meta.TraceID != "" {
			r.AddAttrs(slog.String("trace_id", meta.TraceID))
		}
		if meta.UserID != 0 {
			r.AddAttrs(slog.Any("user_id", meta.UserID), slog.String("username", meta.Username))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

// ContextMiddleware copies the request id, trace id and session user from
// fiber locals into the user context. It must run after the session and
// tracing middleware.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		meta := RequestMeta{}
		meta.RequestID, _ = c.Locals("requestid").(string)
		meta.TraceID, _ = c.Locals("traceID").(string)
		if p := auth.FromCtx(c); p != nil {
			meta.UserID, meta.Username = p.ID, p.Username
		} else if uid, ok := c.Locals("userID").(uint); ok {
			meta.UserID = uid
		}

		c.SetUserContext(WithRequestMeta(c.UserContext(), meta))
		return c.Next()
	}
}

// StructuredLogger logs one line per request. Health probes are logged at
// debug level so they do not drown the access log.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if cache := c.GetRespHeader("X-Cache"); cache != "" {
			attrs = append(attrs, slog.String("cache", cache))
		}

		level, msg := slog.LevelInfo, "request processed"
		switch {
		case err != nil && status < fiber.StatusInternalServerError && fiberErr != nil:
			level, msg = slog.LevelWarn, "request failed"
			attrs = append(attrs, slog.String("error", err.Error()))
		case err != nil:
			level, msg = slog.LevelError, "request failed"
			attrs = append(attrs, slog.String("error", err.Error()))
		case strings.HasPrefix(c.Path(), "/health/"):
			level = slog.LevelDebug
		}

		Logger.LogAttrs(c.UserContext(), level, msg, attrs...)
		return err
	}
}
