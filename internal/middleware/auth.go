package middleware

import (
	"context"
	"net/url"
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UserLookup resolves the user named by a session token.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Session reads the session cookie and stores the request principal in locals.
// Invalid, revoked or orphaned sessions are treated as anonymous and the cookie is cleared.
func Session(tokens *auth.Manager, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(auth.CookieName)
		if raw == "" {
			return c.Next()
		}

		claims, err := tokens.Parse(c.UserContext(), raw)
		if err != nil {
			auth.ClearCookie(c)
			return c.Next()
		}
		userID, err := claims.UserID()
		if err != nil {
			auth.ClearCookie(c)
			return c.Next()
		}

		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			if !models.IsNotFound(err) {
				return err
			}
			auth.ClearCookie(c)
			return c.Next()
		}

		c.Locals(auth.LocalsKey, &auth.Principal{ID: user.ID, Username: user.Username})
		c.Locals("userID", user.ID)
		c.Locals("sessionClaims", claims)
		return c.Next()
	}
}

// LoginURL builds the login redirect target for the given path.
func LoginURL(next string) string {
	q := url.Values{"next": {next}}.Encode()
	// Keep slashes readable: /auth/login/?next=/new/
	return "/auth/login/?" + strings.ReplaceAll(q, "%2F", "/")
}

// LoginRequired redirects anonymous visitors to the login page, remembering the original path.
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if auth.FromCtx(c) == nil {
			return c.Redirect(LoginURL(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}
