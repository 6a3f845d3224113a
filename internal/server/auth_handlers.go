package server

import (
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// LoginForm renders the login page, remembering where to go afterwards.
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.renderLogin(c, c.Query("next"), "", "", nil)
}

// Login checks the credentials, sets the session cookie and redirects to next.
func (s *Server) Login(c *fiber.Ctx) error {
	form := validation.LoginForm{
		Username: strings.TrimSpace(c.FormValue("username")),
		Password: c.FormValue("password"),
	}
	next := c.FormValue("next")

	if err := validation.ValidateLoginForm(form); err != nil {
		return s.renderLogin(c, next, form.Username, "", models.FieldErrors(err))
	}

	user, err := s.userService.Authenticate(c.UserContext(), form.Username, form.Password)
	if err != nil {
		appErr, ok := models.AsAppError(err)
		if !ok || appErr.Code != models.CodeUnauthorized {
			return err
		}
		return s.renderLogin(c, next, form.Username, appErr.Message, nil)
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return models.NewInternalError(err)
	}
	auth.SetCookie(c, token, expires)
	middleware.Logger.InfoContext(c.UserContext(), "user logged in", "user_id", user.ID)

	return c.Redirect(safeRedirect(next), fiber.StatusFound)
}

// Logout revokes the session and clears the cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := c.Locals("sessionClaims").(*auth.Claims); ok {
		if err := s.tokens.Revoke(c.UserContext(), claims); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to revoke session", "error", err)
		}
	}
	auth.ClearCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}

// SignupForm renders the registration page.
func (s *Server) SignupForm(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.Signup, 0) {
		return fiber.ErrNotFound
	}
	return s.render(c, "auth/signup", fiber.Map{"form": validation.SignupForm{}})
}

// Signup registers an account and sends the new user to the login page.
func (s *Server) Signup(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.Signup, 0) {
		return fiber.ErrNotFound
	}

	form := validation.SignupForm{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	}
	rerender := func(err error) error {
		// Never echo passwords back into the page.
		form.Password1, form.Password2 = "", ""
		return s.render(c, "auth/signup", fiber.Map{"form": form, "errors": models.FieldErrors(err)})
	}

	in, err := validation.ValidateSignupForm(form)
	if err != nil {
		if !models.IsValidation(err) {
			return err
		}
		return rerender(err)
	}

	if _, err := s.userService.Signup(c.UserContext(), in); err != nil {
		if !models.IsValidation(err) {
			return err
		}
		return rerender(err)
	}
	return c.Redirect("/auth/login/", fiber.StatusFound)
}

func (s *Server) renderLogin(c *fiber.Ctx, next, username, message string, errs map[string]string) error {
	return s.render(c, "auth/login", fiber.Map{
		"next":     next,
		"username": username,
		"error":    message,
		"errors":   errs,
	})
}
