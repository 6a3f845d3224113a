package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
)

var (
	usernameRegex  = regexp.MustCompile(`^[\w.@+-]{1,150}$`)
	groupSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Usernames are the first path segment of profile URLs, so they must not
// shadow the fixed routes.
var reservedUsernames = map[string]struct{}{
	"new":     {},
	"follow":  {},
	"group":   {},
	"auth":    {},
	"media":   {},
	"health":  {},
	"metrics": {},
	"static":  {},
}

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	maxGroupSlug      = 75
	maxGroupTitle     = 200
	maxGroupDesc      = 400
)

// ValidateUsername validates username format and reserved names.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return errors.New("Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return errors.New("This username is reserved.")
	}
	return nil
}

// ValidatePassword enforces the minimal password policy.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return fmt.Errorf("This password is too short. It must contain at least %d characters.", minPasswordLength)
	}
	if n > maxPasswordLength {
		return fmt.Errorf("This password is too long. It must contain at most %d characters.", maxPasswordLength)
	}
	if strings.Trim(password, "0123456789") == "" {
		return errors.New("This password is entirely numeric.")
	}
	return nil
}

// ValidateGroupSlug validates a group slug used in /group/<slug>/ URLs.
func ValidateGroupSlug(slug string) error {
	if len(slug) > maxGroupSlug {
		return fmt.Errorf("slug must be at most %d characters", maxGroupSlug)
	}
	if !groupSlugRegex.MatchString(slug) {
		return errors.New("slug may contain only letters, numbers, underscores and hyphens")
	}
	return nil
}

// ValidateGroup checks a group definition coming from admin tooling or fixtures.
func ValidateGroup(g *models.Group) error {
	if err := ValidateGroupSlug(g.Slug); err != nil {
		return models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(g.Title) == "" || utf8.RuneCountInString(g.Title) > maxGroupTitle {
		return models.NewValidationError(fmt.Sprintf("title is required and must be at most %d characters", maxGroupTitle))
	}
	if utf8.RuneCountInString(g.Description) > maxGroupDesc {
		return models.NewValidationError(fmt.Sprintf("description must be at most %d characters", maxGroupDesc))
	}
	return nil
}

// SignupForm is the raw registration submission.
type SignupForm struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// SignupInput is a validated registration. Password is still plain text.
type SignupInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// ValidateSignupForm checks a registration form. Username uniqueness is
// checked by the caller against storage.
func ValidateSignupForm(form SignupForm) (*SignupInput, error) {
	fields := map[string]string{}
	username := strings.TrimSpace(form.Username)

	if username == "" {
		fields["username"] = MsgRequired
	} else if err := ValidateUsername(username); err != nil {
		fields["username"] = err.Error()
	}

	email := strings.TrimSpace(form.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			fields["email"] = "Enter a valid email address."
		}
	}

	switch {
	case form.Password1 == "":
		fields["password1"] = MsgRequired
	case form.Password2 == "":
		fields["password2"] = MsgRequired
	case form.Password1 != form.Password2:
		fields["password2"] = "The two password fields didn't match."
	default:
		if err := ValidatePassword(form.Password1); err != nil {
			fields["password2"] = err.Error()
		}
	}

	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}
	return &SignupInput{
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Username:  username,
		Email:     email,
		Password:  form.Password1,
	}, nil
}

// LoginForm is the raw login submission.
type LoginForm struct {
	Username string
	Password string
}

// ValidateLoginForm checks that both credentials were sent.
func ValidateLoginForm(form LoginForm) error {
	fields := map[string]string{}
	if strings.TrimSpace(form.Username) == "" {
		fields["username"] = MsgRequired
	}
	if form.Password == "" {
		fields["password"] = MsgRequired
	}
	if len(fields) > 0 {
		return models.NewFieldValidationError(fields)
	}
	return nil
}
