package service

import (
	"context"

	"inkwell/internal/auth"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// MsgBadCredentials is shown on the login page for any failed attempt.
const MsgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

// Signup registers a user from a validated form. A taken username is a field error.
func (s *UserService) Signup(ctx context.Context, in *validation.SignupInput) (_ *models.User, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "UserService", "Signup")
	defer func() { finish(err) }()

	if _, err = s.userRepo.GetByUsername(ctx, in.Username); err == nil {
		err = models.NewFieldValidationError(map[string]string{
			"username": "A user with that username already exists.",
		})
		return nil, err
	} else if !models.IsNotFound(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if err = s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and returns the matching user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (_ *models.User, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "UserService", "Authenticate")
	defer func() { finish(err) }()

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !models.IsNotFound(err) {
			return nil, err
		}
		return nil, models.NewUnauthorizedError(MsgBadCredentials)
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, models.NewUnauthorizedError(MsgBadCredentials)
	}
	return user, nil
}

// DeleteUser removes a user together with their posts, comments and follow edges.
func (s *UserService) DeleteUser(ctx context.Context, username string) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "UserService", "DeleteUser")
	defer func() { finish(err) }()

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, user.ID)
}
