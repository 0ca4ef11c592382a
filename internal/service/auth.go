package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bookshelf/bookshelf-go/internal/crypto"
	"github.com/bookshelf/bookshelf-go/internal/model"
	"github.com/bookshelf/bookshelf-go/internal/repository"
	"github.com/bookshelf/bookshelf-go/internal/validation"
)

// dummyHash is compared against when the email is unknown so that a login
// for a missing user costs the same as a wrong password. It is computed on
// first use.
var dummyHash = sync.OnceValue(func() string {
	hash, err := crypto.HashPassword("bookshelf-timing-equalizer")
	if err != nil {
		panic(err)
	}
	return hash
})

var emailCaser = cases.Lower(language.Und)

// AuthService handles authentication business logic.
type AuthService struct {
	repo      *repository.UserRepository
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.UserRepository, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		repo:      repo,
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return emailCaser.String(strings.TrimSpace(email))
}

// Register creates a new user account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.AuthResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return model.AuthResponse{}, err
	}
	if len(req.Password) > 72 {
		return model.AuthResponse{}, validation.NewError("password", "password must be at most 72 bytes")
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrRegistrationFailed
		}
		return model.AuthResponse{}, err
	}

	return s.issue(user)
}

// Login authenticates a user and returns an auth token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return model.AuthResponse{}, err
	}

	if len(req.Password) > 72 {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = crypto.VerifyPassword(req.Password, dummyHash())
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

// GetUser retrieves a user by ID and returns safe user data.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return model.UserResponse{
		ID:    user.ID,
		Email: user.Email,
	}, nil
}

func (s *AuthService) issue(user *model.User) (model.AuthResponse, error) {
	token, err := crypto.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token: token,
		User: model.UserResponse{
			ID:    user.ID,
			Email: user.Email,
		},
	}, nil
}
