// Package account manages user accounts: sign-up, sign-in and password
// changes. Passwords are stored as bcrypt hashes.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tendant/simple-blog/pkg/simpleblog"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by SignIn for an unknown name or a wrong
// password. The two cases are not distinguished.
var ErrInvalidCredentials = errors.New("invalid name or password")

// Service handles account operations over a UserRepository
type Service struct {
	users  simpleblog.UserRepository
	logger *slog.Logger
	cost   int
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithHashCost sets the bcrypt cost. Values outside bcrypt's range fall back
// to bcrypt.DefaultCost.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// New creates an account service
func New(users simpleblog.UserRepository, options ...Option) *Service {
	s := &Service{
		users:  users,
		logger: slog.Default(),
		cost:   bcrypt.DefaultCost,
	}
	for _, option := range options {
		option(s)
	}
	if s.cost < bcrypt.MinCost || s.cost > bcrypt.MaxCost {
		s.cost = bcrypt.DefaultCost
	}
	return s
}

// SignUp creates a user with name and password
func (s *Service) SignUp(ctx context.Context, name, password string) (*simpleblog.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, simpleblog.Required("name")
	}
	if strings.TrimSpace(password) == "" {
		return nil, simpleblog.Required("password")
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	user := &simpleblog.User{
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, simpleblog.ErrUserExists) {
			return nil, &simpleblog.ValidationError{Field: "name", Message: "name is already taken"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User signed up", "user_id", user.ID, "name", user.Name)
	return user, nil
}

// SignIn verifies name and password and returns the user
func (s *Service) SignIn(ctx context.Context, name, password string) (*simpleblog.User, error) {
	user, err := s.users.GetUserByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, simpleblog.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CheckPasswordAccess returns the user named actorName when it belongs to
// actorID
func (s *Service) CheckPasswordAccess(ctx context.Context, actorID, actorName string) (*simpleblog.User, error) {
	user, err := s.users.GetUserByName(ctx, strings.TrimSpace(actorName))
	if err != nil {
		if errors.Is(err, simpleblog.ErrNotFound) {
			return nil, simpleblog.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := simpleblog.Authorize(actorID, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password of the user called name. The actor
// must be that user.
func (s *Service) ChangePassword(ctx context.Context, actorID, name, password string) error {
	if strings.TrimSpace(password) == "" {
		return simpleblog.Required("password")
	}

	user, err := s.CheckPasswordAccess(ctx, actorID, name)
	if err != nil {
		return err
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.InfoContext(ctx, "Password changed", "user_id", user.ID)
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
