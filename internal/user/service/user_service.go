package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ingot/internal/security"
	"ingot/internal/user/domain"
)

// Sentinel errors for the user service; handlers map them to RPC codes.
var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrNotFound      = errors.New("user not found")
	ErrWrongPassword = errors.New("wrong password")
)

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error
	Delete(ctx context.Context, id string) (bool, error)
}

// UserService implements user creation and credential maintenance. All
// password hashes are produced here via the hasher; no other code path writes
// password_hash.
type UserService struct {
	repo   UserRepo
	hasher *security.Hasher
}

// NewUserService returns a UserService with the given dependencies.
func NewUserService(repo UserRepo, hasher *security.Hasher) *UserService {
	return &UserService{repo: repo, hasher: hasher}
}

// Create validates the credential pair against policy, normalizes the
// username to lowercase, hashes the password with a fresh salt, and persists
// the user. Policy violations are returned before any side effect.
func (s *UserService) Create(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if err := security.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := security.ValidatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hashed,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID returns the user for id. Returns ErrNotFound when missing.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// GetByUsername returns the user for username (lowercased before lookup).
// Returns ErrNotFound when missing.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// CheckPassword verifies password against the user's stored hash. A malformed
// stored hash is an internal error, not a mismatch.
func (s *UserService) CheckPassword(ctx context.Context, userID, password string) (bool, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.hasher.Verify(password, user.PasswordHash)
}

// ChangePassword verifies the current password, validates the new one against
// policy, and replaces the stored hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := security.ValidatePassword(next); err != nil {
		return err
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Verify(current, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}
	hashed, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, userID, hashed)
}

// SetStatus moves the user to the given lifecycle status. A banned or
// inactive user keeps their record; login refuses them at authentication
// time.
func (s *UserService) SetStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	switch status {
	case domain.UserStatusActive, domain.UserStatusInactive, domain.UserStatusBanned, domain.UserStatusDeleted:
	default:
		return fmt.Errorf("unknown user status %q", status)
	}
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, userID, status)
}

// Delete removes the user record. Returns true iff a record existed.
func (s *UserService) Delete(ctx context.Context, userID string) (bool, error) {
	return s.repo.Delete(ctx, userID)
}
