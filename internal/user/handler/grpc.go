package handler

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ingot/internal/security"
	"ingot/internal/user/domain"
	"ingot/internal/user/service"
)

// Request/response messages for the user surface.

type CreateUserRequest struct {
	Username string
	Password string
}

type UserInfo struct {
	ID         string
	Username   string
	Status     string
	IsVerified bool
	Onboarded  bool
	CreatedAt  time.Time
}

type GetUserRequest struct {
	ID       string
	Username string
}

type ChangePasswordRequest struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

type ChangePasswordResponse struct{}

type UpdateUserStatusRequest struct {
	ID     string
	Status string
}

type UpdateUserStatusResponse struct{}

type DeleteUserRequest struct {
	ID string
}

type DeleteUserResponse struct {
	Deleted bool
}

// UserServer exposes user creation, lookup, and credential maintenance.
type UserServer struct {
	users *service.UserService
}

// NewUserServer returns a new user server backed by the given service.
func NewUserServer(users *service.UserService) *UserServer {
	return &UserServer{users: users}
}

// CreateUser registers a new user. Policy violations come back as
// InvalidArgument with the violated rule's message.
func (s *UserServer) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserInfo, error) {
	if s.users == nil {
		return nil, status.Error(codes.Unimplemented, "user service not configured")
	}
	user, err := s.users.Create(ctx, req.Username, req.Password)
	if err != nil {
		return nil, mapUserError(err)
	}
	return userInfo(user), nil
}

// GetUser looks up a user by id or, when id is empty, by username.
func (s *UserServer) GetUser(ctx context.Context, req *GetUserRequest) (*UserInfo, error) {
	if s.users == nil {
		return nil, status.Error(codes.Unimplemented, "user service not configured")
	}
	var (
		user *domain.User
		err  error
	)
	switch {
	case req.ID != "":
		user, err = s.users.GetByID(ctx, req.ID)
	case req.Username != "":
		user, err = s.users.GetByUsername(ctx, req.Username)
	default:
		return nil, status.Error(codes.InvalidArgument, "id or username is required")
	}
	if err != nil {
		return nil, mapUserError(err)
	}
	return userInfo(user), nil
}

// ChangePassword verifies the current password and replaces the stored hash.
func (s *UserServer) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*ChangePasswordResponse, error) {
	if s.users == nil {
		return nil, status.Error(codes.Unimplemented, "user service not configured")
	}
	if err := s.users.ChangePassword(ctx, req.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, mapUserError(err)
	}
	return &ChangePasswordResponse{}, nil
}

// UpdateUserStatus moves the user to a new lifecycle status.
func (s *UserServer) UpdateUserStatus(ctx context.Context, req *UpdateUserStatusRequest) (*UpdateUserStatusResponse, error) {
	if s.users == nil {
		return nil, status.Error(codes.Unimplemented, "user service not configured")
	}
	switch domain.UserStatus(req.Status) {
	case domain.UserStatusActive, domain.UserStatusInactive, domain.UserStatusBanned, domain.UserStatusDeleted:
	default:
		return nil, status.Error(codes.InvalidArgument, "unknown user status")
	}
	if err := s.users.SetStatus(ctx, req.ID, domain.UserStatus(req.Status)); err != nil {
		return nil, mapUserError(err)
	}
	return &UpdateUserStatusResponse{}, nil
}

// DeleteUser removes the user record.
func (s *UserServer) DeleteUser(ctx context.Context, req *DeleteUserRequest) (*DeleteUserResponse, error) {
	if s.users == nil {
		return nil, status.Error(codes.Unimplemented, "user service not configured")
	}
	deleted, err := s.users.Delete(ctx, req.ID)
	if err != nil {
		return nil, mapUserError(err)
	}
	return &DeleteUserResponse{Deleted: deleted}, nil
}

func userInfo(u *domain.User) *UserInfo {
	return &UserInfo{
		ID:         u.ID,
		Username:   u.Username,
		Status:     string(u.Status),
		IsVerified: u.IsVerified,
		Onboarded:  u.Onboarded,
		CreatedAt:  u.CreatedAt,
	}
}

func mapUserError(err error) error {
	var violation *security.PolicyViolation
	switch {
	case errors.As(err, &violation):
		return status.Error(codes.InvalidArgument, violation.Message)
	case errors.Is(err, service.ErrUsernameTaken):
		return status.Error(codes.AlreadyExists, "username already taken")
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "user not found")
	case errors.Is(err, service.ErrWrongPassword):
		return status.Error(codes.Unauthenticated, "wrong password")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
