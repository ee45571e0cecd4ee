package handler

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ingot/internal/auth/service"
	"ingot/internal/netutil"
	"ingot/internal/security"
)

// Request/response messages for the auth surface. These are the wire-facing
// DTOs; the transport registration lives in internal/server.

type LoginRequest struct {
	Username      string
	Password      string
	DeviceID      string
	ClientAddress string
}

type TokenInfo struct {
	Value     string
	Algorithm string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type LoginResponse struct {
	AccessToken  TokenInfo
	RefreshToken TokenInfo
	UserID       string
	SessionID    string
}

type RefreshRequest struct {
	RefreshToken string
}

type RefreshResponse struct {
	AccessToken TokenInfo
	UserID      string
	SessionID   string
}

type LogoutRequest struct {
	RefreshToken string
}

type LogoutResponse struct{}

type ResolveIdentityRequest struct {
	AccessToken string
}

type ResolveIdentityResponse struct {
	UserID   string
	Username string
	Status   string
}

// AuthServer exposes login, token refresh, logout, and identity resolution.
type AuthServer struct {
	auth *service.AuthService
}

// NewAuthServer returns a new auth server backed by the given service.
func NewAuthServer(auth *service.AuthService) *AuthServer {
	return &AuthServer{auth: auth}
}

// Login authenticates the user and returns a token pair bound to a new
// session.
func (s *AuthServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "auth service not configured")
	}
	result, err := s.auth.Login(ctx, req.Username, req.Password, req.DeviceID, req.ClientAddress)
	if err != nil {
		return nil, mapAuthError(err)
	}
	return &LoginResponse{
		AccessToken:  tokenInfo(result.AccessToken),
		RefreshToken: tokenInfo(result.RefreshToken),
		UserID:       result.UserID,
		SessionID:    result.SessionID,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The bound
// session must still be active.
func (s *AuthServer) Refresh(ctx context.Context, req *RefreshRequest) (*RefreshResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "auth service not configured")
	}
	result, err := s.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, mapAuthError(err)
	}
	return &RefreshResponse{
		AccessToken: tokenInfo(result.AccessToken),
		UserID:      result.UserID,
		SessionID:   result.SessionID,
	}, nil
}

// Logout revokes the session bound to the refresh token. Invalid tokens are a
// no-op so logout is idempotent from the client's view.
func (s *AuthServer) Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "auth service not configured")
	}
	if err := s.auth.Logout(ctx, req.RefreshToken); err != nil {
		return nil, mapAuthError(err)
	}
	return &LogoutResponse{}, nil
}

// ResolveIdentity verifies an access token and returns the subject's identity.
func (s *AuthServer) ResolveIdentity(ctx context.Context, req *ResolveIdentityRequest) (*ResolveIdentityResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "auth service not configured")
	}
	user, err := s.auth.ResolveIdentity(ctx, req.AccessToken)
	if err != nil {
		// Token problems on this endpoint are argument errors: the token is
		// the input, not the caller's ambient credential.
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return nil, status.Error(codes.InvalidArgument, "token expired")
		case errors.Is(err, security.ErrInvalidToken):
			return nil, status.Error(codes.InvalidArgument, "invalid token")
		}
		return nil, mapAuthError(err)
	}
	return &ResolveIdentityResponse{
		UserID:   user.ID,
		Username: user.Username,
		Status:   string(user.Status),
	}, nil
}

func tokenInfo(t service.Token) TokenInfo {
	return TokenInfo{
		Value:     t.Value,
		Algorithm: t.Algorithm,
		IssuedAt:  t.IssuedAt,
		ExpiresAt: t.ExpiresAt,
	}
}

// mapAuthError converts service sentinels to gRPC status codes. Anything
// unrecognized becomes a generic Internal so store and hashing details never
// leak to clients.
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return status.Error(codes.Unauthenticated, "invalid or expired refresh token")
	case errors.Is(err, security.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, security.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, service.ErrInvalidDeviceID):
		return status.Error(codes.InvalidArgument, "invalid device id")
	case errors.Is(err, netutil.ErrInvalidAddress):
		return status.Error(codes.InvalidArgument, "invalid client address")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
