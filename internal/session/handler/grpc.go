package handler

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ingot/internal/session/domain"
	"ingot/internal/session/service"
)

// Request/response messages for the session surface.

type SessionInfo struct {
	ID             string
	UserID         string
	DeviceID       string
	OriginNetwork  string
	CreatedAt      time.Time
	LastAccessedAt *time.Time
	ExpiresAt      time.Time
	IsActive       bool
	RevokedAt      *time.Time
	InvalidatedAt  *time.Time
}

type GetSessionRequest struct {
	ID string
}

type ListSessionsRequest struct {
	UserID string
}

type ListSessionsResponse struct {
	Sessions []*SessionInfo
}

type RevokeSessionRequest struct {
	ID string
}

type RevokeSessionResponse struct{}

type DeleteSessionRequest struct {
	ID string
}

type DeleteSessionResponse struct {
	Deleted bool
}

// SessionServer exposes session lookup, listing, revocation, and deletion.
type SessionServer struct {
	sessions *service.Manager
}

// NewSessionServer returns a new session server backed by the given manager.
func NewSessionServer(sessions *service.Manager) *SessionServer {
	return &SessionServer{sessions: sessions}
}

// GetSession returns the session for id, terminal or not.
func (s *SessionServer) GetSession(ctx context.Context, req *GetSessionRequest) (*SessionInfo, error) {
	if s.sessions == nil {
		return nil, status.Error(codes.Unimplemented, "session service not configured")
	}
	sess, err := s.sessions.Find(ctx, req.ID)
	if err != nil {
		return nil, mapSessionError(err)
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all sessions for a user, newest first.
func (s *SessionServer) ListSessions(ctx context.Context, req *ListSessionsRequest) (*ListSessionsResponse, error) {
	if s.sessions == nil {
		return nil, status.Error(codes.Unimplemented, "session service not configured")
	}
	if req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}
	list, err := s.sessions.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, mapSessionError(err)
	}
	out := make([]*SessionInfo, 0, len(list))
	for _, sess := range list {
		out = append(out, sessionInfo(sess))
	}
	return &ListSessionsResponse{Sessions: out}, nil
}

// RevokeSession marks the session as revoked. The record is preserved.
func (s *SessionServer) RevokeSession(ctx context.Context, req *RevokeSessionRequest) (*RevokeSessionResponse, error) {
	if s.sessions == nil {
		return nil, status.Error(codes.Unimplemented, "session service not configured")
	}
	if err := s.sessions.Revoke(ctx, req.ID); err != nil {
		return nil, mapSessionError(err)
	}
	return &RevokeSessionResponse{}, nil
}

// DeleteSession removes the session record entirely.
func (s *SessionServer) DeleteSession(ctx context.Context, req *DeleteSessionRequest) (*DeleteSessionResponse, error) {
	if s.sessions == nil {
		return nil, status.Error(codes.Unimplemented, "session service not configured")
	}
	deleted, err := s.sessions.Delete(ctx, req.ID)
	if err != nil {
		return nil, mapSessionError(err)
	}
	return &DeleteSessionResponse{Deleted: deleted}, nil
}

func sessionInfo(s *domain.Session) *SessionInfo {
	return &SessionInfo{
		ID:             s.ID,
		UserID:         s.UserID,
		DeviceID:       s.DeviceID,
		OriginNetwork:  s.OriginNetwork,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
		ExpiresAt:      s.ExpiresAt,
		IsActive:       s.IsActive,
		RevokedAt:      s.RevokedAt,
		InvalidatedAt:  s.InvalidatedAt,
	}
}

func mapSessionError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "session not found")
	case errors.Is(err, service.ErrSessionNotActive):
		return status.Error(codes.FailedPrecondition, "session is not active")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
