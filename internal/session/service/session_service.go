package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ingot/internal/session/domain"
)

// Sentinel errors for the session manager; handlers map them to RPC codes.
var (
	ErrNotFound         = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")
)

// SessionRepo is the minimal session repository needed by the manager.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Revoke(ctx context.Context, id string, at time.Time) error
	Invalidate(ctx context.Context, id string, at time.Time) error
	UpdateLastAccessed(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Manager owns the session lifecycle: creation, lookup, revocation,
// invalidation, and deletion. Expiry is enforced lazily at read time via
// CheckActive; expired rows are purged by an external job.
type Manager struct {
	repo SessionRepo
}

// NewManager returns a Manager backed by repo.
func NewManager(repo SessionRepo) *Manager {
	return &Manager{repo: repo}
}

// Create allocates a new session for userID with the given lifetime and
// persists it. deviceID may be empty. originNetwork must already be
// prefix-normalized by the caller. Sessions for the same user or device are
// never deduplicated.
func (m *Manager) Create(ctx context.Context, userID, deviceID, originNetwork string, ttl time.Duration) (*domain.Session, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	now := time.Now().UTC()
	s := &domain.Session{
		ID:            uuid.New().String(),
		UserID:        userID,
		DeviceID:      deviceID,
		OriginNetwork: originNetwork,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
		IsActive:      true,
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Find returns the session for id. Returns ErrNotFound when no record exists.
func (m *Manager) Find(ctx context.Context, id string) (*domain.Session, error) {
	s, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotFound
	}
	return s, nil
}

// ListByUser returns all sessions for userID, newest first, including
// terminal ones.
func (m *Manager) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	return m.repo.ListByUser(ctx, userID)
}

// CheckActive returns the session for id only if it may still back
// authentication: present, active, not revoked or invalidated, and not past
// its expiry. Any other state returns ErrSessionNotActive. Token verification
// alone is necessary but not sufficient; privileged paths call this.
func (m *Manager) CheckActive(ctx context.Context, id string) (*domain.Session, error) {
	s, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSessionNotActive
	}
	if !s.AuthenticatesAt(time.Now().UTC()) {
		return nil, ErrSessionNotActive
	}
	return s, nil
}

// Revoke marks the session as revoked. The record is preserved for the audit
// trail. Revoking an already terminal session is a no-op at this layer.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	return m.repo.Revoke(ctx, id, time.Now().UTC())
}

// Invalidate marks the session as invalidated.
func (m *Manager) Invalidate(ctx context.Context, id string) error {
	return m.repo.Invalidate(ctx, id, time.Now().UTC())
}

// Touch updates the session's last-accessed timestamp. Activity never extends
// ExpiresAt.
func (m *Manager) Touch(ctx context.Context, id string) error {
	return m.repo.UpdateLastAccessed(ctx, id, time.Now().UTC())
}

// Delete removes the session record entirely. Returns true iff a record
// existed. Deletion is distinct from revocation and leaves no audit trail.
func (m *Manager) Delete(ctx context.Context, id string) (bool, error) {
	return m.repo.Delete(ctx, id)
}
