package repository

import (
	"context"
	"time"

	"ingot/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Revoke(ctx context.Context, id string, at time.Time) error
	Invalidate(ctx context.Context, id string, at time.Time) error
	UpdateLastAccessed(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
}
