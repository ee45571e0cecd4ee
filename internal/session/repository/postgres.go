package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ingot/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = "id, user_id, device_id, origin_network, created_at, last_accessed_at, expires_at, is_active, invalidated_at, revoked_at"

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = $1", id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListByUser returns all sessions for the given user, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create persists the session to the database. The session must have ID set.
// Sessions are never deduplicated; every successful login inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, device_id, origin_network, created_at, last_accessed_at, expires_at, is_active, invalidated_at, revoked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.UserID,
		sql.NullString{String: s.DeviceID, Valid: s.DeviceID != ""},
		s.OriginNetwork, s.CreatedAt,
		timeToNullTime(s.LastAccessedAt),
		s.ExpiresAt, s.IsActive,
		timeToNullTime(s.InvalidatedAt),
		timeToNullTime(s.RevokedAt))
	return err
}

// Revoke marks the session as revoked and inactive. The row is preserved for
// the audit trail; revocation and deletion are distinct.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET revoked_at = $2, is_active = FALSE WHERE id = $1", id, at)
	return err
}

// Invalidate marks the session as invalidated and inactive.
func (r *PostgresRepository) Invalidate(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET invalidated_at = $2, is_active = FALSE WHERE id = $1", id, at)
	return err
}

// UpdateLastAccessed sets the session's last-accessed timestamp. ExpiresAt is
// fixed at creation and never extended here.
func (r *PostgresRepository) UpdateLastAccessed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET last_accessed_at = $2 WHERE id = $1", id, at)
	return err
}

// Delete removes the session row. Returns true iff a row existed and was
// removed.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var deviceID sql.NullString
	var lastAccessed, invalidated, revoked sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &deviceID, &s.OriginNetwork, &s.CreatedAt,
		&lastAccessed, &s.ExpiresAt, &s.IsActive, &invalidated, &revoked)
	if err != nil {
		return nil, err
	}
	if deviceID.Valid {
		s.DeviceID = deviceID.String
	}
	s.LastAccessedAt = nullTimeToPtr(lastAccessed)
	s.InvalidatedAt = nullTimeToPtr(invalidated)
	s.RevokedAt = nullTimeToPtr(revoked)
	return &s, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
