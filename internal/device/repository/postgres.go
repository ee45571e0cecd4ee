package repository

import (
	"context"
	"database/sql"
	"errors"

	"ingot/internal/device/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the device for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	var d domain.Device
	var status string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, user_agent, status, created_at FROM devices WHERE id = $1", id).
		Scan(&d.ID, &d.UserID, &d.UserAgent, &status, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.Status = domain.DeviceStatus(status)
	return &d, nil
}

// Create persists the device to the database. The device must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO devices (id, user_id, user_agent, status, created_at) VALUES ($1, $2, $3, $4, $5)",
		d.ID, d.UserID, d.UserAgent, string(d.Status), d.CreatedAt)
	return err
}
