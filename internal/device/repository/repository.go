package repository

import (
	"context"

	"ingot/internal/device/domain"
)

// Repository defines persistence for device records. Devices are owned by an
// external subsystem; the auth core only reads them and creates thin
// placeholder rows for unknown ids.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	Create(ctx context.Context, d *domain.Device) error
}
