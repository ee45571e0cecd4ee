package domain

import "time"

// Device is a thin record of a client device referenced by sessions. Device
// fingerprint parsing happens upstream; the auth core only reads and writes
// these records.
type Device struct {
	ID        string
	UserID    string
	UserAgent string
	Status    DeviceStatus
	CreatedAt time.Time
}

type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "active"
	DeviceStatusInactive DeviceStatus = "inactive"
)
