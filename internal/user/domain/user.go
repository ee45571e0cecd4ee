package domain

import (
	"errors"
	"time"
)

// User is the core user entity. PasswordHash is an opaque encoded hash
// produced only by the security hasher; the raw password is never stored.
type User struct {
	ID           string
	Username     string // unique, lowercased at creation
	PasswordHash string
	Status       UserStatus
	IsVerified   bool
	Onboarded    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusBanned   UserStatus = "banned"
	UserStatusDeleted  UserStatus = "deleted"
)

// Validate validates the user for persistence. Returns an error describing
// the first validation failure.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
