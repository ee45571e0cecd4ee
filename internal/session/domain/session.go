package domain

import "time"

// Session represents one successful login, tied to a user and the origin it
// came from. OriginNetwork is the client address collapsed to a network
// prefix; exact host bits are not retained.
type Session struct {
	ID             string
	UserID         string
	DeviceID       string // optional relation to an external device record
	OriginNetwork  string
	CreatedAt      time.Time
	LastAccessedAt *time.Time
	ExpiresAt      time.Time // fixed at creation, never auto-extended
	IsActive       bool
	InvalidatedAt  *time.Time
	RevokedAt      *time.Time
}

// ExpiredAt reports whether the session's lifetime has passed at the given
// instant. Expiry is enforced lazily at read time; there is no sweeper.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// AuthenticatesAt reports whether the session may back token issuance at the
// given instant. Revoked and invalidated sessions are terminal for
// authentication even before their expiry.
func (s *Session) AuthenticatesAt(now time.Time) bool {
	if !s.IsActive || s.RevokedAt != nil || s.InvalidatedAt != nil {
		return false
	}
	return !s.ExpiredAt(now)
}
