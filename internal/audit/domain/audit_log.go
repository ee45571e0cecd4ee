package domain

import "time"

// AuditLog represents one auth event (login success/failure, refresh,
// logout). Internal diagnostics keep detail that is never surfaced to
// clients, such as whether a failed login was an unknown user or a wrong
// password.
type AuditLog struct {
	ID        string
	UserID    string // empty when the subject could not be resolved
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
