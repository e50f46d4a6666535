package domain

import "time"

// Session is a server-side login session. The client holds a signed token
// referencing ID; the session record is the source of truth for revocation.
type Session struct {
	ID          string
	PrincipalID string
	Role        Role
	IP          *string
	UserAgent   *string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// IsActive reports whether the session has not yet expired at the supplied moment.
func (s Session) IsActive(at time.Time) bool {
	return s.ExpiresAt.After(at)
}
