package domain

import "time"

// Session is the authenticated principal passed explicitly into every
// protected operation.
type Session struct {
	Identity    string
	Role        Role
	DisplayName string
	Email       string
	ExpiresAt   time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// IsAdmin reports whether the session belongs to staff.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
