package auth

import (
	"time"

	"github.com/spec-kit/legal-intake/internal/domain"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

// Authorize checks that session is present, unexpired and carries role.
func Authorize(session *domain.Session, role domain.Role) error {
	return AuthorizeAt(session, role, time.Now())
}

// AuthorizeAt is Authorize with an explicit clock reading.
func AuthorizeAt(session *domain.Session, role domain.Role, now time.Time) error {
	if session == nil {
		return apperrors.NewUnauthenticated("authentication required")
	}
	if session.Expired(now) {
		return apperrors.NewUnauthenticated("session expired")
	}
	if session.Role != role {
		return apperrors.NewForbidden(string(role) + " role required")
	}
	return nil
}

// Authenticated checks only that the session is present and unexpired.
func Authenticated(session *domain.Session) error {
	if session == nil {
		return apperrors.NewUnauthenticated("authentication required")
	}
	if session.Expired(time.Now()) {
		return apperrors.NewUnauthenticated("session expired")
	}
	return nil
}
