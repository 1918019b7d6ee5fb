package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/legal-intake/internal/domain"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

func TestAuthorize(t *testing.T) {
	now := time.Now()
	admin := &domain.Session{Identity: "a", Role: domain.RoleAdmin, ExpiresAt: now.Add(time.Minute)}
	client := &domain.Session{Identity: "c", Role: domain.RoleClient, ExpiresAt: now.Add(time.Minute)}
	expired := &domain.Session{Identity: "c", Role: domain.RoleAdmin, ExpiresAt: now.Add(-time.Minute)}

	assert.NoError(t, AuthorizeAt(admin, domain.RoleAdmin, now))
	assert.NoError(t, AuthorizeAt(client, domain.RoleClient, now))
	assert.True(t, apperrors.HasCode(AuthorizeAt(client, domain.RoleAdmin, now), apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(AuthorizeAt(admin, domain.RoleClient, now), apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(AuthorizeAt(nil, domain.RoleAdmin, now), apperrors.CodeUnauthenticated))
	assert.True(t, apperrors.HasCode(AuthorizeAt(expired, domain.RoleAdmin, now), apperrors.CodeUnauthenticated))
}
