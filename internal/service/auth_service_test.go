package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/events"
	"github.com/spec-kit/legal-intake/internal/verification"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

func TestAuthService_RegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	ctx := context.Background()

	user, err := f.auth.Register(ctx, RegisterInput{Email: " Dana@Example.com ", Password: strongPassword, FullName: "Dana Cohen"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, user.Role)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Contains(t, f.recorder.types(), events.EventUserRegistered)

	session, token, err := f.auth.Authenticate(ctx, "dana@example.com", strongPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, session.Identity)
	assert.Equal(t, "Dana Cohen", session.DisplayName)

	resolved, err := f.auth.SessionFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, session.Identity, resolved.Identity)
	assert.Equal(t, domain.RoleClient, resolved.Role)
}

func TestAuthService_InvalidCredentials(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	f.client(t, "dana@example.com", "Dana")

	_, _, err := f.auth.Authenticate(context.Background(), "dana@example.com", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))

	_, _, err = f.auth.Authenticate(context.Background(), "nobody@example.com", strongPassword)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Email: "not-an-email", Password: strongPassword})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.auth.Register(ctx, RegisterInput{Email: "a@example.com", Password: "weak"})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Contains(t, apperrors.ToDomainError(err).Details, "password")

	f.client(t, "dup@example.com", "")
	_, err = f.auth.Register(ctx, RegisterInput{Email: "DUP@example.com", Password: strongPassword})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestAuthService_CreateAdminOnlyOnce(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	f.admin(t)

	_, err := f.auth.CreateAdmin(context.Background(), RegisterInput{Email: "second@example.com", Password: strongPassword})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestAuthService_CreateAdminConcurrentCallsYieldOneAdmin(t *testing.T) {
	f := newFixture(t, verification.Static(true))

	const callers = 8
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := f.auth.CreateAdmin(context.Background(), RegisterInput{
				Email:    fmt.Sprintf("lawyer%d@example.com", i),
				Password: strongPassword,
			})
			switch {
			case err == nil:
				created.Add(1)
			case apperrors.HasCode(err, apperrors.CodeConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(callers-1), conflicts.Load())
}

func TestAuthService_SessionFromTokenRejectsGarbage(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	_, err := f.auth.SessionFromToken(context.Background(), "not.a.jwt")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthenticated))
}

func TestAuthService_Me(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	session := f.client(t, "dana@example.com", "Dana")

	user, err := f.auth.Me(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)

	_, err = f.auth.Me(context.Background(), nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthenticated))
}
