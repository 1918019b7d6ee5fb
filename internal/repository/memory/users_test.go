package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/repository"
)

func TestUsers_CreateFirstAdminIsExclusive(t *testing.T) {
	store := NewUsers()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.CreateFirstAdmin(ctx, &domain.User{Email: fmt.Sprintf("admin%d@example.com", i)})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrAdminExists)
	}
	assert.Equal(t, 1, created)

	hasAdmin, err := store.HasRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, hasAdmin)
}

func TestUsers_CreateFirstAdminRejectsTakenEmail(t *testing.T) {
	store := NewUsers()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &domain.User{Email: "dana@example.com", Role: domain.RoleClient}))

	err := store.CreateFirstAdmin(ctx, &domain.User{Email: "DANA@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
