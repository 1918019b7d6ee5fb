package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	wrapped := fmt.Errorf("ctx: %w", NewInvalidTransition("Reviewed", "New"))
	de := ToDomainError(wrapped)
	assert.Equal(t, CodeInvalidTransition, de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "Reviewed", de.Details["from"])

	plain := ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.HTTPStatus)
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("poll: %w", NewTransientFailure(errors.New("dial tcp")))
	assert.True(t, HasCode(err, CodeTransient))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("x"), CodeTransient))
	assert.ErrorContains(t, err, "dial tcp")
}
