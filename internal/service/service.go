package service

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/spec-kit/legal-intake/internal/events"
	"github.com/spec-kit/legal-intake/internal/repository"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// PageLimits bounds list operations.
type PageLimits struct {
	Default int
	Max     int
}

func (p PageLimits) clamp(limit int) int {
	def, max := p.Default, p.Max
	if def <= 0 {
		def = defaultPageSize
	}
	if max <= 0 {
		max = maxPageSize
	}
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// notFound translates repository misses into the NotFound domain error.
func notFound(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// validationError flattens ozzo field errors into ValidationError details.
func validationError(message string, err error) error {
	if err == nil {
		return nil
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return apperrors.NewInternalError(err)
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]any, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
		return apperrors.NewValidationError(message, details)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}
