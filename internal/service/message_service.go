package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/legal-intake/internal/auth"
	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/events"
	"github.com/spec-kit/legal-intake/internal/repository"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

// MaxMessageLength is the longest accepted message body, in characters.
const MaxMessageLength = 4000

// SummaryInvalidator is told whenever a conversation changes.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context, ownerID string)
}

// MessageService implements the per-client conversation store.
type MessageService struct {
	messages    repository.MessageRepository
	users       repository.UserRepository
	invalidator SummaryInvalidator
	dispatcher  events.Dispatcher
	limits      PageLimits
	logger      *zap.Logger
}

// MessageDependencies bundles collaborators for the message service.
type MessageDependencies struct {
	MessageRepo repository.MessageRepository
	UserRepo    repository.UserRepository
	Invalidator SummaryInvalidator
	Dispatcher  events.Dispatcher
	Limits      PageLimits
	Logger      *zap.Logger
}

// NewMessageService constructs the service.
func NewMessageService(deps MessageDependencies) *MessageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{
		messages:    deps.MessageRepo,
		users:       deps.UserRepo,
		invalidator: deps.Invalidator,
		dispatcher:  deps.Dispatcher,
		limits:      deps.Limits,
		logger:      logger,
	}
}

// Append adds a message to a client's conversation. Clients always write to
// their own conversation; admins must name the client.
func (s *MessageService) Append(ctx context.Context, session *domain.Session, ownerID, body string) (*domain.Message, error) {
	owner, err := s.resolveOwner(ctx, session, ownerID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("message body is required", map[string]any{"body": "cannot be blank"})
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, apperrors.NewValidationError("message body is too long", map[string]any{"max_length": MaxMessageLength})
	}

	msg := &domain.Message{
		OwnerID:   owner,
		FromAdmin: session.IsAdmin(),
		Body:      body,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, err
	}
	s.invalidate(ctx, owner)
	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventMessageAppended,
		Subject: owner,
		Actor:   events.ActorFromSession(session),
		Payload: events.MessageAppendedPayload{
			MessageID:   msg.ID,
			Position:    msg.Position,
			FromAdmin:   msg.FromAdmin,
			BodyPreview: stringPreview(msg.Body, 120),
		},
	})
	return msg, nil
}

// ListSince returns messages after cursor in ascending position order. A nil
// cursor returns the latest page instead.
func (s *MessageService) ListSince(ctx context.Context, session *domain.Session, ownerID string, cursor *int64, limit int) ([]domain.Message, error) {
	owner, err := s.resolveOwner(ctx, session, ownerID)
	if err != nil {
		return nil, err
	}
	limit = s.limits.clamp(limit)
	if cursor == nil {
		return s.messages.ListLatest(ctx, owner, limit)
	}
	if *cursor < 0 {
		return nil, apperrors.NewValidationError("cursor must not be negative", map[string]any{"cursor": *cursor})
	}
	return s.messages.ListAfter(ctx, owner, *cursor, limit)
}

// MarkRead flags a message as read. Repeating the call is harmless.
func (s *MessageService) MarkRead(ctx context.Context, session *domain.Session, messageID string) (*domain.Message, error) {
	if err := auth.Authenticated(session); err != nil {
		return nil, err
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, notFound(err, "message", messageID)
	}
	if !session.IsAdmin() && msg.OwnerID != session.Identity {
		return nil, apperrors.NewForbidden("message belongs to another conversation")
	}
	changed, err := s.messages.MarkRead(ctx, messageID)
	if err != nil {
		return nil, notFound(err, "message", messageID)
	}
	if changed {
		s.invalidate(ctx, msg.OwnerID)
	}
	msg.Read = true
	return msg, nil
}

func (s *MessageService) resolveOwner(ctx context.Context, session *domain.Session, ownerID string) (string, error) {
	if err := auth.Authenticated(session); err != nil {
		return "", err
	}
	ownerID = strings.TrimSpace(ownerID)

	switch session.Role {
	case domain.RoleClient:
		if ownerID == "" || ownerID == session.Identity {
			return session.Identity, nil
		}
		return "", apperrors.NewForbidden("clients may only access their own conversation")
	case domain.RoleAdmin:
		if ownerID == "" {
			return "", apperrors.NewValidationError("client_id is required", map[string]any{"client_id": "cannot be blank"})
		}
		user, err := s.users.GetByID(ctx, ownerID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && user.Role != domain.RoleClient) {
			return "", apperrors.NewNotFound("client", map[string]any{"id": ownerID})
		}
		if err != nil {
			return "", err
		}
		return ownerID, nil
	default:
		return "", apperrors.NewForbidden("unknown role")
	}
}

func (s *MessageService) invalidate(ctx context.Context, owner string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, owner)
	}
}
