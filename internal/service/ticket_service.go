package service

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/spec-kit/legal-intake/internal/auth"
	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/events"
	"github.com/spec-kit/legal-intake/internal/repository"
	"github.com/spec-kit/legal-intake/internal/verification"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

// TicketService coordinates intake ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	verifier   verification.Verifier
	dispatcher events.Dispatcher
	limits     PageLimits
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Verifier    verification.Verifier
	Dispatcher  events.Dispatcher
	Limits      PageLimits
	Logger      *zap.Logger
}

// TicketListFilter describes admin listing parameters.
type TicketListFilter struct {
	Status  *domain.TicketStatus
	Urgency *domain.TicketUrgency
	Limit   int
	Offset  int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		verifier:   deps.Verifier,
		dispatcher: deps.Dispatcher,
		limits:     deps.Limits,
		logger:     logger,
	}
}

// Submit records an anonymous intake request once its captcha proof passes.
func (s *TicketService) Submit(ctx context.Context, draft domain.TicketDraft, proof, remoteIP string) (*domain.Ticket, error) {
	draft = normalizeDraft(draft)
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	ok, err := s.verifier.Verify(ctx, proof, remoteIP)
	if err != nil {
		s.logger.Warn("captcha verification errored", zap.Error(err))
		return nil, apperrors.NewVerificationFailed(err)
	}
	if !ok {
		return nil, apperrors.NewVerificationFailed(nil)
	}

	ticket := &domain.Ticket{
		ClientName: draft.ClientName,
		Email:      draft.Email,
		Phone:      draft.Phone,
		Summary:    draft.Summary,
		Urgency:    draft.Urgency,
		Status:     domain.TicketStatusNew,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketSubmitted,
		Subject: ticket.ID,
		Payload: events.TicketSubmittedPayload{
			ClientName: ticket.ClientName,
			Email:      ticket.Email,
			Phone:      ticket.Phone,
			Summary:    ticket.Summary,
			Urgency:    ticket.Urgency,
		},
	})
	return ticket, nil
}

// List returns tickets newest first.
func (s *TicketService) List(ctx context.Context, session *domain.Session, filter TicketListFilter) ([]domain.Ticket, error) {
	if err := auth.Authorize(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *filter.Status})
	}
	if filter.Urgency != nil && !filter.Urgency.Valid() {
		return nil, apperrors.NewValidationError("unknown urgency", map[string]any{"urgency": *filter.Urgency})
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.tickets.List(ctx, repository.TicketFilter{
		Status:  filter.Status,
		Urgency: filter.Urgency,
		Limit:   s.limits.clamp(filter.Limit),
		Offset:  filter.Offset,
	})
}

// Get fetches one ticket.
func (s *TicketService) Get(ctx context.Context, session *domain.Session, id string) (*domain.Ticket, error) {
	if err := auth.Authorize(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "ticket", id)
	}
	return ticket, nil
}

// SetStatus moves a ticket forward in its lifecycle. When expectedVersion is
// set the change only applies to that exact revision.
func (s *TicketService) SetStatus(ctx context.Context, session *domain.Session, id string, status domain.TicketStatus, expectedVersion *int) (*domain.Ticket, error) {
	if err := auth.Authorize(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}

	var old domain.TicketStatus
	ticket, err := s.tickets.Mutate(ctx, id, func(t *domain.Ticket) error {
		if err := checkVersion(t, expectedVersion); err != nil {
			return err
		}
		if !t.Status.CanTransitionTo(status) {
			return apperrors.NewInvalidTransition(string(t.Status), string(status))
		}
		old = t.Status
		t.Status = status
		return nil
	})
	if err != nil {
		return nil, notFound(err, "ticket", id)
	}

	s.recordChange(ctx, session, ticket.ID, domain.ChangeTypeStatus, string(old), string(status))
	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketStatusChanged,
		Subject: ticket.ID,
		Actor:   events.ActorFromSession(session),
		Payload: events.TicketStatusChangedPayload{OldStatus: old, NewStatus: status},
	})
	return ticket, nil
}

// SetUrgency re-rates an open ticket.
func (s *TicketService) SetUrgency(ctx context.Context, session *domain.Session, id string, urgency domain.TicketUrgency, expectedVersion *int) (*domain.Ticket, error) {
	if err := auth.Authorize(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !urgency.Valid() {
		return nil, apperrors.NewValidationError("unknown urgency", map[string]any{"urgency": urgency})
	}

	var old domain.TicketUrgency
	ticket, err := s.tickets.Mutate(ctx, id, func(t *domain.Ticket) error {
		if err := checkVersion(t, expectedVersion); err != nil {
			return err
		}
		if t.Status == domain.TicketStatusClosed {
			return apperrors.NewConflict("closed tickets cannot be re-rated", map[string]any{"status": t.Status})
		}
		old = t.Urgency
		t.Urgency = urgency
		return nil
	})
	if err != nil {
		return nil, notFound(err, "ticket", id)
	}

	s.recordChange(ctx, session, ticket.ID, domain.ChangeTypeUrgency, string(old), string(urgency))
	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketUrgencyChanged,
		Subject: ticket.ID,
		Actor:   events.ActorFromSession(session),
		Payload: events.TicketUrgencyChangedPayload{OldUrgency: old, NewUrgency: urgency},
	})
	return ticket, nil
}

// Remove permanently deletes a ticket.
func (s *TicketService) Remove(ctx context.Context, session *domain.Session, id string) error {
	if err := auth.Authorize(session, domain.RoleAdmin); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return notFound(err, "ticket", id)
	}
	return nil
}

// History lists audit entries for a ticket, oldest first.
func (s *TicketService) History(ctx context.Context, session *domain.Session, id string) ([]domain.TicketHistory, error) {
	if err := auth.Authorize(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return nil, notFound(err, "ticket", id)
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	return s.history.ListByTicket(ctx, id)
}

// recordChange writes an audit entry. The mutation has already committed so
// a failure here is logged rather than returned.
func (s *TicketService) recordChange(ctx context.Context, session *domain.Session, ticketID string, kind domain.TicketChangeType, oldValue, newValue string) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangedBy:  session.Identity,
		ChangeType: kind,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record ticket history",
			zap.String("ticket_id", ticketID),
			zap.String("change_type", string(kind)),
			zap.Error(err))
	}
}

func checkVersion(t *domain.Ticket, expected *int) error {
	if expected == nil || *expected == t.Version {
		return nil
	}
	return apperrors.NewConflict("ticket was modified concurrently", map[string]any{
		"expected_version": *expected,
		"current_version":  t.Version,
	})
}

var phoneShape = regexp.MustCompile(`^[0-9+\-() ]{7,20}$`)

func normalizeDraft(d domain.TicketDraft) domain.TicketDraft {
	d.ClientName = strings.TrimSpace(d.ClientName)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Summary = strings.TrimSpace(d.Summary)
	if d.Urgency == "" {
		d.Urgency = domain.TicketUrgencyLow
	}
	return d
}

func validateDraft(d domain.TicketDraft) error {
	err := validation.Errors{
		"name":  validation.Validate(d.ClientName, validation.Required, validation.RuneLength(1, 200)),
		"email": validation.Validate(d.Email, validation.Required, is.EmailFormat),
		"phone": validation.Validate(d.Phone,
			validation.Required,
			validation.Match(phoneShape).Error("must be 7 to 20 digits, spaces or + - ( )"),
			validation.By(minDigits(7)),
		),
		"summary": validation.Validate(d.Summary, validation.Required, validation.RuneLength(1, 5000)),
		"urgency": validation.Validate(d.Urgency,
			validation.In(domain.TicketUrgencyLow, domain.TicketUrgencyMedium, domain.TicketUrgencyHigh).
				Error("must be Low, Medium or High"),
		),
	}.Filter()
	return validationError("invalid ticket", err)
}

func minDigits(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		count := 0
		for _, r := range s {
			if unicode.IsDigit(r) {
				count++
			}
		}
		if count < n {
			return validation.NewError("validation_phone_digits", "must contain at least 7 digits")
		}
		return nil
	}
}
