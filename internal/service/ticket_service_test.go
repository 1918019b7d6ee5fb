package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/events"
	"github.com/spec-kit/legal-intake/internal/verification"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

func danaDraft() domain.TicketDraft {
	return domain.TicketDraft{
		ClientName: "Dana Cohen",
		Email:      "dana@example.com",
		Phone:      "050-1112222",
		Summary:    "Contract dispute",
		Urgency:    domain.TicketUrgencyHigh,
	}
}

func TestTicketService_DanaCohenLifecycle(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	admin := f.admin(t)
	ctx := context.Background()

	ticket, err := f.ticketSvc.Submit(ctx, danaDraft(), "proof", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, domain.TicketUrgencyHigh, ticket.Urgency)
	assert.Contains(t, f.recorder.types(), events.EventTicketSubmitted)

	reviewed, err := f.ticketSvc.SetStatus(ctx, admin, ticket.ID, domain.TicketStatusReviewed, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusReviewed, reviewed.Status)

	_, err = f.ticketSvc.SetStatus(ctx, admin, ticket.ID, domain.TicketStatusNew, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	history, err := f.ticketSvc.History(ctx, admin, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "New", history[0].OldValue)
	assert.Equal(t, "Reviewed", history[0].NewValue)
	assert.Equal(t, admin.Identity, history[0].ChangedBy)
}

func TestTicketService_SubmitVerificationFailed(t *testing.T) {
	f := newFixture(t, verification.Static(false))
	_, err := f.ticketSvc.Submit(context.Background(), danaDraft(), "forged", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeVerificationFailed))

	admin := f.admin(t)
	list, err := f.ticketSvc.List(context.Background(), admin, TicketListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

type erroringVerifier struct{}

func (erroringVerifier) Verify(context.Context, string, string) (bool, error) {
	return false, errors.New("oracle unreachable")
}

func TestTicketService_SubmitVerifierErrorIsVerificationFailed(t *testing.T) {
	f := newFixture(t, erroringVerifier{})
	_, err := f.ticketSvc.Submit(context.Background(), danaDraft(), "proof", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeVerificationFailed))
}

func TestTicketService_SubmitValidation(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	cases := map[string]func(d *domain.TicketDraft){
		"name":    func(d *domain.TicketDraft) { d.ClientName = " " },
		"email":   func(d *domain.TicketDraft) { d.Email = "dana-at-example" },
		"phone":   func(d *domain.TicketDraft) { d.Phone = "call me" },
		"summary": func(d *domain.TicketDraft) { d.Summary = "   " },
		"urgency": func(d *domain.TicketDraft) { d.Urgency = "Urgent" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			draft := danaDraft()
			mutate(&draft)
			_, err := f.ticketSvc.Submit(context.Background(), draft, "proof", "")
			require.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
			assert.Contains(t, apperrors.ToDomainError(err).Details, field)
		})
	}
}

func TestTicketService_PhoneNeedsSevenDigits(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	draft := danaDraft()
	draft.Phone = "+1 (55) --"
	_, err := f.ticketSvc.Submit(context.Background(), draft, "proof", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestTicketService_DefaultUrgencyAndNoDedup(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	draft := danaDraft()
	draft.Urgency = ""

	first, err := f.ticketSvc.Submit(context.Background(), draft, "proof", "")
	require.NoError(t, err)
	second, err := f.ticketSvc.Submit(context.Background(), draft, "proof", "")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketUrgencyLow, first.Urgency)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestTicketService_AdminOnly(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	client := f.client(t, "dana@example.com", "Dana")
	ctx := context.Background()
	ticket, err := f.ticketSvc.Submit(ctx, danaDraft(), "proof", "")
	require.NoError(t, err)

	_, err = f.ticketSvc.List(ctx, client, TicketListFilter{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.ticketSvc.SetStatus(ctx, nil, ticket.ID, domain.TicketStatusClosed, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthenticated))

	err = f.ticketSvc.Remove(ctx, expiredSession(domain.RoleAdmin), ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthenticated))
}

func TestTicketService_ClosedIsTerminal(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	admin := f.admin(t)
	ctx := context.Background()
	ticket, err := f.ticketSvc.Submit(ctx, danaDraft(), "proof", "")
	require.NoError(t, err)

	_, err = f.ticketSvc.SetStatus(ctx, admin, ticket.ID, domain.TicketStatusClosed, nil)
	require.NoError(t, err)

	for _, next := range []domain.TicketStatus{domain.TicketStatusNew, domain.TicketStatusReviewed, domain.TicketStatusClosed} {
		_, err = f.ticketSvc.SetStatus(ctx, admin, ticket.ID, next, nil)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition), "Closed -> %s", next)
	}

	_, err = f.ticketSvc.SetUrgency(ctx, admin, ticket.ID, domain.TicketUrgencyLow, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestTicketService_ExpectedVersion(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	admin := f.admin(t)
	ctx := context.Background()
	ticket, err := f.ticketSvc.Submit(ctx, danaDraft(), "proof", "")
	require.NoError(t, err)

	stale := ticket.Version
	updated, err := f.ticketSvc.SetUrgency(ctx, admin, ticket.ID, domain.TicketUrgencyMedium, &stale)
	require.NoError(t, err)
	assert.Equal(t, stale+1, updated.Version)

	_, err = f.ticketSvc.SetStatus(ctx, admin, ticket.ID, domain.TicketStatusReviewed, &stale)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	current, err := f.ticketSvc.Get(ctx, admin, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, current.Status)
}

func TestTicketService_NotFound(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	admin := f.admin(t)
	ctx := context.Background()

	_, err := f.ticketSvc.SetStatus(ctx, admin, "missing", domain.TicketStatusReviewed, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	err = f.ticketSvc.Remove(ctx, admin, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.ticketSvc.History(ctx, admin, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestTicketService_RemoveAndListFilters(t *testing.T) {
	f := newFixture(t, verification.Static(true))
	admin := f.admin(t)
	ctx := context.Background()

	low := danaDraft()
	low.Urgency = domain.TicketUrgencyLow
	a, err := f.ticketSvc.Submit(ctx, low, "proof", "")
	require.NoError(t, err)
	b, err := f.ticketSvc.Submit(ctx, danaDraft(), "proof", "")
	require.NoError(t, err)

	all, err := f.ticketSvc.List(ctx, admin, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)

	high := domain.TicketUrgencyHigh
	filtered, err := f.ticketSvc.List(ctx, admin, TicketListFilter{Urgency: &high})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, b.ID, filtered[0].ID)

	bogus := domain.TicketStatus("Archived")
	_, err = f.ticketSvc.List(ctx, admin, TicketListFilter{Status: &bogus})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	require.NoError(t, f.ticketSvc.Remove(ctx, admin, a.ID))
	_, err = f.ticketSvc.Get(ctx, admin, a.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestPageLimits_Clamp(t *testing.T) {
	p := PageLimits{}
	assert.Equal(t, 50, p.clamp(0))
	assert.Equal(t, 10, p.clamp(10))
	assert.Equal(t, 200, p.clamp(5000))
}
