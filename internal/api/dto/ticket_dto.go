package dto

import (
	"time"

	"github.com/spec-kit/legal-intake/internal/domain"
)

// SubmitTicketRequest is the public intake form.
type SubmitTicketRequest struct {
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	Summary        string               `json:"summary"`
	Urgency        domain.TicketUrgency `json:"urgency"`
	TurnstileToken string               `json:"turnstile_token"`
}

// UpdateStatusRequest payload. Version enables optimistic concurrency.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Version *int                `json:"version,omitempty"`
}

// UpdateUrgencyRequest payload.
type UpdateUrgencyRequest struct {
	Urgency domain.TicketUrgency `json:"urgency"`
	Version *int                 `json:"version,omitempty"`
}

// TicketSubmittedResponse is what an anonymous submitter gets back.
type TicketSubmittedResponse struct {
	ID        string              `json:"id"`
	Status    domain.TicketStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// TicketResponse is the admin view of a ticket.
type TicketResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Email     string               `json:"email"`
	Phone     string               `json:"phone"`
	Summary   string               `json:"summary"`
	Urgency   domain.TicketUrgency `json:"urgency"`
	Status    domain.TicketStatus  `json:"status"`
	Version   int                  `json:"version"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID         string                  `json:"id"`
	ChangedBy  string                  `json:"changed_by"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	OldValue   string                  `json:"old_value"`
	NewValue   string                  `json:"new_value"`
	CreatedAt  time.Time               `json:"created_at"`
}

func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:        t.ID,
		Name:      t.ClientName,
		Email:     t.Email,
		Phone:     t.Phone,
		Summary:   t.Summary,
		Urgency:   t.Urgency,
		Status:    t.Status,
		Version:   t.Version,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func NewTicketHistoryResponse(h domain.TicketHistory) TicketHistoryResponse {
	return TicketHistoryResponse{
		ID:         h.ID,
		ChangedBy:  h.ChangedBy,
		ChangeType: h.ChangeType,
		OldValue:   h.OldValue,
		NewValue:   h.NewValue,
		CreatedAt:  h.CreatedAt,
	}
}
