package events

import (
	"time"

	"github.com/spec-kit/legal-intake/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted      EventType = "ticket_submitted"
	EventTicketStatusChanged  EventType = "ticket_status_changed"
	EventTicketUrgencyChanged EventType = "ticket_urgency_changed"
	EventMessageAppended      EventType = "message_appended"
	EventUserRegistered       EventType = "user_registered"
)

// Actor identifies who caused an event. Anonymous submissions carry the zero value.
type Actor struct {
	Role     domain.Role `json:"role,omitempty"`
	Identity string      `json:"identity,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSubmittedPayload carries the data mailed to the client and the lawyer.
type TicketSubmittedPayload struct {
	ClientName string               `json:"client_name"`
	Email      string               `json:"email"`
	Phone      string               `json:"phone"`
	Summary    string               `json:"summary"`
	Urgency    domain.TicketUrgency `json:"urgency"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketUrgencyChangedPayload payload.
type TicketUrgencyChangedPayload struct {
	OldUrgency domain.TicketUrgency `json:"old_urgency"`
	NewUrgency domain.TicketUrgency `json:"new_urgency"`
}

// MessageAppendedPayload payload.
type MessageAppendedPayload struct {
	MessageID   string `json:"message_id"`
	Position    int64  `json:"position"`
	FromAdmin   bool   `json:"from_admin"`
	BodyPreview string `json:"body_preview"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// ActorFromSession converts a session into an event actor.
func ActorFromSession(session *domain.Session) Actor {
	if session == nil {
		return Actor{}
	}
	return Actor{Role: session.Role, Identity: session.Identity}
}
