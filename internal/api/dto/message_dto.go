package dto

import (
	"time"

	"github.com/spec-kit/legal-intake/internal/domain"
)

// SendMessageRequest payload. Admins must set ClientID.
type SendMessageRequest struct {
	Body     string `json:"body"`
	ClientID string `json:"client_id,omitempty"`
}

// MessageResponse is one chat message on the wire.
type MessageResponse struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	FromAdmin bool      `json:"from_admin"`
	Body      string    `json:"body"`
	Position  int64     `json:"position"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationResponse summarizes a client conversation for the admin inbox.
type ConversationResponse struct {
	ClientID       string    `json:"client_id"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	MessageCount   int       `json:"message_count"`
	UnreadCount    int       `json:"unread_count"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

func NewMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		ClientID:  m.OwnerID,
		FromAdmin: m.FromAdmin,
		Body:      m.Body,
		Position:  m.Position,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

// ToDomain converts a wire message back, for API clients.
func (m MessageResponse) ToDomain() domain.Message {
	return domain.Message{
		ID:        m.ID,
		OwnerID:   m.ClientID,
		FromAdmin: m.FromAdmin,
		Body:      m.Body,
		Position:  m.Position,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

func NewConversationResponse(s domain.ConversationSummary) ConversationResponse {
	return ConversationResponse(s)
}
