package domain

import "time"

// Message is one chat entry in a client's conversation. OwnerID is always the
// client identity, including for messages written by staff.
type Message struct {
	ID        string
	OwnerID   string
	FromAdmin bool
	Body      string
	Position  int64
	Read      bool
	CreatedAt time.Time
}

// ConversationSummary is the admin-facing digest of one client conversation.
type ConversationSummary struct {
	ClientID       string
	DisplayName    string
	Email          string
	MessageCount   int
	UnreadCount    int
	LastActivityAt time.Time
}

// ConversationStats is the per-owner aggregate computed by the message store.
type ConversationStats struct {
	OwnerID        string
	MessageCount   int
	UnreadCount    int
	LastActivityAt time.Time
}
