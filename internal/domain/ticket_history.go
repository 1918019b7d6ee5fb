package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus  TicketChangeType = "STATUS_CHANGE"
	ChangeTypeUrgency TicketChangeType = "URGENCY_CHANGE"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID         string
	TicketID   string
	ChangedBy  string
	ChangeType TicketChangeType
	OldValue   string
	NewValue   string
	CreatedAt  time.Time
}
