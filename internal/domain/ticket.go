package domain

import "time"

// TicketStatus enumerates lifecycle states for intake tickets.
type TicketStatus string

const (
	TicketStatusNew      TicketStatus = "New"
	TicketStatusReviewed TicketStatus = "Reviewed"
	TicketStatusClosed   TicketStatus = "Closed"
)

// TicketUrgency enumerates how pressing the client's matter is.
type TicketUrgency string

const (
	TicketUrgencyLow    TicketUrgency = "Low"
	TicketUrgencyMedium TicketUrgency = "Medium"
	TicketUrgencyHigh   TicketUrgency = "High"
)

// Ticket is an intake record submitted by a prospective client.
type Ticket struct {
	ID         string
	ClientName string
	Email      string
	Phone      string
	Summary    string
	Urgency    TicketUrgency
	Status     TicketStatus
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TicketDraft is the unauthenticated submission payload.
type TicketDraft struct {
	ClientName string
	Email      string
	Phone      string
	Summary    string
	Urgency    TicketUrgency
}

var statusRank = map[TicketStatus]int{
	TicketStatusNew:      0,
	TicketStatusReviewed: 1,
	TicketStatusClosed:   2,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo allows any strictly forward move. Closed is terminal.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Valid reports whether u is a known urgency level.
func (u TicketUrgency) Valid() bool {
	switch u {
	case TicketUrgencyLow, TicketUrgencyMedium, TicketUrgencyHigh:
		return true
	}
	return false
}
