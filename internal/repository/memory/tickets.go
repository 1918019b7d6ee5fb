package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/repository"
)

// Tickets is an in-memory repository.TicketRepository. Insertion order
// breaks ties between equal creation times.
type Tickets struct {
	mu    sync.Mutex
	order []string
	byID  map[string]domain.Ticket
}

// NewTickets returns an empty ticket store.
func NewTickets() *Tickets {
	return &Tickets{byID: map[string]domain.Ticket{}}
}

var _ repository.TicketRepository = (*Tickets)(nil)

func (s *Tickets) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.Version = 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.byID[ticket.ID] = *ticket
	s.order = append(s.order, ticket.ID)
	return nil
}

func (s *Tickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ticket, nil
}

func (s *Tickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	skip := filter.Offset
	result := []domain.Ticket{}
	for i := len(s.order) - 1; i >= 0 && len(result) < limit; i-- {
		ticket, ok := s.byID[s.order[i]]
		if !ok {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Urgency != nil && ticket.Urgency != *filter.Urgency {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (s *Tickets) Mutate(_ context.Context, id string, fn repository.TicketMutation) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := fn(&ticket); err != nil {
		return nil, err
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	s.byID[id] = ticket
	return &ticket, nil
}

func (s *Tickets) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
