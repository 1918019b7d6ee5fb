package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/repository"
)

// History is an in-memory repository.TicketHistoryRepository.
type History struct {
	mu      sync.RWMutex
	entries map[string][]domain.TicketHistory
}

// NewHistory returns an empty audit store.
func NewHistory() *History {
	return &History{entries: map[string][]domain.TicketHistory{}}
}

var _ repository.TicketHistoryRepository = (*History)(nil)

func (s *History) Create(_ context.Context, history *domain.TicketHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = time.Now()
	s.entries[history.TicketID] = append(s.entries[history.TicketID], *history)
	return nil
}

func (s *History) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TicketHistory{}, s.entries[ticketID]...), nil
}
