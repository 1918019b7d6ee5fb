package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/repository"
)

// Messages is an in-memory repository.MessageRepository. Each conversation is
// a slice indexed by position-1, so positions are dense by construction.
type Messages struct {
	mu            sync.RWMutex
	conversations map[string][]domain.Message
	locator       map[string]messageRef
}

type messageRef struct {
	owner string
	index int
}

// NewMessages returns an empty message store.
func NewMessages() *Messages {
	return &Messages{
		conversations: map[string][]domain.Message{},
		locator:       map[string]messageRef{},
	}
}

var _ repository.MessageRepository = (*Messages)(nil)

func (s *Messages) Append(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.conversations[msg.OwnerID]
	msg.ID = uuid.NewString()
	msg.Position = int64(len(conv)) + 1
	msg.Read = false
	msg.CreatedAt = time.Now()
	if n := len(conv); n > 0 && !msg.CreatedAt.After(conv[n-1].CreatedAt) {
		msg.CreatedAt = conv[n-1].CreatedAt.Add(time.Microsecond)
	}
	s.conversations[msg.OwnerID] = append(conv, *msg)
	s.locator[msg.ID] = messageRef{owner: msg.OwnerID, index: len(conv)}
	return nil
}

func (s *Messages) GetByID(_ context.Context, id string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.locator[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	msg := s.conversations[ref.owner][ref.index]
	return &msg, nil
}

func (s *Messages) ListAfter(_ context.Context, ownerID string, cursor int64, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv := s.conversations[ownerID]
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= int64(len(conv)) {
		return []domain.Message{}, nil
	}
	end := len(conv)
	if limit > 0 && int(cursor)+limit < end {
		end = int(cursor) + limit
	}
	return append([]domain.Message{}, conv[cursor:end]...), nil
}

func (s *Messages) ListLatest(_ context.Context, ownerID string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv := s.conversations[ownerID]
	start := 0
	if limit > 0 && len(conv) > limit {
		start = len(conv) - limit
	}
	return append([]domain.Message{}, conv[start:]...), nil
}

func (s *Messages) MarkRead(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.locator[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	msg := &s.conversations[ref.owner][ref.index]
	if msg.Read {
		return false, nil
	}
	msg.Read = true
	return true, nil
}

func (s *Messages) ListOwners(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owners := make([]string, 0, len(s.conversations))
	for owner, conv := range s.conversations {
		if len(conv) > 0 {
			owners = append(owners, owner)
		}
	}
	sort.Strings(owners)
	return owners, nil
}

func (s *Messages) Stats(_ context.Context, ownerIDs []string) ([]domain.ConversationStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ownerIDs == nil {
		for owner := range s.conversations {
			ownerIDs = append(ownerIDs, owner)
		}
	}
	result := []domain.ConversationStats{}
	for _, owner := range ownerIDs {
		conv := s.conversations[owner]
		if len(conv) == 0 {
			continue
		}
		stats := domain.ConversationStats{OwnerID: owner, MessageCount: len(conv)}
		for _, msg := range conv {
			if !msg.Read && !msg.FromAdmin {
				stats.UnreadCount++
			}
			if msg.CreatedAt.After(stats.LastActivityAt) {
				stats.LastActivityAt = msg.CreatedAt
			}
		}
		result = append(result, stats)
	}
	return result, nil
}
