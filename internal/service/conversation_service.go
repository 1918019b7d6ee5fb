package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/legal-intake/internal/auth"
	"github.com/spec-kit/legal-intake/internal/cache"
	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/repository"
)

// ConversationService builds the admin inbox from the message store.
// Per-client summaries are cached and dropped on every change to that
// client's conversation.
type ConversationService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	cache    cache.SummaryCache
	logger   *zap.Logger

	group singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

// NewConversationService constructs the aggregator. A nil cache falls back to
// an in-process one.
func NewConversationService(messages repository.MessageRepository, users repository.UserRepository, summaries cache.SummaryCache, logger *zap.Logger) *ConversationService {
	if summaries == nil {
		summaries = cache.NewLocal()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationService{
		messages:    messages,
		users:       users,
		cache:       summaries,
		logger:      logger,
		generations: map[string]uint64{},
	}
}

// ListConversations returns one summary per client with at least one
// message, most recently active first.
func (s *ConversationService) ListConversations(ctx context.Context, session *domain.Session) ([]domain.ConversationSummary, error) {
	if err := auth.Authorize(session, domain.RoleAdmin); err != nil {
		return nil, err
	}
	owners, err := s.messages.ListOwners(ctx)
	if err != nil {
		return nil, err
	}

	cached, err := s.cache.GetMany(ctx, owners)
	if err != nil {
		s.logger.Warn("summary cache read failed", zap.Error(err))
		cached = map[string]domain.ConversationSummary{}
	}

	result := make([]domain.ConversationSummary, 0, len(owners))
	for _, owner := range owners {
		if summary, ok := cached[owner]; ok {
			result = append(result, summary)
			continue
		}
		summary, ok, err := s.summarize(ctx, owner)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, summary)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastActivityAt.Equal(result[j].LastActivityAt) {
			return result[i].LastActivityAt.After(result[j].LastActivityAt)
		}
		return result[i].ClientID < result[j].ClientID
	})
	return result, nil
}

// Invalidate drops the cached summary for owner.
func (s *ConversationService) Invalidate(ctx context.Context, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[owner]++
	if err := s.cache.Invalidate(ctx, owner); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.String("owner_id", owner), zap.Error(err))
	}
}

func (s *ConversationService) generation(owner string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[owner]
}

// store caches summary unless the conversation changed since gen was read.
// Holding mu orders the write against Invalidate.
func (s *ConversationService) store(ctx context.Context, summary domain.ConversationSummary, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[summary.ClientID] != gen {
		return
	}
	if err := s.cache.Set(ctx, summary); err != nil {
		s.logger.Warn("summary cache write failed", zap.String("owner_id", summary.ClientID), zap.Error(err))
	}
}

// summaryTimeout bounds a shared recomputation, which outlives the request
// that started it.
const summaryTimeout = 10 * time.Second

type summaryResult struct {
	summary domain.ConversationSummary
	found   bool
}

func (s *ConversationService) summarize(ctx context.Context, owner string) (domain.ConversationSummary, bool, error) {
	ch := s.group.DoChan(owner, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), summaryTimeout)
		defer cancel()
		gen := s.generation(owner)
		stats, err := s.messages.Stats(ctx, []string{owner})
		if err != nil {
			return nil, err
		}
		if len(stats) == 0 || stats[0].MessageCount == 0 {
			return summaryResult{}, nil
		}
		users, err := s.users.GetByIDs(ctx, []string{owner})
		if err != nil {
			return nil, err
		}
		summary := buildSummary(stats[0], users[owner])

		s.store(ctx, summary, gen)
		return summaryResult{summary: summary, found: true}, nil
	})
	select {
	case <-ctx.Done():
		return domain.ConversationSummary{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.ConversationSummary{}, false, res.Err
		}
		out := res.Val.(summaryResult)
		return out.summary, out.found, nil
	}
}

func buildSummary(stats domain.ConversationStats, user *domain.User) domain.ConversationSummary {
	summary := domain.ConversationSummary{
		ClientID:       stats.OwnerID,
		DisplayName:    stats.OwnerID,
		MessageCount:   stats.MessageCount,
		UnreadCount:    stats.UnreadCount,
		LastActivityAt: stats.LastActivityAt,
	}
	if user != nil {
		summary.DisplayName = user.DisplayName()
		summary.Email = user.Email
	}
	return summary
}
