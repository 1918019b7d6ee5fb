// Package cache keeps per-owner conversation summaries so the admin
// conversation list does not rescan every message on each poll. Entries are
// dropped whenever the owner's conversation changes.
package cache

import (
	"context"
	"sync"

	"github.com/spec-kit/legal-intake/internal/domain"
)

// SummaryCache stores conversation summaries keyed by client identity.
type SummaryCache interface {
	GetMany(ctx context.Context, owners []string) (map[string]domain.ConversationSummary, error)
	Set(ctx context.Context, summary domain.ConversationSummary) error
	Invalidate(ctx context.Context, owner string) error
}

// Local is a process-local SummaryCache.
type Local struct {
	mu      sync.RWMutex
	entries map[string]domain.ConversationSummary
}

// NewLocal returns an empty in-process cache.
func NewLocal() *Local {
	return &Local{entries: map[string]domain.ConversationSummary{}}
}

func (l *Local) GetMany(_ context.Context, owners []string) (map[string]domain.ConversationSummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]domain.ConversationSummary, len(owners))
	for _, owner := range owners {
		if summary, ok := l.entries[owner]; ok {
			out[owner] = summary
		}
	}
	return out, nil
}

func (l *Local) Set(_ context.Context, summary domain.ConversationSummary) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[summary.ClientID] = summary
	return nil
}

func (l *Local) Invalidate(_ context.Context, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, owner)
	return nil
}
