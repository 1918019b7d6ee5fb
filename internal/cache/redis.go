package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/legal-intake/internal/domain"
)

const summaryKeyPrefix = "conv:summary:"

// Redis is a SummaryCache shared between API instances.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis wraps client; ttl bounds how long a summary survives if an
// invalidation is ever lost.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Redis{client: client, ttl: ttl}
}

type cachedSummary struct {
	ClientID       string    `json:"client_id"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	MessageCount   int       `json:"message_count"`
	UnreadCount    int       `json:"unread_count"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

func summaryKey(owner string) string {
	return summaryKeyPrefix + owner
}

func (r *Redis) GetMany(ctx context.Context, owners []string) (map[string]domain.ConversationSummary, error) {
	out := make(map[string]domain.ConversationSummary, len(owners))
	if len(owners) == 0 {
		return out, nil
	}
	keys := make([]string, len(owners))
	for i, owner := range owners {
		keys[i] = summaryKey(owner)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, raw := range values {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var cached cachedSummary
		if err := json.Unmarshal([]byte(str), &cached); err != nil {
			continue
		}
		out[owners[i]] = domain.ConversationSummary(cached)
	}
	return out, nil
}

func (r *Redis) Set(ctx context.Context, summary domain.ConversationSummary) error {
	payload, err := json.Marshal(cachedSummary(summary))
	if err != nil {
		return err
	}
	return r.client.Set(ctx, summaryKey(summary.ClientID), payload, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, owner string) error {
	err := r.client.Del(ctx, summaryKey(owner)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
