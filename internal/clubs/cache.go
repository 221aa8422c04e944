package clubs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clubvoice/clubvoice/pkg/logging"
)

// CachedRepository layers a Redis read-through cache over a Repository.
// Assistant-id resolution runs on every inbound webhook, so those lookups
// are cached with a TTL; Postgres stays the source of truth and writes go
// straight through with cache invalidation.
type CachedRepository struct {
	next   Repository
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedRepository wraps next with a Redis cache. A nil client returns
// next unchanged so callers can wire the cache conditionally.
func NewCachedRepository(next Repository, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) Repository {
	if redisClient == nil {
		return next
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRepository{next: next, redis: redisClient, ttl: ttl, logger: logger}
}

func (c *CachedRepository) assistantKey(assistantID string) string {
	return fmt.Sprintf("club:assistant:%s", assistantID)
}

func (c *CachedRepository) idKey(id string) string {
	return fmt.Sprintf("club:id:%s", id)
}

// Create passes through and leaves the cache cold.
func (c *CachedRepository) Create(ctx context.Context, req *CreateClubRequest) (*Club, error) {
	return c.next.Create(ctx, req)
}

// GetByID reads through the cache.
func (c *CachedRepository) GetByID(ctx context.Context, id string) (*Club, error) {
	if club, ok := c.lookup(ctx, c.idKey(id)); ok {
		return club, nil
	}
	club, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, c.idKey(id), club)
	return club, nil
}

// GetByAssistantID reads through the cache. This is the webhook hot path.
func (c *CachedRepository) GetByAssistantID(ctx context.Context, assistantID string) (*Club, error) {
	if assistantID == "" {
		return nil, ErrClubNotFound
	}
	if club, ok := c.lookup(ctx, c.assistantKey(assistantID)); ok {
		return club, nil
	}
	club, err := c.next.GetByAssistantID(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, c.assistantKey(assistantID), club)
	return club, nil
}

// List is not cached; staff listings are rare compared to webhook lookups.
func (c *CachedRepository) List(ctx context.Context) ([]*Club, error) {
	return c.next.List(ctx)
}

// Update writes through and drops both cache entries for the club,
// including the assistant key the club held before the update.
func (c *CachedRepository) Update(ctx context.Context, id string, req *UpdateClubRequest) (*Club, error) {
	prev, ok := c.lookup(ctx, c.idKey(id))
	club, err := c.next.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	keys := []string{c.idKey(id)}
	if club.AssistantID != "" {
		keys = append(keys, c.assistantKey(club.AssistantID))
	}
	if ok && prev.AssistantID != "" && prev.AssistantID != club.AssistantID {
		keys = append(keys, c.assistantKey(prev.AssistantID))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("club cache invalidation failed", "club_id", id, "error", err)
	}
	return club, nil
}

func (c *CachedRepository) lookup(ctx context.Context, key string) (*Club, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		// A cache outage must never fail tenant resolution.
		c.logger.Warn("club cache read failed", "key", key, "error", err)
		return nil, false
	}
	var club Club
	if err := json.Unmarshal(data, &club); err != nil {
		c.logger.Warn("club cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &club, true
}

func (c *CachedRepository) store(ctx context.Context, key string, club *Club) {
	data, err := json.Marshal(club)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("club cache write failed", "key", key, "error", err)
	}
}
