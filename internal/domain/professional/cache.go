package professional

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedRepository is a read-through Redis cache in front of a Repository.
// Writes go to the underlying repository first and then evict the entry.
type CachedRepository struct {
	Repository
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedRepository wraps repo. A zero ttl disables expiry.
func NewCachedRepository(repo Repository, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedRepository {
	return &CachedRepository{Repository: repo, client: client, ttl: ttl, logger: logger}
}

func cacheKey(id uuid.UUID) string { return "professional:" + id.String() }

func (c *CachedRepository) GetByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	raw, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err == nil {
		var p Professional
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		c.logger.Warn().Str("professional_id", id.String()).Msg("discarding unreadable cache entry")
	} else if !errors.Is(err, redis.Nil) {
		// Cache outages degrade to direct reads.
		c.logger.Warn().Err(err).Str("professional_id", id.String()).Msg("professional cache read failed")
	}

	p, err := c.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, cacheKey(id), raw, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("professional_id", id.String()).Msg("professional cache write failed")
		}
	}
	return p, nil
}

func (c *CachedRepository) Update(ctx context.Context, p *Professional) error {
	if err := c.Repository.Update(ctx, p); err != nil {
		return err
	}
	c.evict(ctx, p.ID)
	return nil
}

func (c *CachedRepository) evict(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("professional_id", id.String()).Msg("professional cache evict failed")
	}
}
