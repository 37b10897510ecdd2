package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	PartnerCachePrefix     = "promotion:partners:"
	DefaultPartnerCacheTTL = 60 * time.Second
)

// CachedProductRepository serves partner lookups from Redis and falls back
// to the wrapped repository on a miss or any cache error.
type CachedProductRepository struct {
	next   ProductRepository
	redis  redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository wraps next with a Redis read-through cache.
func NewCachedProductRepository(next ProductRepository, rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CachedProductRepository {
	if ttl <= 0 {
		ttl = DefaultPartnerCacheTTL
	}
	return &CachedProductRepository{next: next, redis: rdb, ttl: ttl, logger: logger}
}

func (c *CachedProductRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Partner, error) {
	key := PartnerCachePrefix + "ids:" + strings.Join(ids, ",")
	return c.cached(ctx, key, func() ([]models.Partner, error) {
		return c.next.FindByIDs(ctx, ids)
	})
}

func (c *CachedProductRepository) FindTrending(ctx context.Context, excludeID string, limit int) ([]models.Partner, error) {
	key := fmt.Sprintf("%strending:%s:%d", PartnerCachePrefix, excludeID, limit)
	return c.cached(ctx, key, func() ([]models.Partner, error) {
		return c.next.FindTrending(ctx, excludeID, limit)
	})
}

func (c *CachedProductRepository) FindTopViewedInCategory(ctx context.Context, category, excludeID string, limit int) ([]models.Partner, error) {
	key := fmt.Sprintf("%scategory:%s:%s:%d", PartnerCachePrefix, category, excludeID, limit)
	return c.cached(ctx, key, func() ([]models.Partner, error) {
		return c.next.FindTopViewedInCategory(ctx, category, excludeID, limit)
	})
}

func (c *CachedProductRepository) cached(ctx context.Context, key string, load func() ([]models.Partner, error)) ([]models.Partner, error) {
	cachedData, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var partners []models.Partner
		if err := json.Unmarshal([]byte(cachedData), &partners); err == nil {
			return partners, nil
		}
		c.logger.Warn("Failed to unmarshal cached partners", zap.String("key", key))
	} else if err != redis.Nil {
		c.logger.Debug("Partner cache unavailable", zap.String("key", key), zap.Error(err))
	}

	partners, err := load()
	if err != nil {
		return nil, err
	}
	c.setAsync(key, partners)
	return partners, nil
}

func (c *CachedProductRepository) setAsync(key string, partners []models.Partner) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		data, err := json.Marshal(partners)
		if err != nil {
			c.logger.Warn("Failed to marshal partners for cache", zap.Error(err))
			return
		}
		if err := c.redis.Set(bgCtx, key, data, c.ttl).Err(); err != nil {
			c.logger.Debug("Failed to cache partners", zap.String("key", key), zap.Error(err))
		}
	}()
}
