package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cartboost/cartboost-blocks-service/internal/config"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
)

const (
	shopBlocksKeyPrefix = "shop_blocks:"
	catalogKey          = "block_catalog"
	defaultCacheTTL     = 5 * time.Minute
)

// RedisEntitlementCache implements EntitlementCache using Redis.
type RedisEntitlementCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisEntitlementCache creates a new Redis-based entitlement cache.
func NewRedisEntitlementCache(cfg config.RedisConfig, logger zerolog.Logger) *RedisEntitlementCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisEntitlementCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

var _ EntitlementCache = (*RedisEntitlementCache)(nil)

// GetShopBlocks retrieves a shop's cached entitlement set. A cache
// miss returns (nil, nil).
func (c *RedisEntitlementCache) GetShopBlocks(ctx context.Context, shop string) ([]string, error) {
	key := shopBlocksKeyPrefix + shop

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.Debug().Str("shop", shop).Msg("Entitlement cache miss")
		return nil, nil
	}
	if err != nil {
		c.logger.Error().Err(err).Str("shop", shop).Msg("Entitlement cache get error")
		return nil, err
	}

	var blockIDs []string
	if err := json.Unmarshal(data, &blockIDs); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("shop", shop).Int("block_count", len(blockIDs)).Msg("Entitlement cache hit")
	return blockIDs, nil
}

// SetShopBlocks caches a shop's entitlement set.
func (c *RedisEntitlementCache) SetShopBlocks(ctx context.Context, shop string, blockIDs []string) error {
	key := shopBlocksKeyPrefix + shop

	data, err := json.Marshal(blockIDs)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error().Err(err).Str("shop", shop).Msg("Entitlement cache set error")
		return err
	}
	return nil
}

// InvalidateShop drops a shop's cached entitlement set.
func (c *RedisEntitlementCache) InvalidateShop(ctx context.Context, shop string) error {
	return c.client.Del(ctx, shopBlocksKeyPrefix+shop).Err()
}

// GetCatalog retrieves the cached block catalog. A cache miss returns
// (nil, nil).
func (c *RedisEntitlementCache) GetCatalog(ctx context.Context) ([]*models.Block, error) {
	data, err := c.client.Get(ctx, catalogKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var blocks []*models.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// SetCatalog caches the block catalog.
func (c *RedisEntitlementCache) SetCatalog(ctx context.Context, blocks []*models.Block) error {
	data, err := json.Marshal(blocks)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogKey, data, c.ttl).Err()
}
