package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

// RedisCache shares the offer set between service instances.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, key: "offers:" + offerSetKey, ttl: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetOfferSet(ctx context.Context) (*models.OfferSet, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	var set models.OfferSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, false, errors.Wrap(err, "decode offer set")
	}
	return &set, true, nil
}

func (c *RedisCache) SetOfferSet(ctx context.Context, set *models.OfferSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return errors.Wrap(err, "encode offer set")
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}
