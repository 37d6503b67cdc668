package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"viewergate/internal/profile/models"
	id "viewergate/pkg/domain"
	"viewergate/pkg/platform/sentinel"
)

const keyPrefix = "viewergate:profile:"

// RedisCache shares loaded profiles across server instances. Entries expire
// with the session TTL so a lost sign-out still fails closed eventually.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func key(accountID id.AccountID) string {
	return keyPrefix + accountID.String()
}

func (c *RedisCache) Get(ctx context.Context, accountID id.AccountID) (*models.VerificationProfile, error) {
	raw, err := c.client.Get(ctx, key(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached profile: %w", err)
	}
	var p models.VerificationProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}
	return &p, nil
}

func (c *RedisCache) Set(ctx context.Context, p *models.VerificationProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := c.client.Set(ctx, key(p.AccountID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache profile: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, accountID id.AccountID) error {
	if err := c.client.Del(ctx, key(accountID)).Err(); err != nil {
		return fmt.Errorf("evict cached profile: %w", err)
	}
	return nil
}
