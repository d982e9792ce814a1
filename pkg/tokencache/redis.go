package tokencache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/ssoflow/pkg/session"
)

const redisKeyPrefix = "ssoflow:token:"

// Redis is a token cache backed by Redis. Records expire with the token so a
// stale credential is never served.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed token cache
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Load returns the cached token for applicationID, or (nil, nil) on a miss
func (r *Redis) Load(ctx context.Context, applicationID string) (*session.CachedToken, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+applicationID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var tok session.CachedToken
	if err := json.Unmarshal([]byte(data), &tok); err != nil {
		return nil, fmt.Errorf("decode cached token: %w", err)
	}
	if !tok.Valid(time.Now()) {
		return nil, nil
	}
	return &tok, nil
}

// Save stores token for applicationID with a TTL matching the token expiry
func (r *Redis) Save(ctx context.Context, applicationID string, token *session.CachedToken) error {
	if token == nil {
		return fmt.Errorf("token is required")
	}
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token already expired")
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode cached token: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+applicationID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear purges the cached token for applicationID
func (r *Redis) Clear(ctx context.Context, applicationID string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+applicationID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
