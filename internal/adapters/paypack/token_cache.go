package paypack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedToken is a bearer token plus the moment we stop trusting it
type CachedToken struct {
	Access    string    `json:"access"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenCache stores the provider token between calls.
// Implementations must be safe for concurrent use.
type TokenCache interface {
	Get(ctx context.Context) (*CachedToken, error)
	Set(ctx context.Context, token CachedToken) error
	Clear(ctx context.Context) error
}

// MemoryTokenCache keeps the token in process
type MemoryTokenCache struct {
	mu    sync.RWMutex
	token *CachedToken
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (m *MemoryTokenCache) Get(_ context.Context) (*CachedToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return nil, nil
	}
	t := *m.token
	return &t, nil
}

func (m *MemoryTokenCache) Set(_ context.Context, token CachedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = &token
	return nil
}

func (m *MemoryTokenCache) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}

// RedisTokenCache shares one token between every API instance
type RedisTokenCache struct {
	client *redis.Client
	key    string
}

func NewRedisTokenCache(client *redis.Client, key string) *RedisTokenCache {
	if key == "" {
		key = "paypack:access_token"
	}
	return &RedisTokenCache{client: client, key: key}
}

func (r *RedisTokenCache) Get(ctx context.Context) (*CachedToken, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get token: %w", err)
	}

	var token CachedToken
	if err := json.Unmarshal(raw, &token); err != nil {
		// unreadable entry, treat as a miss
		return nil, nil
	}
	return &token, nil
}

// Set expires the key together with the token
func (r *RedisTokenCache) Set(ctx context.Context, token CachedToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return r.Clear(ctx)
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, raw, ttl).Err()
}

func (r *RedisTokenCache) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
