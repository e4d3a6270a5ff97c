package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/modelgate/core"
)

// RedisStore is a Store implementation backed by Redis, suitable for sharing
// a response cache across processes. Entries are JSON-encoded and expire after
// TTL.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisStoreOptions configures a RedisStore.
type RedisStoreOptions struct {
	// KeyPrefix namespaces all cache keys. Default: "modelgate:response:"
	KeyPrefix string
	// TTL bounds entry lifetime. Default: 1h
	TTL time.Duration
}

// NewRedisStore creates a RedisStore on top of an existing Redis client.
func NewRedisStore(client *redis.Client, optFns ...func(o *RedisStoreOptions)) *RedisStore {
	opts := RedisStoreOptions{
		KeyPrefix: "modelgate:response:",
		TTL:       time.Hour,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisStore{client: client, keyPrefix: opts.KeyPrefix, ttl: opts.TTL}
}

// Get returns the cached response or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, fingerprint, providerID string) (*core.Response, error) {
	data, err := s.client.Get(ctx, s.key(fingerprint, providerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: redis get: %w", err)
	}

	var resp core.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("cache: decode cached response: %w", err)
	}
	return &resp, nil
}

// Put stores the response with the configured TTL.
func (s *RedisStore) Put(ctx context.Context, fingerprint, providerID string, resp *core.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("cache: encode response: %w", err)
	}
	if err := s.client.Set(ctx, s.key(fingerprint, providerID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) key(fingerprint, providerID string) string {
	return s.keyPrefix + storeKey(fingerprint, providerID)
}

var _ Store = (*RedisStore)(nil)
