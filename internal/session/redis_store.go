package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the subset of the Redis client the store uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps the encoded session list under one Redis key.
type RedisStore struct {
	client  KV
	key     string
	timeout time.Duration
}

// NewRedisStore creates a Redis-backed store. An empty key uses
// DefaultKey.
func NewRedisStore(client KV, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{
		client:  client,
		key:     "hiwar:" + key,
		timeout: 2 * time.Second,
	}
}

// Key returns the Redis key in use.
func (s *RedisStore) Key() string {
	return s.key
}

// ReadAll loads the list; a missing key is an empty list.
func (s *RedisStore) ReadAll(ctx context.Context) ([]Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions from redis: %w", err)
	}
	return Unmarshal(data)
}

// WriteAll replaces the stored value.
func (s *RedisStore) WriteAll(ctx context.Context, sessions []Session) error {
	data, err := Marshal(sessions)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing sessions to redis: %w", err)
	}
	return nil
}
