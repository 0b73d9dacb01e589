package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/queryforge/queryforge/memory"
)

// RedisStore implements memory.Store using a Redis list. Entries are pushed
// to the tail, so the list is always in insertion order.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string        // List key holding the history
	TTL      time.Duration // Key expiry (0 means no expiration)
}

// NewRedisStore creates a Redis-backed history store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = &RedisConfig{
			Addr: "localhost:6379",
			Key:  "queryforge:history",
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		key:    config.Key,
		ttl:    config.TTL,
	}
}

// Append pushes an entry to the tail of the history list.
func (s *RedisStore) Append(ctx context.Context, e memory.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, s.key, s.ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh history TTL: %w", err)
		}
	}
	return nil
}

// Recent returns up to n of the newest entries, oldest first.
func (s *RedisStore) Recent(ctx context.Context, n int) ([]memory.Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	raw, err := s.client.LRange(ctx, s.key, int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]memory.Entry, 0, len(raw))
	for _, item := range raw {
		var e memory.Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear removes the history list.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	count, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return int(count), nil
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
