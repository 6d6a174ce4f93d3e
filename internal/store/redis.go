package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceTTL = 5 * time.Minute

// RedisStore caches presence status. It is provisioned at startup but
// never consulted on the authenticated request path; presence writes
// are best-effort side effects of login, logout and profile updates.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis store from a redis:// URL.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func presenceKey(userID string) string {
	return "presence:" + userID
}

// SetPresence caches a user's presence status with a TTL.
func (s *RedisStore) SetPresence(ctx context.Context, userID, status string) error {
	return s.client.Set(ctx, presenceKey(userID), status, presenceTTL).Err()
}

// GetPresence returns the cached presence status, or "" on a miss.
func (s *RedisStore) GetPresence(ctx context.Context, userID string) (string, error) {
	status, err := s.client.Get(ctx, presenceKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return status, err
}
