package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

// RedisSessionStore keeps one key per revoked session. Redis drops the key
// once the TTL passes, by which time the token itself has expired.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisClient parses redisURL and checks the server answers.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	return client, nil
}

// NewRedisSessionStore creates a session store on an existing client
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Revoke marks the session as logged out for ttl. A non-positive ttl means
// the token has already expired and nothing needs to be stored.
func (s *RedisSessionStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, revokedKeyPrefix+sessionID, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// IsRevoked reports whether the session was logged out
func (s *RedisSessionStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}
