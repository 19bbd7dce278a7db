// Package session keeps the denylist of access tokens revoked before their
// expiry.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore records revoked access tokens in Redis until they expire
type RevocationStore struct {
	client *redis.Client
	prefix string
}

// NewRevocationStore connects to the Redis server at redisURL
func NewRevocationStore(redisURL string) (*RevocationStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRevocationStoreWithClient(client), nil
}

// NewRevocationStoreWithClient creates a store from an existing Redis client
func NewRevocationStoreWithClient(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client, prefix: "revoked:"}
}

// key hashes the token so raw tokens never land in Redis
func (s *RevocationStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + hex.EncodeToString(sum[:])
}

// Revoke denylists token until expiresAt. Tokens that already expired are
// ignored.
func (s *RevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(token), expiresAt.UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether token is on the denylist
func (s *RevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := s.client.Get(ctx, s.key(token)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup revoked token: %w", err)
	}
	return true, nil
}

// Ping checks if Redis is reachable
func (s *RevocationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RevocationStore) Close() error {
	return s.client.Close()
}
