// Package badges keeps per-principal unread notification counters in Redis.
// The counters back the badge/dropdown affordances of the consuming UI; the
// delivery engine itself never reads them.
package badges

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "handoff:badge:"

// Store increments and reads unread counters.
type Store struct {
	client redis.UniversalClient
}

// NewStore creates a badge store from a Redis connection URL.
func NewStore(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return &Store{client: redis.NewClient(opts)}, nil
}

// NewStoreWithClient wraps an existing client, for tests.
func NewStoreWithClient(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Increment bumps the unread counter for each principal.
func (s *Store) Increment(ctx context.Context, principalIDs ...string) error {
	for _, id := range principalIDs {
		if id == "" {
			continue
		}

		err := s.client.Incr(ctx, keyPrefix+id).Err()
		if err != nil {
			return fmt.Errorf("failed to increment badge for %s: %w", id, err)
		}
	}

	return nil
}

// Count returns the unread counter for a principal. A missing key counts as
// zero.
func (s *Store) Count(ctx context.Context, principalID string) (int64, error) {
	count, err := s.client.Get(ctx, keyPrefix+principalID).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to read badge for %s: %w", principalID, err)
	}

	return count, nil
}

// Clear resets the unread counter for a principal.
func (s *Store) Clear(ctx context.Context, principalID string) error {
	err := s.client.Del(ctx, keyPrefix+principalID).Err()
	if err != nil {
		return fmt.Errorf("failed to clear badge for %s: %w", principalID, err)
	}

	return nil
}

// HealthCheck pings the Redis backend.
func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}

	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
