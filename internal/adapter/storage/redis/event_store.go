package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// EventStore implements ports.ProcessedEventStore using Redis SET NX.
type EventStore struct {
	client *goredis.Client
	prefix string
}

// NewEventStore creates a Redis-backed processed webhook event store.
func NewEventStore(client *goredis.Client) *EventStore {
	return &EventStore{
		client: client,
		prefix: "webhook:event:",
	}
}

// MarkProcessed atomically records eventID for provider. It returns true if
// the id was not seen within ttl, false for a redelivery.
func (s *EventStore) MarkProcessed(ctx context.Context, provider, eventID string, ttl time.Duration) (bool, error) {
	key := s.prefix + provider + ":" + eventID
	result, err := s.client.SetArgs(ctx, key, time.Now().Unix(), goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis mark processed: %w", err)
	}
	return result == "OK", nil
}
