package cache

import (
	"context"
	"fmt"
	"time"
)

// DefaultTTL is how long generated occurrence lists stay valid
const DefaultTTL = 5 * time.Minute

const keyPrefix = "recurrence:"

// Cache stores computed values keyed per event and date range. Two
// implementations exist: an in-process map for single-instance deployments
// and a Redis-backed one for horizontally scaled ones. With the in-process
// map, invalidation on one instance does not reach the others; entries
// self-expire within the TTL window.
type Cache[V any] interface {
	// Get returns the cached value, or false if absent or expired
	Get(ctx context.Context, key string) (V, bool)
	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	// Delete removes a single key
	Delete(ctx context.Context, key string)
	// InvalidateEvent removes every key scoped to the given event id
	InvalidateEvent(ctx context.Context, eventID string)
	// Clear wipes everything
	Clear(ctx context.Context)
}

// Key builds the cache key for an event and a date range. Range bounds are
// dates (YYYY-MM-DD), not instants.
func Key(eventID, startDate, endDate string) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, eventID, startDate, endDate)
}

func eventPrefix(eventID string) string {
	return keyPrefix + eventID + ":"
}
