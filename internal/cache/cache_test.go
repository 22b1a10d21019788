package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemory_SetThenGetWithinTTL(t *testing.T) {
	c := NewMemory[[]string]()
	ctx := context.Background()

	key := Key("ev-1", "2025-01-01", "2025-12-31")
	c.Set(ctx, key, []string{"a", "b"}, DefaultTTL)

	got, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestMemory_GetAfterExpiryReturnsAbsent(t *testing.T) {
	c := NewMemory[int]()
	ctx := context.Background()

	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	key := Key("ev-1", "2025-01-01", "2025-01-31")
	c.Set(ctx, key, 42, 5*time.Minute)

	current = current.Add(4 * time.Minute)
	_, ok := c.Get(ctx, key)
	assert.True(t, ok, "entry should still be valid before TTL elapses")

	current = current.Add(2 * time.Minute)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok, "entry must be absent after TTL elapses")

	// Expired entry is evicted, not just hidden
	c.mu.Lock()
	_, stillThere := c.entries[key]
	c.mu.Unlock()
	assert.False(t, stillThere)
}

func TestMemory_InvalidateEventRemovesOnlyThatEventsKeys(t *testing.T) {
	c := NewMemory[string]()
	ctx := context.Background()

	c.Set(ctx, Key("ev-1", "2025-01-01", "2025-01-31"), "jan", 0)
	c.Set(ctx, Key("ev-1", "2025-02-01", "2025-02-28"), "feb", 0)
	c.Set(ctx, Key("ev-2", "2025-01-01", "2025-01-31"), "other", 0)

	c.InvalidateEvent(ctx, "ev-1")

	_, ok := c.Get(ctx, Key("ev-1", "2025-01-01", "2025-01-31"))
	assert.False(t, ok)
	_, ok = c.Get(ctx, Key("ev-1", "2025-02-01", "2025-02-28"))
	assert.False(t, ok)

	got, ok := c.Get(ctx, Key("ev-2", "2025-01-01", "2025-01-31"))
	assert.True(t, ok, "other events' entries must survive")
	assert.Equal(t, "other", got)
}

func TestMemory_Clear(t *testing.T) {
	c := NewMemory[string]()
	ctx := context.Background()

	c.Set(ctx, Key("ev-1", "2025-01-01", "2025-01-31"), "x", 0)
	c.Set(ctx, Key("ev-2", "2025-01-01", "2025-01-31"), "y", 0)

	c.Clear(ctx)

	_, ok := c.Get(ctx, Key("ev-1", "2025-01-01", "2025-01-31"))
	assert.False(t, ok)
	_, ok = c.Get(ctx, Key("ev-2", "2025-01-01", "2025-01-31"))
	assert.False(t, ok)
}

func TestMemory_ZeroTTLUsesDefault(t *testing.T) {
	c := NewMemory[string]()
	ctx := context.Background()

	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set(ctx, "k", "v", 0)

	current = current.Add(DefaultTTL - time.Second)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestKey_DateGranularity(t *testing.T) {
	assert.Equal(t, "recurrence:ev-9:2025-03-01:2025-03-31", Key("ev-9", "2025-03-01", "2025-03-31"))
}
