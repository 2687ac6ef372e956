package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/oppscout/models"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(t *testing.T, max int) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := New(max)
	c.now = clock.now
	t.Cleanup(c.Close)
	return c, clock
}

func TestKey_IgnoresOrder(t *testing.T) {
	a := Key([]string{"vicscreen", "screen_australia"}, false)
	b := Key([]string{"screen_australia", "vicscreen"}, false)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Key([]string{"screen_australia", "vicscreen"}, true))
	assert.NotEqual(t, a, Key([]string{"screen_australia"}, false))
}

func TestCache_GetRespectsMaxAge(t *testing.T) {
	c, clock := newTestCache(t, 10)
	resp := &models.DiscoverResponse{Success: true, RunID: "run-1"}
	c.Set("k", resp)

	_, ok := c.Get("k", 0)
	assert.False(t, ok, "max_age 0 disables lookups")

	clock.t = clock.t.Add(30 * time.Second)
	got, ok := c.Get("k", 60_000)
	require.True(t, ok)
	assert.Equal(t, "run-1", got.RunID)

	clock.t = clock.t.Add(time.Minute)
	_, ok = c.Get("k", 60_000)
	assert.False(t, ok)

	_, ok = c.Get("missing", 60_000)
	assert.False(t, ok)
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c, _ := newTestCache(t, 2)
	c.Set("a", &models.DiscoverResponse{})
	c.Set("b", &models.DiscoverResponse{})
	c.Set("b", &models.DiscoverResponse{RunID: "again"})
	assert.Equal(t, 2, c.Len(), "overwriting a key does not evict")

	c.Set("c", &models.DiscoverResponse{})
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c", 1000)
	assert.True(t, ok)
}

func TestCache_Prune(t *testing.T) {
	c, clock := newTestCache(t, 10)
	c.Set("old", &models.DiscoverResponse{})
	clock.t = clock.t.Add(2 * time.Hour)
	c.Set("new", &models.DiscoverResponse{})

	c.prune()
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("new", 1000)
	assert.True(t, ok)
}
