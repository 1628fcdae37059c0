package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", "3")

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	clk.t = clk.t.Add(30 * time.Second)
	c.Set("c", "3")

	clk.t = clk.t.Add(45 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok)

	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestLRUOverwriteRefreshes(t *testing.T) {
	c, clk := newTestCache(2, time.Minute)
	c.Set("a", "1")
	clk.t = clk.t.Add(50 * time.Second)
	c.Set("a", "2")
	clk.t = clk.t.Add(50 * time.Second)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, c.Size())
}

func TestStats(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Get("missing")
	c.Set("a", "1")
	c.Get("a")
	c.Delete("a")

	assert.Equal(t, Stats{Size: 0, Hits: 1, Misses: 1}, c.Stats())
}

func TestGetOrBuild(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	calls := 0
	build := func() (string, error) {
		calls++
		return "payload", nil
	}

	key := VersionedKey("pie", 3)
	assert.Equal(t, "pie:3", key)

	v, hit, err := GetOrBuild[string](c, key, build)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "payload", v)

	v, hit, err = GetOrBuild[string](c, key, build)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "payload", v)
	assert.Equal(t, 1, calls)

	errBoom := errors.New("boom")
	_, _, err = GetOrBuild[string](c, "pie:4", func() (string, error) { return "", errBoom })
	assert.ErrorIs(t, err, errBoom)
	_, ok := c.Get("pie:4")
	assert.False(t, ok)
}

func TestJanitorSweepsRegisteredCaches(t *testing.T) {
	c, clk := newTestCache(4, time.Second)
	c.Set("a", "1")
	clk.t = clk.t.Add(2 * time.Second)

	j := NewJanitor(nil)
	j.Register(c)
	assert.Equal(t, 1, j.Sweep())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, j.Run(ctx, time.Hour))
}
