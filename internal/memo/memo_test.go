package memo

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regatta-data/tackline/internal/timeutil"
)

func TestGetPutCounting(t *testing.T) {
	t.Parallel()
	c := New("test", 10, 0)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Put("k", 42)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	stats := c.Stats()
	assert.Equal(t, "test", stats.Name)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestTTLExpiry(t *testing.T) {
	t.Parallel()
	clock := timeutil.NewMockClock(time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC))
	c := New("test", 10, time.Minute, WithClock(clock))

	c.Put("k", "v")
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(59 * time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok, "entry expired before its TTL")

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry survived past its TTL")

	// The expired entry was removed, so a fresh Put restarts the window.
	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)

	c.Put("k", "v2")
	clock.Advance(30 * time.Second)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()
	clock := timeutil.NewMockClock(time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC))
	c := New("test", 10, 0, WithClock(clock))

	c.Put("k", 1)
	clock.Advance(1000 * time.Hour)
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestEvictionOrder(t *testing.T) {
	t.Parallel()
	c := New("test", 3, 0)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.Put("d", 4) // pushes out the oldest insertion

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should have been evicted")
	for _, k := range []string{"b", "c", "d"} {
		_, ok := c.Get(k)
		assert.True(t, ok, "entry %q missing", k)
	}
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestPutRefreshesExistingKey(t *testing.T) {
	t.Parallel()
	c := New("test", 2, 0)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10) // refresh moves a to the back of the order
	c.Put("c", 3)  // evicts b, not a

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestEvictAndClear(t *testing.T) {
	t.Parallel()
	c := New("test", 10, 0)

	c.Put("a", 1)
	assert.True(t, c.Evict("a"))
	assert.False(t, c.Evict("a"))

	c.Put("b", 2)
	c.Put("c", 3)
	c.Clear()
	assert.Zero(t, c.Stats().Size)
}

func TestUnboundedCache(t *testing.T) {
	t.Parallel()
	c := New("test", 0, 0)
	for i := 0; i < 1000; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}
	assert.Equal(t, 1000, c.Stats().Size)
	assert.Zero(t, c.Stats().Evictions)
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	c := New("test", 64, 0)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("k%d", i%32)
				c.Put(k, g)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Stats().Size, 64)
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Key("analyze", 1, "x"), Key("analyze", 1, "x"))
	assert.NotEqual(t, Key("analyze", 1, "x"), Key("analyze", 2, "x"))
	assert.NotEqual(t, Key("analyze", 1), Key("summarize", 1))

	// The identity stays readable in the key for log lines.
	assert.Contains(t, Key("analyze", 1), "analyze:")
}
