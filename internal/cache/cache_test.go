package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

func testVenue(name string) model.ResearchedVenue {
	return model.ResearchedVenue{
		Venue:      model.Venue{Name: name, Type: "museum"},
		Status:     model.ResearchStatusGood,
		Researched: 0.9,
		Text:       "open daily 10am-5pm",
	}
}

func TestCache_GetSet(t *testing.T) {
	c := New(Config{})

	_, ok := c.Get("Museum of Fine Arts", "Boston, MA")
	assert.False(t, ok)

	c.Set("Museum of Fine Arts", "Boston, MA", testVenue("Museum of Fine Arts"))

	got, ok := c.Get("Museum of Fine Arts", "Boston, MA")
	require.True(t, ok)
	assert.Equal(t, "Museum of Fine Arts", got.Name)
}

func TestCache_KeyNormalization(t *testing.T) {
	c := New(Config{})
	c.Set("  museum of fine arts  ", "boston, ma", testVenue("Museum of Fine Arts"))

	got, ok := c.Get("MUSEUM OF FINE ARTS", "  Boston, MA")
	require.True(t, ok)
	assert.Equal(t, "Museum of Fine Arts", got.Name)

	assert.Equal(t, Key("Café du Monde", "New Orleans"), Key("café du monde", "new orleans"))
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	c := New(Config{TTL: time.Hour}).WithNow(func() time.Time { return *clock })

	c.Set("Trident Booksellers", "Boston, MA", testVenue("Trident Booksellers"))

	_, ok := c.Get("Trident Booksellers", "Boston, MA")
	assert.True(t, ok)

	// Advance past TTL; the entry must read as a miss and be purged.
	later := now.Add(61 * time.Minute)
	clock = &later

	_, ok = c.Get("Trident Booksellers", "Boston, MA")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Size)
}

func TestCache_CapacityEvictsOldest(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	c := New(Config{MaxEntries: 3}).WithNow(func() time.Time { return clock })

	for i, name := range []string{"first", "second", "third"} {
		clock = now.Add(time.Duration(i) * time.Minute)
		c.Set(name, "Boston, MA", testVenue(name))
	}
	assert.Equal(t, 3, c.Stats().Size)

	// Insert at capacity: exactly one entry (the oldest by creation) goes.
	clock = now.Add(10 * time.Minute)
	c.Set("fourth", "Boston, MA", testVenue("fourth"))

	assert.Equal(t, 3, c.Stats().Size)
	_, ok := c.Get("first", "Boston, MA")
	assert.False(t, ok, "oldest entry should have been evicted")
	for _, name := range []string{"second", "third", "fourth"} {
		_, ok := c.Get(name, "Boston, MA")
		assert.True(t, ok, "%s should survive eviction", name)
	}
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := New(Config{MaxEntries: 2})
	c.Set("a", "Boston, MA", testVenue("a"))
	c.Set("b", "Boston, MA", testVenue("b"))

	// Re-setting an existing key at capacity must not evict anything.
	c.Set("a", "Boston, MA", testVenue("a"))
	assert.Equal(t, 2, c.Stats().Size)
	_, ok := c.Get("b", "Boston, MA")
	assert.True(t, ok)
}

func TestCache_Stats(t *testing.T) {
	c := New(Config{HitCost: 2 * time.Second})

	for i := 0; i < 6; i++ {
		_, ok := c.Get(fmt.Sprintf("venue-%d", i), "Boston, MA")
		assert.False(t, ok)
	}
	stats := c.Stats()
	assert.Equal(t, 6, stats.Misses)
	assert.Equal(t, "0%", stats.HitRate)
	assert.Equal(t, "0s", stats.TimeSaved)

	for i := 0; i < 6; i++ {
		c.Set(fmt.Sprintf("venue-%d", i), "Boston, MA", testVenue("v"))
	}
	c.Clear()

	// Warm-cache scenario: same six lookups all hit.
	for i := 0; i < 6; i++ {
		c.Set(fmt.Sprintf("venue-%d", i), "Boston, MA", testVenue("v"))
	}
	for i := 0; i < 6; i++ {
		_, ok := c.Get(fmt.Sprintf("venue-%d", i), "Boston, MA")
		assert.True(t, ok)
	}
	stats = c.Stats()
	assert.Equal(t, 6, stats.Hits)
	assert.Equal(t, "100%", stats.HitRate)
	assert.Equal(t, "12s", stats.TimeSaved)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(Config{MaxEntries: 50})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				name := fmt.Sprintf("venue-%d", j%20)
				c.Set(name, "Boston, MA", testVenue(name))
				c.Get(name, "Boston, MA")
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().Size, 50)
}
