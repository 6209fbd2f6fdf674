// Package cache provides the in-memory research cache shared across
// concurrent plan requests.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

// Config controls cache behavior.
type Config struct {
	// TTL is how long an entry stays fresh. Default: 1h.
	TTL time.Duration

	// MaxEntries caps the cache size. Inserting at capacity evicts the
	// entry with the oldest creation time. Default: 200.
	MaxEntries int

	// HitCost is the assumed research time saved by one hit, used for the
	// time-saved estimate. Default: 2s.
	HitCost time.Duration
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = time.Hour
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 200
	}
	if c.HitCost <= 0 {
		c.HitCost = 2 * time.Second
	}
	return c
}

type entry struct {
	venue     model.ResearchedVenue
	venueName string
	createdAt time.Time
	expiresAt time.Time
}

// Cache is a TTL and capacity bounded research cache. It is safe for
// concurrent use; the research fan-out hits it from multiple goroutines.
type Cache struct {
	cfg Config

	mu      sync.Mutex
	entries map[string]*entry
	hits    int
	misses  int

	now func() time.Time // injectable for testing
}

// New creates a research cache.
func New(cfg Config) *Cache {
	return &Cache{
		cfg:     cfg.withDefaults(),
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// WithNow sets the clock used for creation and expiry checks. Testing only.
func (c *Cache) WithNow(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Key derives the cache key for a (venue, location) pair. Keys are stable
// under case and surrounding-whitespace differences.
func Key(venueName, location string) string {
	fold := cases.Fold()
	combined := fold.String(strings.TrimSpace(venueName)) + "|" + fold.String(strings.TrimSpace(location))
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached research for a venue if present and fresh. Expired
// entries are purged lazily and count as misses.
func (c *Cache) Get(venueName, location string) (model.ResearchedVenue, bool) {
	key := Key(venueName, location)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return model.ResearchedVenue{}, false
	}

	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		zap.L().Debug("cache: entry expired", zap.String("venue", venueName))
		return model.ResearchedVenue{}, false
	}

	c.hits++
	return e.venue, true
}

// Set stores a research result. At capacity it first evicts exactly one
// entry, the one with the oldest creation time.
func (c *Cache) Set(venueName, location string, venue model.ResearchedVenue) {
	key := Key(venueName, location)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cfg.MaxEntries {
		c.evictOldestLocked()
	}

	now := c.now()
	c.entries[key] = &entry{
		venue:     venue,
		venueName: venueName,
		createdAt: now,
		expiresAt: now.Add(c.cfg.TTL),
	}
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest *entry
	for k, e := range c.entries {
		if oldest == nil || e.createdAt.Before(oldest.createdAt) {
			oldestKey = k
			oldest = e
		}
	}
	if oldest != nil {
		delete(c.entries, oldestKey)
		zap.L().Debug("cache: evicted oldest entry", zap.String("venue", oldest.venueName))
	}
}

// Clear drops all entries and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.hits = 0
	c.misses = 0
}

// Stats returns a snapshot of cache effectiveness counters.
func (c *Cache) Stats() model.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return model.CacheStats{
		Size:      len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   hitRate(c.hits, c.misses),
		TimeSaved: fmt.Sprintf("%ds", int(c.cfg.HitCost.Seconds())*c.hits),
	}
}

func hitRate(hits, misses int) string {
	total := hits + misses
	if total == 0 {
		return "0%"
	}
	pct := float64(hits) / float64(total) * 100
	if pct == float64(int(pct)) {
		return fmt.Sprintf("%d%%", int(pct))
	}
	return fmt.Sprintf("%.1f%%", pct)
}
