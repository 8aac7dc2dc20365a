package report

import (
	"sync"
	"time"
)

const chartCacheTTL = 10 * time.Minute

type chartCacheEntry struct {
	createdAt time.Time
	image     []byte
}

// ChartCache keeps rendered PNGs for a short time so repeated chat requests don't re-render
type ChartCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]chartCacheEntry
}

func NewChartCache(ttl time.Duration) *ChartCache {
	if ttl <= 0 {
		ttl = chartCacheTTL
	}
	return &ChartCache{ttl: ttl, now: time.Now, entries: map[string]chartCacheEntry{}}
}

// Get returns a copy of a fresh entry. A nil cache never hits.
func (c *ChartCache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		if c.now().Before(entry.createdAt.Add(c.ttl)) {
			img := make([]byte, len(entry.image))
			copy(img, entry.image)
			return img, true
		}
		delete(c.entries, key)
	}
	return nil, false
}

func (c *ChartCache) Set(key string, img []byte) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = chartCacheEntry{createdAt: c.now(), image: img}
	c.mu.Unlock()
}
