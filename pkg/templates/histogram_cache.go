package templates

import (
	"fmt"
	"os"
	"sync"
	"time"

	"jordanella.com/rehearsal-bot/internal/cv"
)

type cachedHistogram struct {
	histogram cv.Histogram
	modTime   time.Time
	size      int64
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits   int64
	Misses int64
}

// HistogramCache computes reference histograms once per file version
type HistogramCache struct {
	mu      sync.Mutex
	entries map[string]cachedHistogram
	stats   CacheStats
}

// NewHistogramCache creates an empty cache
func NewHistogramCache() *HistogramCache {
	return &HistogramCache{entries: make(map[string]cachedHistogram)}
}

// Get returns the histogram of the PNG at path, reloading it when the file
// changed since it was cached
func (c *HistogramCache) Get(path string) (cv.Histogram, error) {
	info, err := os.Stat(path)
	if err != nil {
		return cv.Histogram{}, fmt.Errorf("failed to stat reference: %w", err)
	}

	c.mu.Lock()
	entry, ok := c.entries[path]
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		c.stats.Hits++
		c.mu.Unlock()
		return entry.histogram, nil
	}
	c.stats.Misses++
	c.mu.Unlock()

	img, err := cv.LoadPNG(path)
	if err != nil {
		return cv.Histogram{}, err
	}
	h := cv.NewHistogram(img)

	c.mu.Lock()
	c.entries[path] = cachedHistogram{histogram: h, modTime: info.ModTime(), size: info.Size()}
	c.mu.Unlock()

	return h, nil
}

// Invalidate drops the cached entry for path
func (c *HistogramCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Stats returns a snapshot of cache statistics
func (c *HistogramCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
