package datasource

import (
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
)

// SlidingWindowCache stores bars using a sliding window algorithm.
// It maintains a fixed-size cache per symbol, automatically evicting the oldest
// entries when the cache reaches capacity.
type SlidingWindowCache struct {
	maxSize int
	// data stores bars per symbol, ordered by time (oldest first)
	data map[string][]types.Bar
	mu   sync.RWMutex
}

// NewSlidingWindowCache creates a new SlidingWindowCache with the specified maximum size per symbol.
func NewSlidingWindowCache(maxSize int) *SlidingWindowCache {
	return &SlidingWindowCache{
		maxSize: maxSize,
		data:    make(map[string][]types.Bar),
	}
}

// Add adds a bar to the cache. If the cache for this symbol exceeds maxSize,
// the oldest entry is evicted. A bar with an existing timestamp replaces it.
func (c *SlidingWindowCache) Add(bar types.Bar) {
	if c.maxSize <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	symbolData := c.data[bar.Symbol]

	// Fast path: chronological append
	if n := len(symbolData); n == 0 || bar.Time.After(symbolData[n-1].Time) {
		symbolData = append(symbolData, bar)
		if len(symbolData) > c.maxSize {
			symbolData = symbolData[1:]
		}

		c.data[bar.Symbol] = symbolData

		return
	}

	insertIdx := sort.Search(len(symbolData), func(i int) bool {
		return !symbolData[i].Time.Before(bar.Time)
	})

	if insertIdx < len(symbolData) && symbolData[insertIdx].Time.Equal(bar.Time) {
		symbolData[insertIdx] = bar

		return
	}

	symbolData = append(symbolData, types.Bar{})
	copy(symbolData[insertIdx+1:], symbolData[insertIdx:])
	symbolData[insertIdx] = bar

	if len(symbolData) > c.maxSize {
		symbolData = symbolData[len(symbolData)-c.maxSize:]
	}

	c.data[bar.Symbol] = symbolData
}

// Get returns the bar of symbol at exactly timestamp.
func (c *SlidingWindowCache) Get(symbol string, timestamp time.Time) (types.Bar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	symbolData := c.data[symbol]

	idx := sort.Search(len(symbolData), func(i int) bool {
		return !symbolData[i].Time.Before(timestamp)
	})

	if idx < len(symbolData) && symbolData[idx].Time.Equal(timestamp) {
		return symbolData[idx], true
	}

	return types.Bar{}, false
}

// GetAtOrBefore returns the latest bar of symbol not after timestamp.
func (c *SlidingWindowCache) GetAtOrBefore(symbol string, timestamp time.Time) (types.Bar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	symbolData := c.data[symbol]

	idx := sort.Search(len(symbolData), func(i int) bool {
		return symbolData[i].Time.After(timestamp)
	})

	if idx == 0 {
		return types.Bar{}, false
	}

	return symbolData[idx-1], true
}

// GetPrevious returns up to count bars of symbol ending at end, oldest first.
// The second result is false when fewer than count bars are cached.
func (c *SlidingWindowCache) GetPrevious(symbol string, end time.Time, count int) ([]types.Bar, bool) {
	if count <= 0 {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	symbolData := c.data[symbol]

	endIdx := sort.Search(len(symbolData), func(i int) bool {
		return symbolData[i].Time.After(end)
	})

	startIdx := max(0, endIdx-count)
	result := make([]types.Bar, endIdx-startIdx)
	copy(result, symbolData[startIdx:endIdx])

	return result, len(result) == count
}

// Last returns the most recent bar of symbol.
func (c *SlidingWindowCache) Last(symbol string) (types.Bar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	symbolData := c.data[symbol]
	if len(symbolData) == 0 {
		return types.Bar{}, false
	}

	return symbolData[len(symbolData)-1], true
}

// Size returns the current number of cached entries for a symbol.
func (c *SlidingWindowCache) Size(symbol string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data[symbol])
}

// TotalSize returns the total number of cached entries across all symbols.
func (c *SlidingWindowCache) TotalSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, symbolData := range c.data {
		total += len(symbolData)
	}

	return total
}

// Clear removes all cached data.
func (c *SlidingWindowCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string][]types.Bar)
}

// MaxSize returns the maximum cache size per symbol.
func (c *SlidingWindowCache) MaxSize() int {
	return c.maxSize
}
