package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
)

type Cache interface {
	Reset()
}

// OptionChainCache holds the latest option chain and sentiment per symbol. Chain
// updates merge per strike with the newest write winning; no history is kept.
type OptionChainCache struct {
	mu         sync.RWMutex
	chains     map[string]map[float64]types.StrikeData
	chainTimes map[string]time.Time
	sentiments map[string]*types.Sentiment
	loadedDays map[string]string
}

func NewOptionChainCache() *OptionChainCache {
	c := &OptionChainCache{}
	c.Reset()

	return c
}

// Reset implements cache.Cache.
func (c *OptionChainCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chains = make(map[string]map[float64]types.StrikeData)
	c.chainTimes = make(map[string]time.Time)
	c.sentiments = make(map[string]*types.Sentiment)
	c.loadedDays = make(map[string]string)
}

// Update merges the chain's strikes into the symbol's snapshot.
func (c *OptionChainCache) Update(chain types.OptionChain) {
	c.mu.Lock()
	defer c.mu.Unlock()

	strikes, ok := c.chains[chain.Symbol]
	if !ok {
		strikes = make(map[float64]types.StrikeData, len(chain.Strikes))
		c.chains[chain.Symbol] = strikes
	}

	for _, s := range chain.Strikes {
		strikes[s.Strike] = s
	}

	if chain.Timestamp.After(c.chainTimes[chain.Symbol]) {
		c.chainTimes[chain.Symbol] = chain.Timestamp
	}
}

// Get returns the merged snapshot for symbol with strikes ascending.
func (c *OptionChainCache) Get(symbol string) optional.Option[types.OptionChain] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	strikes, ok := c.chains[symbol]
	if !ok {
		return optional.None[types.OptionChain]()
	}

	chain := types.OptionChain{
		Symbol:    symbol,
		Timestamp: c.chainTimes[symbol],
		Strikes:   make([]types.StrikeData, 0, len(strikes)),
	}

	for _, s := range strikes {
		chain.Strikes = append(chain.Strikes, s)
	}

	sort.Slice(chain.Strikes, func(i, j int) bool { return chain.Strikes[i].Strike < chain.Strikes[j].Strike })

	return optional.Some(chain)
}

// SetSentiment records the latest sentiment snapshot of its symbol.
func (c *OptionChainCache) SetSentiment(s *types.Sentiment) {
	if s == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sentiments[s.Symbol] = s
}

// Sentiment returns the latest sentiment snapshot of symbol.
func (c *OptionChainCache) Sentiment(symbol string) optional.Option[*types.Sentiment] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.sentiments[symbol]
	if !ok {
		return optional.None[*types.Sentiment]()
	}

	return optional.Some(s)
}

// MarkDayLoaded remembers that day's data has been fetched for symbol.
func (c *OptionChainCache) MarkDayLoaded(symbol string, day time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadedDays[symbol] = day.Format(time.DateOnly)
}

// DayLoaded reports whether MarkDayLoaded was called for the same calendar day.
func (c *OptionChainCache) DayLoaded(symbol string, day time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.loadedDays[symbol] == day.Format(time.DateOnly)
}
