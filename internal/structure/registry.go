package structure

import (
	"sync"

	"github.com/rxtech-lab/argo-options/internal/types"
)

// Registry holds one tracker per symbol.
type Registry struct {
	mu        sync.Mutex
	window    int
	maxPivots int
	trackers  map[string]*Tracker
}

// NewRegistry creates an empty registry whose trackers use the given settings.
func NewRegistry(window, maxPivots int) *Registry {
	return &Registry{
		window:    window,
		maxPivots: maxPivots,
		trackers:  map[string]*Tracker{},
	}
}

// Tracker returns the tracker for symbol, creating it on first use.
func (r *Registry) Tracker(symbol string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trackers[symbol]
	if !ok {
		t = NewTracker(r.window, r.maxPivots)
		r.trackers[symbol] = t
	}

	return t
}

// OnBar routes a bar to its symbol's tracker.
func (r *Registry) OnBar(bar types.Bar, sentiment *types.Sentiment) types.MarketStructure {
	return r.Tracker(bar.Symbol).OnBar(bar, sentiment)
}
