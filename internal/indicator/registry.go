package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// IndicatorRegistry manages the series functions available to expressions.
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	RegisterAlias(alias, name string) error
	GetIndicator(name string) (Indicator, error)
	ListIndicators() []string
	RemoveIndicator(name string) error
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	indicators map[string]Indicator
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates a new, empty indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		indicators: make(map[string]Indicator),
		mu:         sync.RWMutex{},
	}
}

// NewDefaultRegistry returns a registry holding every built-in series function.
func NewDefaultRegistry() IndicatorRegistry {
	r := NewIndicatorRegistry()

	for _, ind := range []Indicator{NewSMA(), NewEMA(), NewStdev(), NewHighest(), NewLowest(), NewRSI(), NewATR(), NewVWAP()} {
		// names are unique, registration cannot fail
		_ = r.RegisterIndicator(ind)
	}

	_ = r.RegisterAlias("moving_avg", "sma")
	_ = r.RegisterAlias("max", "highest")
	_ = r.RegisterAlias("min", "lowest")

	return r
}

// RegisterIndicator adds an indicator to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "indicator with name %s already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

// RegisterAlias makes an existing indicator reachable under another name.
func (r *IndicatorRegistryV1) RegisterAlias(alias, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return errors.Newf(errors.ErrCodeUnknownFunction, "indicator with name %s not found", name)
	}

	if _, taken := r.indicators[alias]; taken {
		return errors.Newf(errors.ErrCodeInvalidParameter, "indicator with name %s already registered", alias)
	}

	r.indicators[alias] = indicator

	return nil
}

// GetIndicator retrieves an indicator by name.
func (r *IndicatorRegistryV1) GetIndicator(name string) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownFunction, "indicator with name %s not found", name)
	}

	return indicator, nil
}

// ListIndicators returns the sorted names of all registered indicators, aliases included.
func (r *IndicatorRegistryV1) ListIndicators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return errors.Newf(errors.ErrCodeUnknownFunction, "indicator with name %s not found", name)
	}

	delete(r.indicators, name)

	return nil
}
