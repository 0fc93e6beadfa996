package execution

import (
	"slices"
	"strings"
	"time"
)

const (
	DefaultBaseQuantity      = 100
	DefaultMaxHolding        = 30 * time.Minute
	DefaultBreakEvenFraction = 0.5
	DefaultDelta             = 0.5
)

// Config controls sizing and risk management of the orchestrator.
type Config struct {
	// IndexSymbols are underlyings that are traded through ATM options.
	IndexSymbols []string `yaml:"index_symbols" json:"index_symbols" jsonschema:"title=Index symbols,description=Underlyings traded through their ATM options,default=NIFTY"`
	// BaseQuantity is multiplied by the regime quantity modifier.
	BaseQuantity float64 `yaml:"base_quantity" json:"base_quantity" jsonschema:"title=Base quantity,minimum=0,default=100" validate:"gt=0"`
	// MaxHolding force-closes positions held this long.
	MaxHolding time.Duration `yaml:"max_holding" json:"max_holding" jsonschema:"title=Max holding time,description=Positions are closed at market after this duration,default=30m" validate:"gt=0"`
	// BreakEvenFraction of the original target distance moves the stop to entry.
	BreakEvenFraction float64 `yaml:"break_even_fraction" json:"break_even_fraction" jsonschema:"title=Break-even fraction,minimum=0,maximum=1,default=0.5" validate:"gt=0,lte=1"`
	// DefaultDelta is used when the delta of an option is unknown.
	DefaultDelta float64 `yaml:"default_delta" json:"default_delta" jsonschema:"title=Default option delta,minimum=0,maximum=1,default=0.5" validate:"gt=0,lte=1"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		IndexSymbols:      []string{"NIFTY", "BANKNIFTY", "FINNIFTY"},
		BaseQuantity:      DefaultBaseQuantity,
		MaxHolding:        DefaultMaxHolding,
		BreakEvenFraction: DefaultBreakEvenFraction,
		DefaultDelta:      DefaultDelta,
	}
}

// IsIndex reports whether symbol is traded through options.
func (c Config) IsIndex(symbol string) bool {
	return slices.ContainsFunc(c.IndexSymbols, func(s string) bool {
		return strings.EqualFold(s, symbol)
	})
}
