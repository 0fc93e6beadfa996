// Package sentiment maps market-breadth and option-positioning snapshots to
// a directional regime.
//
// The put-call ratio is read contrarian: a high PCR means heavy put writing
// underneath the market and classifies as bullish.
package sentiment

import (
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Thresholds are the PCR cut-offs. Comparisons are strict.
type Thresholds struct {
	CompleteBullish float64 `yaml:"complete_bullish" json:"complete_bullish"`
	Bullish         float64 `yaml:"bullish" json:"bullish"`
	Bearish         float64 `yaml:"bearish" json:"bearish"`
	CompleteBearish float64 `yaml:"complete_bearish" json:"complete_bearish"`
}

// DefaultThresholds returns the standard PCR bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CompleteBullish: 1.2,
		Bullish:         1.0,
		Bearish:         0.8,
		CompleteBearish: 0.6,
	}
}

// IsZero reports whether no threshold was set.
func (t Thresholds) IsZero() bool {
	return t == Thresholds{}
}

// Validate checks that the bands are positive and ordered from bearish to
// bullish. The zero value is valid and means the defaults.
func (t Thresholds) Validate() error {
	if t.IsZero() {
		return nil
	}

	if t.CompleteBearish <= 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "complete_bearish threshold must be positive, got %v", t.CompleteBearish)
	}

	if t.CompleteBearish > t.Bearish || t.Bearish > t.Bullish || t.Bullish > t.CompleteBullish {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"PCR thresholds must satisfy complete_bearish <= bearish <= bullish <= complete_bullish, got %v/%v/%v/%v",
			t.CompleteBearish, t.Bearish, t.Bullish, t.CompleteBullish)
	}

	return nil
}

// Classifier computes and memoizes the regime of sentiment snapshots.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a classifier with the given thresholds. Zero
// thresholds fall back to DefaultThresholds.
func NewClassifier(thresholds Thresholds) *Classifier {
	if thresholds.IsZero() {
		thresholds = DefaultThresholds()
	}

	return &Classifier{thresholds: thresholds}
}

// Classify returns the snapshot's regime, computing it on first use. A nil
// snapshot is SIDEWAYS.
func (c *Classifier) Classify(s *types.Sentiment) types.Regime {
	if s == nil {
		return types.RegimeSideways
	}

	if cached := s.CachedRegime(); cached.IsSome() {
		return cached.Unwrap()
	}

	regime := c.classify(s)
	s.MemoizeRegime(regime)

	return regime
}

func (c *Classifier) classify(s *types.Sentiment) types.Regime {
	if s.Flow.IsSome() {
		if flow, ok := types.ParseOptionFlow(string(s.Flow.Unwrap())); ok {
			switch flow {
			case types.OptionFlowLongBuildup:
				return types.RegimeCompleteBullish
			case types.OptionFlowShortCovering:
				return types.RegimeBullish
			case types.OptionFlowShortBuildup:
				return types.RegimeCompleteBearish
			case types.OptionFlowLongUnwinding:
				return types.RegimeBearish
			}
		}
	}

	switch pcr := s.PCR; {
	case pcr > c.thresholds.CompleteBullish:
		return types.RegimeCompleteBullish
	case pcr > c.thresholds.Bullish:
		return types.RegimeBullish
	case pcr < c.thresholds.CompleteBearish:
		return types.RegimeCompleteBearish
	case pcr < c.thresholds.Bearish:
		return types.RegimeBearish
	default:
		return types.RegimeSideways
	}
}

// SmartTrend derives the option-flow label from the direction of price and
// open interest changes. Zero changes are undetermined.
func SmartTrend(priceChange, oiChange float64) types.OptionFlow {
	switch {
	case priceChange > 0 && oiChange > 0:
		return types.OptionFlowLongBuildup
	case priceChange > 0 && oiChange < 0:
		return types.OptionFlowShortCovering
	case priceChange < 0 && oiChange > 0:
		return types.OptionFlowShortBuildup
	case priceChange < 0 && oiChange < 0:
		return types.OptionFlowLongUnwinding
	default:
		return types.OptionFlowUndetermined
	}
}
