package types

import (
	"strings"
	"time"

	"github.com/moznion/go-optional"
)

// Regime is the directional market classification shared by the sentiment
// classifier, the structure tracker and pattern regime configs.
type Regime string

const (
	RegimeCompleteBullish Regime = "COMPLETE_BULLISH"
	RegimeBullish         Regime = "BULLISH"
	RegimeSideways        Regime = "SIDEWAYS"
	RegimeBearish         Regime = "BEARISH"
	RegimeCompleteBearish Regime = "COMPLETE_BEARISH"
	RegimeUnknown         Regime = "UNKNOWN"
)

// OptionFlow is the derived open-interest/price trend label of an underlying.
type OptionFlow string

const (
	OptionFlowLongBuildup   OptionFlow = "Long Buildup"
	OptionFlowShortCovering OptionFlow = "Short Covering"
	OptionFlowShortBuildup  OptionFlow = "Short Buildup"
	OptionFlowLongUnwinding OptionFlow = "Long Unwinding"
	OptionFlowUndetermined  OptionFlow = "Neutral"
)

// ParseOptionFlow matches a flow label case-insensitively and ignores
// surrounding whitespace and underscores.
func ParseOptionFlow(label string) (OptionFlow, bool) {
	normalized := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(label, "_", " ")))
	for _, flow := range []OptionFlow{
		OptionFlowLongBuildup,
		OptionFlowShortCovering,
		OptionFlowShortBuildup,
		OptionFlowLongUnwinding,
	} {
		if strings.ToLower(string(flow)) == normalized {
			return flow, true
		}
	}

	return OptionFlowUndetermined, false
}

// Sentiment is a market-breadth and options-positioning snapshot at one
// point in time. The regime is computed on first read and memoized on the
// snapshot, so a snapshot must not be shared across goroutines before it
// has been classified.
type Sentiment struct {
	Symbol      string                      `json:"symbol"`
	Timestamp   time.Time                   `json:"timestamp"`
	PCR         float64                     `json:"pcr"`
	PCRVelocity float64                     `json:"pcr_velocity"`
	Advances    int                         `json:"advances"`
	Declines    int                         `json:"declines"`
	OIWallAbove optional.Option[float64]    `json:"oi_wall_above"`
	OIWallBelow optional.Option[float64]    `json:"oi_wall_below"`
	Flow        optional.Option[OptionFlow] `json:"flow"`

	regime optional.Option[Regime]
}

// CachedRegime returns the memoized regime, if any.
func (s *Sentiment) CachedRegime() optional.Option[Regime] {
	return s.regime
}

// MemoizeRegime stores the regime on the snapshot.
func (s *Sentiment) MemoizeRegime(regime Regime) {
	s.regime = optional.Some(regime)
}

// Value returns a named numeric field for expression lookups.
func (s *Sentiment) Value(name string) (float64, bool) {
	switch name {
	case "pcr":
		return s.PCR, true
	case "pcr_velocity":
		return s.PCRVelocity, true
	case "advances":
		return float64(s.Advances), true
	case "declines":
		return float64(s.Declines), true
	case "oi_wall_above":
		if s.OIWallAbove.IsSome() {
			return s.OIWallAbove.Unwrap(), true
		}
	case "oi_wall_below":
		if s.OIWallBelow.IsSome() {
			return s.OIWallBelow.Unwrap(), true
		}
	}

	return 0, false
}
