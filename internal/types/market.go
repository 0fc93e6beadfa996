package types

import (
	"math"
	"time"
)

// Bar is a single OHLCV candle for one symbol. ATR is filled in by the
// engine before the bar enters the pipeline and is zero for raw bars.
type Bar struct {
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Time   time.Time `yaml:"time" json:"time" csv:"time" validate:"required"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
	OI     float64   `yaml:"oi" json:"oi" csv:"oi"`
	ATR    float64   `yaml:"atr" json:"atr" csv:"atr"`
}

// Field returns a named price field of the bar. Unknown names fall back to close.
func (b Bar) Field(name string) float64 {
	switch name {
	case "open":
		return b.Open
	case "high":
		return b.High
	case "low":
		return b.Low
	case "volume":
		return b.Volume
	case "oi":
		return b.OI
	case "atr":
		return b.ATR
	default:
		return b.Close
	}
}

// Body is the absolute distance between open and close.
func (b Bar) Body() float64 {
	return math.Abs(b.Close - b.Open)
}

// Range is high minus low.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// UpperWick is the distance from the top of the body to the high.
func (b Bar) UpperWick() float64 {
	return b.High - math.Max(b.Open, b.Close)
}

// LowerWick is the distance from the bottom of the body to the low.
func (b Bar) LowerWick() float64 {
	return math.Min(b.Open, b.Close) - b.Low
}

// IsBullish reports whether the bar closed above its open.
func (b Bar) IsBullish() bool {
	return b.Close > b.Open
}

// IsBearish reports whether the bar closed below its open.
func (b Bar) IsBearish() bool {
	return b.Close < b.Open
}

// TrueRange is the classic Wilder true range against the previous close.
// The first bar of a series has no previous close and uses high minus low.
func (b Bar) TrueRange(prevClose float64, hasPrev bool) float64 {
	hl := b.High - b.Low
	if !hasPrev {
		return hl
	}

	return math.Max(hl, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
}
