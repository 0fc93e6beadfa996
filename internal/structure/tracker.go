// Package structure tracks swing pivots, support and resistance levels and
// the resulting trend regime of one symbol.
package structure

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
)

const (
	// DefaultWindow is the number of bars on each side of a pivot candidate.
	DefaultWindow = 5
	// DefaultMaxPivots bounds each pivot list.
	DefaultMaxPivots = 10
)

// Pivot is a confirmed swing point.
type Pivot struct {
	Time  time.Time
	Price float64
}

// Hurdles are the nearest levels around a price.
type Hurdles struct {
	Support    optional.Option[float64]
	Resistance optional.Option[float64]
}

// Tracker detects pivots over a rolling window of 2W+1 bars. A bar is a
// pivot high when its high strictly exceeds every other high in the window,
// so a flat window yields no pivot.
type Tracker struct {
	window    int
	maxPivots int

	bars       []types.Bar
	pivotHighs []Pivot
	pivotLows  []Pivot
	support    []float64
	resistance []float64
}

// NewTracker creates a tracker. Non-positive arguments fall back to the defaults.
func NewTracker(window, maxPivots int) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}

	if maxPivots <= 0 {
		maxPivots = DefaultMaxPivots
	}

	return &Tracker{
		window:    window,
		maxPivots: maxPivots,
		bars:      make([]types.Bar, 0, 2*window+1),
	}
}

// OnBar adds a bar, confirms a pivot at the window center if there is one,
// and rebuilds the levels using the sentiment's OI walls when present.
func (t *Tracker) OnBar(bar types.Bar, sentiment *types.Sentiment) types.MarketStructure {
	size := 2*t.window + 1

	t.bars = append(t.bars, bar)
	if len(t.bars) > size {
		t.bars = t.bars[len(t.bars)-size:]
	}

	if len(t.bars) == size {
		t.detectPivots()
	}

	t.rebuildLevels(sentiment)

	s := t.Structure()
	hurdles := t.ImmediateHurdles(bar.Close)
	s.NearestSupport = hurdles.Support
	s.NearestResistance = hurdles.Resistance

	return s
}

func (t *Tracker) detectPivots() {
	center := t.bars[t.window]

	isHigh, isLow := true, true

	for i, b := range t.bars {
		if i == t.window {
			continue
		}

		if b.High >= center.High {
			isHigh = false
		}

		if b.Low <= center.Low {
			isLow = false
		}
	}

	if isHigh {
		t.pivotHighs = appendPivot(t.pivotHighs, Pivot{Time: center.Time, Price: center.High}, t.maxPivots)
	}

	if isLow {
		t.pivotLows = appendPivot(t.pivotLows, Pivot{Time: center.Time, Price: center.Low}, t.maxPivots)
	}
}

func appendPivot(list []Pivot, p Pivot, limit int) []Pivot {
	if n := len(list); n > 0 && list[n-1].Time.Equal(p.Time) {
		return list
	}

	list = append(list, p)
	if len(list) > limit {
		list = list[len(list)-limit:]
	}

	return list
}

func (t *Tracker) rebuildLevels(sentiment *types.Sentiment) {
	support := make([]float64, 0, len(t.pivotLows)+1)
	for _, p := range t.pivotLows {
		support = append(support, p.Price)
	}

	resistance := make([]float64, 0, len(t.pivotHighs)+1)
	for _, p := range t.pivotHighs {
		resistance = append(resistance, p.Price)
	}

	if sentiment != nil {
		if sentiment.OIWallBelow.IsSome() {
			support = append(support, sentiment.OIWallBelow.Unwrap())
		}

		if sentiment.OIWallAbove.IsSome() {
			resistance = append(resistance, sentiment.OIWallAbove.Unwrap())
		}
	}

	t.support = sortedDistinct(support)
	t.resistance = sortedDistinct(resistance)
}

func sortedDistinct(values []float64) []float64 {
	sort.Float64s(values)

	out := values[:0]
	for i, v := range values {
		if i == 0 || v != values[i-1] {
			out = append(out, v)
		}
	}

	return out
}

// ImmediateHurdles returns the nearest resistance strictly above price and
// the nearest support strictly below it.
func (t *Tracker) ImmediateHurdles(price float64) Hurdles {
	h := Hurdles{
		Support:    optional.None[float64](),
		Resistance: optional.None[float64](),
	}

	for _, r := range t.resistance {
		if r > price {
			h.Resistance = optional.Some(r)

			break
		}
	}

	for i := len(t.support) - 1; i >= 0; i-- {
		if t.support[i] < price {
			h.Support = optional.Some(t.support[i])

			break
		}
	}

	return h
}

// Regime classifies trend from the two most recent pivots of each kind.
func (t *Tracker) Regime() types.Regime {
	if len(t.pivotHighs) < 2 || len(t.pivotLows) < 2 {
		return types.RegimeSideways
	}

	h1, h2 := t.pivotHighs[len(t.pivotHighs)-2].Price, t.pivotHighs[len(t.pivotHighs)-1].Price
	l1, l2 := t.pivotLows[len(t.pivotLows)-2].Price, t.pivotLows[len(t.pivotLows)-1].Price

	switch {
	case h2 > h1 && l2 > l1:
		return types.RegimeBullish
	case h2 < h1 && l2 < l1:
		return types.RegimeBearish
	default:
		return types.RegimeSideways
	}
}

// PivotHighs returns a copy of the confirmed pivot highs, oldest first.
func (t *Tracker) PivotHighs() []Pivot {
	return append([]Pivot(nil), t.pivotHighs...)
}

// PivotLows returns a copy of the confirmed pivot lows, oldest first.
func (t *Tracker) PivotLows() []Pivot {
	return append([]Pivot(nil), t.pivotLows...)
}

// Structure returns the current levels, pivots and regime.
func (t *Tracker) Structure() types.MarketStructure {
	s := types.MarketStructure{
		Regime:            t.Regime(),
		Support:           append([]float64(nil), t.support...),
		Resistance:        append([]float64(nil), t.resistance...),
		NearestSupport:    optional.None[float64](),
		NearestResistance: optional.None[float64](),
	}

	for _, p := range t.pivotHighs {
		s.PivotHighs = append(s.PivotHighs, p.Price)
	}

	for _, p := range t.pivotLows {
		s.PivotLows = append(s.PivotLows, p.Price)
	}

	return s
}
