package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-options/internal/types"
	"gonum.org/v1/gonum/stat"
)

// Stdev is the sample standard deviation of a field. A single-bar window
// has no spread and yields 0.
type Stdev struct{}

func NewStdev() Indicator {
	return &Stdev{}
}

func (s *Stdev) Name() string {
	return "stdev"
}

func (s *Stdev) RawValue(bars []types.Bar, period int, field string) (float64, error) {
	window, err := Window(bars, period)
	if err != nil {
		return 0, err
	}

	if len(window) < 2 {
		return 0, nil
	}

	return stat.StdDev(Values(window, field), nil), nil
}

// Highest is the maximum of a field over the window.
type Highest struct{}

func NewHighest() Indicator {
	return &Highest{}
}

func (h *Highest) Name() string {
	return "highest"
}

func (h *Highest) RawValue(bars []types.Bar, period int, field string) (float64, error) {
	window, err := Window(bars, period)
	if err != nil {
		return 0, err
	}

	best := math.Inf(-1)
	for _, v := range Values(window, field) {
		best = math.Max(best, v)
	}

	return best, nil
}

// Lowest is the minimum of a field over the window.
type Lowest struct{}

func NewLowest() Indicator {
	return &Lowest{}
}

func (l *Lowest) Name() string {
	return "lowest"
}

func (l *Lowest) RawValue(bars []types.Bar, period int, field string) (float64, error) {
	window, err := Window(bars, period)
	if err != nil {
		return 0, err
	}

	best := math.Inf(1)
	for _, v := range Values(window, field) {
		best = math.Min(best, v)
	}

	return best, nil
}

// VWAP is the volume-weighted typical price over the window. The field
// argument is ignored. A window without volume falls back to the mean
// typical price.
type VWAP struct{}

func NewVWAP() Indicator {
	return &VWAP{}
}

func (v *VWAP) Name() string {
	return "vwap"
}

func (v *VWAP) RawValue(bars []types.Bar, period int, _ string) (float64, error) {
	window, err := Window(bars, period)
	if err != nil {
		return 0, err
	}

	prices := make([]float64, len(window))
	weights := make([]float64, len(window))
	totalVolume := 0.0

	for i, b := range window {
		prices[i] = (b.High + b.Low + b.Close) / 3
		weights[i] = b.Volume
		totalVolume += b.Volume
	}

	if totalVolume <= 0 {
		return stat.Mean(prices, nil), nil
	}

	return stat.Mean(prices, weights), nil
}
