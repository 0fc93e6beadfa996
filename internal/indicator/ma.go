package indicator

import (
	"github.com/rxtech-lab/argo-options/internal/types"
	"gonum.org/v1/gonum/stat"
)

// SMA is the simple moving average of a field.
type SMA struct{}

func NewSMA() Indicator {
	return &SMA{}
}

func (s *SMA) Name() string {
	return "sma"
}

func (s *SMA) RawValue(bars []types.Bar, period int, field string) (float64, error) {
	window, err := Window(bars, period)
	if err != nil {
		return 0, err
	}

	return stat.Mean(Values(window, field), nil), nil
}
