package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-options/internal/types"
)

// EMA is the exponential moving average of a field, seeded over the whole
// available history so older bars still contribute.
type EMA struct{}

func NewEMA() Indicator {
	return &EMA{}
}

func (e *EMA) Name() string {
	return "ema"
}

func (e *EMA) RawValue(bars []types.Bar, period int, field string) (float64, error) {
	if _, err := Window(bars, period); err != nil {
		return 0, err
	}

	if period == 1 {
		return bars[len(bars)-1].Field(field), nil
	}

	values := talib.Ema(Values(bars, field), period)

	return values[len(values)-1], nil
}
