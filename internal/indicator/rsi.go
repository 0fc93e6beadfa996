package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// RSI is Wilder's relative strength index of a field. It needs period+1
// bars of history.
type RSI struct{}

func NewRSI() Indicator {
	return &RSI{}
}

func (r *RSI) Name() string {
	return "rsi"
}

func (r *RSI) RawValue(bars []types.Bar, period int, field string) (float64, error) {
	if _, err := Window(bars, period+1); err != nil {
		return 0, err
	}

	values := talib.Rsi(Values(bars, field), period)
	last := values[len(values)-1]

	if math.IsNaN(last) || math.IsInf(last, 0) {
		return 0, errors.Newf(errors.ErrCodeExpressionEval, "rsi(%d) is undefined for the current history", period)
	}

	return last, nil
}
