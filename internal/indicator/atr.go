package indicator

import (
	"github.com/rxtech-lab/argo-options/internal/types"
	"gonum.org/v1/gonum/stat"
)

// DefaultATRPeriod is the rolling window used when bars are enriched with ATR.
const DefaultATRPeriod = 14

// ATR is the rolling mean of true range over the window. The field argument
// is ignored.
type ATR struct{}

func NewATR() Indicator {
	return &ATR{}
}

func (a *ATR) Name() string {
	return "atr"
}

func (a *ATR) RawValue(bars []types.Bar, period int, _ string) (float64, error) {
	if _, err := Window(bars, period); err != nil {
		return 0, err
	}

	trs := TrueRanges(bars)

	return stat.Mean(trs[len(trs)-period:], nil), nil
}

// TrueRanges returns the true range of every bar against the previous bar's close.
func TrueRanges(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			out[i] = b.TrueRange(0, false)

			continue
		}

		out[i] = b.TrueRange(bars[i-1].Close, true)
	}

	return out
}

// EnrichATR sets ATR on every bar to the rolling mean of true range over
// period bars. Early bars average whatever history is available, so the
// first bar's ATR is its own range.
func EnrichATR(bars []types.Bar, period int) {
	if period <= 0 {
		period = DefaultATRPeriod
	}

	trs := TrueRanges(bars)
	sum := 0.0

	for i := range bars {
		sum += trs[i]
		if i >= period {
			sum -= trs[i-period]
		}

		n := i + 1
		if n > period {
			n = period
		}

		bars[i].ATR = sum / float64(n)
	}
}
