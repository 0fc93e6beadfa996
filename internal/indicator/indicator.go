package indicator

import (
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Indicator computes a single value over the trailing window of a bar history.
type Indicator interface {
	// Name returns the function name used in pattern expressions.
	Name() string
	// RawValue computes the value over the last period bars of field.
	RawValue(bars []types.Bar, period int, field string) (float64, error)
}

// Values extracts a named field from every bar.
func Values(bars []types.Bar, field string) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Field(field)
	}

	return out
}

// Window returns the last period bars, or an InsufficientDataError when the
// history is shorter than period.
func Window(bars []types.Bar, period int) ([]types.Bar, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	if len(bars) < period {
		symbol := ""
		if len(bars) > 0 {
			symbol = bars[0].Symbol
		}

		return nil, errors.NewInsufficientDataError(symbol, period, len(bars))
	}

	return bars[len(bars)-period:], nil
}
