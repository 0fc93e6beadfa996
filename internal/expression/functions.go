package expression

import (
	"math"

	"github.com/rxtech-lab/argo-options/pkg/errors"
)

const defaultSeriesField = "close"

func callFunction(ctx *Context, name string, args []Value) (Value, error) {
	switch name {
	case "abs":
		x, err := numberArg(name, args, 0)
		if err != nil {
			return Null(), err
		}

		return Number(math.Abs(x)), nil

	case "round":
		return roundFn(args)

	case "min", "max":
		if len(args) > 0 && args[0].kind == KindSeries {
			return seriesFunction(ctx, name, args)
		}

		return extremum(name, args)

	case "len":
		if len(args) != 1 || args[0].kind != KindSeries {
			return Null(), errors.New(errors.ErrCodeExpressionTypeError, "len expects a series")
		}

		return Number(float64(len(args[0].series))), nil

	case "body", "range", "upper_wick", "lower_wick", "is_bullish", "is_bearish":
		bar := ctx.Bar
		if len(args) > 0 {
			if args[0].kind != KindBar {
				return Null(), errors.Newf(errors.ErrCodeExpressionTypeError, "%s expects a candle, got %s", name, args[0].kind)
			}

			bar = args[0].bar
		}

		v, _ := barAttr(bar, name)

		return v, nil
	}

	if _, err := ctx.indicators().GetIndicator(name); err == nil {
		return seriesFunction(ctx, name, args)
	}

	return Null(), errors.Newf(errors.ErrCodeUnknownFunction, "unknown function %q", name)
}

// seriesFunction dispatches f(series, period[, field]) or f(period[, field])
// to the indicator registry. The second form runs over the full history.
func seriesFunction(ctx *Context, name string, args []Value) (Value, error) {
	bars := ctx.History
	rest := args

	if len(args) > 0 && args[0].kind == KindSeries {
		bars = args[0].series
		rest = args[1:]
	}

	if len(rest) == 0 || len(rest) > 2 {
		return Null(), errors.Newf(errors.ErrCodeMissingParameter, "%s expects (history, period[, field])", name)
	}

	period, err := asInt(rest[0])
	if err != nil {
		return Null(), err
	}

	field := defaultSeriesField
	if len(rest) == 2 {
		if rest[1].kind != KindString {
			return Null(), errors.Newf(errors.ErrCodeExpressionTypeError, "%s field must be a string", name)
		}

		field = rest[1].str
	}

	lookup := name

	switch name {
	case "max":
		lookup = "highest"
	case "min":
		lookup = "lowest"
	}

	ind, err := ctx.indicators().GetIndicator(lookup)
	if err != nil {
		return Null(), err
	}

	v, err := ind.RawValue(bars, period, field)
	if err != nil {
		return Null(), err
	}

	return Number(v), nil
}

func extremum(name string, args []Value) (Value, error) {
	if len(args) == 0 {
		return Null(), errors.Newf(errors.ErrCodeMissingParameter, "%s expects at least one argument", name)
	}

	best := math.Inf(1)
	if name == "max" {
		best = math.Inf(-1)
	}

	for i := range args {
		v, err := numberArg(name, args, i)
		if err != nil {
			return Null(), err
		}

		if name == "max" {
			best = math.Max(best, v)
		} else {
			best = math.Min(best, v)
		}
	}

	return Number(best), nil
}

// roundFn rounds half to even.
func roundFn(args []Value) (Value, error) {
	x, err := numberArg("round", args, 0)
	if err != nil {
		return Null(), err
	}

	scale := 0
	if len(args) > 1 {
		scale, err = asInt(args[1])
		if err != nil {
			return Null(), err
		}
	}

	factor := math.Pow(10, float64(scale))

	return Number(math.RoundToEven(x*factor) / factor), nil
}

func numberArg(name string, args []Value, i int) (float64, error) {
	if i >= len(args) {
		return 0, errors.Newf(errors.ErrCodeMissingParameter, "%s: missing argument %d", name, i+1)
	}

	return args[i].Float()
}
