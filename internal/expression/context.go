package expression

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/indicator"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

var defaultIndicators = indicator.NewDefaultRegistry()

// Context is the read-only environment an expression is evaluated against.
// Values shadows every other name and carries execution scalars such as
// entry, sl and risk.
type Context struct {
	Bar        types.Bar
	PrevBar    *types.Bar
	History    []types.Bar
	Sentiment  *types.Sentiment
	Screener   map[string]float64
	Vars       map[string]float64
	Values     map[string]float64
	Regime     types.Regime
	Structure  *types.MarketStructure
	Indicators indicator.IndicatorRegistry
}

// With returns a shallow copy of the context with extra scalar values layered on top.
func (c *Context) With(values map[string]float64) *Context {
	merged := make(map[string]float64, len(c.Values)+len(values))
	for k, v := range c.Values {
		merged[k] = v
	}

	for k, v := range values {
		merged[k] = v
	}

	clone := *c
	clone.Values = merged

	return &clone
}

func (c *Context) indicators() indicator.IndicatorRegistry {
	if c.Indicators != nil {
		return c.Indicators
	}

	return defaultIndicators
}

func (c *Context) lookup(name string) (Value, error) {
	if v, ok := c.Values[name]; ok {
		return Number(v), nil
	}

	switch name {
	case "open", "high", "low", "close", "volume", "oi", "atr":
		return Number(c.Bar.Field(name)), nil
	case "candle":
		return BarValue(c.Bar), nil
	case "prev_candle":
		if c.PrevBar != nil {
			return BarValue(*c.PrevBar), nil
		}

		return BarValue(c.Bar), nil
	case "history":
		return Series(c.History), nil
	case "sentiment":
		if c.Sentiment == nil {
			return Null(), nil
		}

		return ObjectValue(sentimentObject{c.Sentiment}), nil
	case "screener":
		return ObjectValue(mapObject(c.Screener)), nil
	case "vars", "var":
		return ObjectValue(mapObject(c.Vars)), nil
	case "regime":
		return String(string(c.Regime)), nil
	case "structure":
		if c.Structure == nil {
			return Null(), nil
		}

		return ObjectValue(structureObject{c.Structure}), nil
	}

	if v, ok := c.Vars[name]; ok {
		return Number(v), nil
	}

	return Null(), errors.Newf(errors.ErrCodeUnknownIdentifier, "unknown identifier %q", name)
}

type mapObject map[string]float64

func (m mapObject) Get(name string) (Value, bool) {
	v, ok := m[name]
	if !ok {
		return Null(), false
	}

	return Number(v), true
}

type sentimentObject struct {
	s *types.Sentiment
}

func (o sentimentObject) Get(name string) (Value, bool) {
	switch name {
	case "regime":
		if o.s.CachedRegime().IsSome() {
			return String(string(o.s.CachedRegime().Unwrap())), true
		}

		return Null(), false
	case "flow", "smart_trend":
		if o.s.Flow.IsSome() {
			return String(string(o.s.Flow.Unwrap())), true
		}

		return Null(), false
	}

	if v, ok := o.s.Value(name); ok {
		return Number(v), true
	}

	return Null(), false
}

// structureObject exposes the nearest levels as support and resistance.
// A side without a level reads as null.
type structureObject struct {
	s *types.MarketStructure
}

func (o structureObject) Get(name string) (Value, bool) {
	var level optional.Option[float64]

	switch name {
	case "support":
		level = o.s.NearestSupport
	case "resistance":
		level = o.s.NearestResistance
	case "regime":
		return String(string(o.s.Regime)), true
	default:
		return Null(), false
	}

	if level.IsNone() {
		return Null(), true
	}

	return Number(level.Unwrap()), true
}
