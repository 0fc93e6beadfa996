package expression

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Kind is the dynamic type of an expression value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindString
	KindBar
	KindSeries
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBar:
		return "candle"
	case KindSeries:
		return "series"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Object is a read-only namespace reachable through attribute access.
type Object interface {
	Get(name string) (Value, bool)
}

// Value is the result of evaluating an expression.
type Value struct {
	kind   Kind
	num    float64
	flag   bool
	str    string
	bar    types.Bar
	series []types.Bar
	obj    Object
}

func Null() Value { return Value{kind: KindNull} }
func Number(v float64) Value { return Value{kind: KindNumber, num: v} }
func Bool(v bool) Value { return Value{kind: KindBool, flag: v} }
func String(v string) Value { return Value{kind: KindString, str: v} }
func BarValue(b types.Bar) Value { return Value{kind: KindBar, bar: b} }
func Series(bars []types.Bar) Value { return Value{kind: KindSeries, series: bars} }
func ObjectValue(o Object) Value { return Value{kind: KindObject, obj: o} }

func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric value. Booleans convert to 0/1.
func (v Value) Float() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindBool:
		if v.flag {
			return 1, nil
		}

		return 0, nil
	default:
		return 0, errors.Newf(errors.ErrCodeExpressionTypeError, "expected number, got %s", v.kind)
	}
}

// Truthy follows the usual scripting rules: zero, empty and null are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBool:
		return v.flag
	case KindString:
		return v.str != ""
	case KindSeries:
		return len(v.series) > 0
	case KindBar, KindObject:
		return true
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return fmt.Sprintf("%g", v.num)
	case KindBool:
		return fmt.Sprintf("%t", v.flag)
	case KindString:
		return v.str
	case KindBar:
		return fmt.Sprintf("candle(%s %s)", v.bar.Symbol, v.bar.Time.Format("2006-01-02T15:04:05"))
	case KindSeries:
		return fmt.Sprintf("series(%d)", len(v.series))
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// barAttr resolves attribute access on a candle value.
func barAttr(b types.Bar, name string) (Value, bool) {
	switch name {
	case "open", "high", "low", "close", "volume", "oi", "atr":
		return Number(b.Field(name)), true
	case "body":
		return Number(b.Body()), true
	case "range":
		return Number(b.Range()), true
	case "upper_wick":
		return Number(b.UpperWick()), true
	case "lower_wick":
		return Number(b.LowerWick()), true
	case "is_bullish":
		return Bool(b.IsBullish()), true
	case "is_bearish":
		return Bool(b.IsBearish()), true
	case "symbol":
		return String(b.Symbol), true
	case "timestamp":
		return Number(float64(b.Time.Unix())), true
	}

	return Null(), false
}
