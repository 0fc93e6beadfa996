package expression

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ExpressionTestSuite struct {
	suite.Suite
	ctx *Context
}

func TestExpressionSuite(t *testing.T) {
	suite.Run(t, new(ExpressionTestSuite))
}

func (suite *ExpressionTestSuite) SetupTest() {
	start := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	history := make([]types.Bar, 0, 5)

	for i, c := range []float64{100, 102, 101, 104, 106} {
		history = append(history, types.Bar{
			Symbol: "NIFTY",
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   c - 1,
			High:   c + 2,
			Low:    c - 2,
			Close:  c,
			Volume: 1000,
			ATR:    4,
		})
	}

	prev := history[3]
	sentiment := &types.Sentiment{PCR: 1.25, Flow: optional.Some(types.OptionFlowLongBuildup)}
	sentiment.MemoizeRegime(types.RegimeCompleteBullish)

	suite.ctx = &Context{
		Bar:       history[4],
		PrevBar:   &prev,
		History:   history,
		Sentiment: sentiment,
		Screener:  map[string]float64{"rvol": 2.5},
		Vars:      map[string]float64{"swing_high": 105},
		Regime:    types.RegimeBullish,
	}
}

func (suite *ExpressionTestSuite) eval(src string) Value {
	p, err := Compile(src)
	suite.Require().NoError(err, src)

	v, err := p.Eval(suite.ctx)
	suite.Require().NoError(err, src)

	return v
}

func (suite *ExpressionTestSuite) num(src string) float64 {
	v := suite.eval(src)
	suite.Require().Equal(KindNumber, v.Kind(), src)

	f, _ := v.Float()

	return f
}

func (suite *ExpressionTestSuite) TestArithmetic() {
	suite.Equal(7.0, suite.num("1 + 2 * 3"))
	suite.Equal(9.0, suite.num("(1 + 2) * 3"))
	suite.Equal(-4.0, suite.num("-2 * 2"))
	suite.Equal(1.0, suite.num("7 % 3"))
	suite.Equal(2.5, suite.num("5 / 2"))
	suite.Equal(1.5e3, suite.num("1.5e3"))
	suite.Equal(0.5, suite.num(".5"))
}

func (suite *ExpressionTestSuite) TestComparisonAndLogic() {
	suite.True(suite.eval("close > open and volume >= 1000").Truthy())
	suite.True(suite.eval("close > 200 || close < 200").Truthy())
	suite.False(suite.eval("not (close > open)").Truthy())
	suite.True(suite.eval("!false && True").Truthy())
	suite.True(suite.eval("100 < close < 107").Truthy())
	suite.False(suite.eval("100 < close < 105").Truthy())
	suite.True(suite.eval("regime == 'BULLISH'").Truthy())
	suite.True(suite.eval("regime != \"BEARISH\"").Truthy())
}

func (suite *ExpressionTestSuite) TestShortCircuitSkipsErrors() {
	suite.False(suite.eval("false and missing_name > 1").Truthy())
	suite.True(suite.eval("true or missing_name > 1").Truthy())
}

func (suite *ExpressionTestSuite) TestAttributes() {
	suite.Equal(106.0, suite.num("candle.close"))
	suite.Equal(104.0, suite.num("prev_candle.close"))
	suite.Equal(1.0, suite.num("candle.body"))
	suite.Equal(4.0, suite.num("candle.range"))
	suite.Equal(4.0, suite.num("atr"))
	suite.True(suite.eval("candle.is_bullish").Truthy())
	suite.Equal(1.25, suite.num("sentiment.pcr"))
	suite.Equal("COMPLETE_BULLISH", suite.eval("sentiment.regime").String())
	suite.Equal("Long Buildup", suite.eval("sentiment.flow").String())
	suite.Equal(2.5, suite.num("screener.rvol"))
	suite.Equal(105.0, suite.num("vars.swing_high"))
	suite.Equal(105.0, suite.num("var.swing_high"))
	suite.Equal(105.0, suite.num("swing_high"))
}

func (suite *ExpressionTestSuite) TestPrevCandleDefaultsToCurrent() {
	suite.ctx.PrevBar = nil
	suite.Equal(106.0, suite.num("prev_candle.close"))
}

func (suite *ExpressionTestSuite) TestHistoryIndex() {
	suite.Equal(106.0, suite.num("history[-1].close"))
	suite.Equal(100.0, suite.num("history[0].close"))
	suite.Equal(104.0, suite.num("history[len(history) - 2].close"))

	_, err := MustCompile("history[10].close").Eval(suite.ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))

	_, err = MustCompile("history[1.5]").Eval(suite.ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeExpressionTypeError))
}

func (suite *ExpressionTestSuite) TestFunctions() {
	suite.Equal(3.0, suite.num("abs(-3)"))
	suite.Equal(1.23, suite.num("round(1.234, 2)"))
	suite.Equal(2.0, suite.num("round(2.5)"))
	suite.Equal(5.0, suite.num("max(1, 5, 3)"))
	suite.Equal(1.0, suite.num("min(1, 5, 3)"))
	suite.InDelta(102.6, suite.num("moving_avg(history, 5, 'close')"), 1e-9)
	suite.InDelta(102.6, suite.num("sma(5)"), 1e-9)
	suite.Equal(108.0, suite.num("highest(history, 3, 'high')"))
	suite.Equal(108.0, suite.num("max(history, 3, 'high')"))
	suite.Equal(99.0, suite.num("lowest(history, 3, 'low')"))
	suite.Equal(99.0, suite.num("min(history, 3, 'low')"))
	suite.InDelta(math.Sqrt(2), suite.num("stdev(history, 2)"), 1e-9)
	suite.Equal(1.0, suite.num("body(prev_candle)"))
	suite.Equal(4.0, suite.num("range()"))
	suite.True(suite.eval("is_bullish(candle)").Truthy())
}

func (suite *ExpressionTestSuite) TestExtraValuesShadow() {
	ctx := suite.ctx.With(map[string]float64{"entry": 106, "sl": 101, "close": 1})

	v, err := MustCompile("entry + 2 * (entry - sl)").EvalFloat(ctx)
	suite.NoError(err)
	suite.Equal(116.0, v)

	v, err = MustCompile("close").EvalFloat(ctx)
	suite.NoError(err)
	suite.Equal(1.0, v)

	suite.Nil(suite.ctx.Values)
}

func (suite *ExpressionTestSuite) TestEvaluationErrors() {
	tests := []struct {
		src  string
		code errors.ErrorCode
	}{
		{src: "unknown_thing > 1", code: errors.ErrCodeUnknownIdentifier},
		{src: "close / 0", code: errors.ErrCodeExpressionEval},
		{src: "nope(1)", code: errors.ErrCodeUnknownFunction},
		{src: "screener.missing", code: errors.ErrCodeUnknownIdentifier},
		{src: "candle + 1", code: errors.ErrCodeExpressionTypeError},
	}

	for _, tt := range tests {
		suite.Run(tt.src, func() {
			_, err := MustCompile(tt.src).Eval(suite.ctx)
			suite.Error(err)
			suite.True(errors.HasCode(err, tt.code), err.Error())
		})
	}
}

func (suite *ExpressionTestSuite) TestInsufficientHistory() {
	_, err := MustCompile("sma(history, 50)").Eval(suite.ctx)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *ExpressionTestSuite) TestMissingSentimentFails() {
	suite.ctx.Sentiment = nil

	_, err := MustCompile("sentiment.pcr > 1").Eval(suite.ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *ExpressionTestSuite) TestStructureLevels() {
	suite.ctx.Structure = &types.MarketStructure{
		Regime:            types.RegimeBullish,
		NearestSupport:    optional.Some(101.0),
		NearestResistance: optional.None[float64](),
	}

	suite.Equal(101.0, suite.num("structure.support"))
	suite.True(suite.eval("close - structure.support > 4").Truthy())
	suite.True(suite.eval("structure.resistance == null").Truthy())
	suite.Equal("BULLISH", suite.eval("structure.regime").String())

	suite.ctx.Structure = nil

	_, err := MustCompile("structure.support > 0").Eval(suite.ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *ExpressionTestSuite) TestEvalFloatRequiresNumber() {
	_, err := MustCompile("close > 1").EvalFloat(suite.ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeExpressionTypeError))
}

func (suite *ExpressionTestSuite) TestSyntaxErrors() {
	for _, src := range []string{"1 +", "(1", "close >> 2", "'open", "history[1", "max(1,", "1 2", "close.", "(1)(2)", "@"} {
		_, err := Compile(src)
		suite.Error(err, src)
		suite.True(errors.HasCode(err, errors.ErrCodeExpressionSyntax), src)
	}
}

func (suite *ExpressionTestSuite) TestEmptyProgram() {
	var p Program
	suite.True(p.IsEmpty())

	v, err := p.Eval(nil)
	suite.NoError(err)
	suite.Equal(KindNull, v.Kind())
}

func (suite *ExpressionTestSuite) TestDecodeFromDefinitions() {
	type holder struct {
		Cond Program `json:"cond" yaml:"cond"`
	}

	var fromJSON holder
	suite.NoError(json.Unmarshal([]byte(`{"cond": "close > open"}`), &fromJSON))
	suite.Equal("close > open", fromJSON.Cond.Source())

	var fromYAML holder
	suite.NoError(yaml.Unmarshal([]byte("cond: close > open\n"), &fromYAML))
	suite.Equal("close > open", fromYAML.Cond.Source())

	var bad holder
	suite.Error(json.Unmarshal([]byte(`{"cond": "close >"}`), &bad))

	out, err := json.Marshal(fromJSON)
	suite.NoError(err)
	suite.JSONEq(`{"cond": "close > open"}`, string(out))
}
