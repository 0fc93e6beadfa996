package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-options/internal/engine"
	"github.com/rxtech-lab/argo-options/internal/execution"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/metrics"
	"github.com/rxtech-lab/argo-options/internal/pattern"
	"github.com/rxtech-lab/argo-options/internal/state"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/mocks"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const greenBarPattern = `
id: green_bar
phases:
  - id: trigger
    conditions:
      - "close > open"
execution:
  side: BUY
  entry: close
  sl: "entry - 10"
  tp: "entry + 20"
`

const vetoedPattern = `
id: vetoed
phases:
  - id: trigger
    conditions:
      - "close > open"
execution:
  side: BUY
  entry: close
  sl: "entry - 10"
  tp: "entry + 20"
regime_config:
  COMPLETE_BEARISH:
    allow_entry: false
`

const twoStepPattern = `
id: two_step
phases:
  - id: first
    conditions:
      - "close > open"
    capture:
      first_high: high
  - id: second
    conditions:
      - "close > vars.first_high"
execution:
  side: BUY
  entry: close
  sl: "entry - 10"
  tp: "entry + 20"
`

const supportBouncePattern = `
id: support_bounce
phases:
  - id: trigger
    conditions:
      - "structure.support != null"
      - "close - structure.support > 5"
execution:
  side: BUY
  entry: close
  sl: structure.support
  tp: "entry + 20"
`

type EngineTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	candles    *mocks.MockCandleSource
	chains     *mocks.MockOptionChainSource
	sentiments *mocks.MockSentimentSource
	prices     *mocks.MockPriceSource
	store      *state.TradeStore
	registry   *prometheus.Registry
	config     engine.Config
	ctx        context.Context
	day        time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.candles = mocks.NewMockCandleSource(suite.ctrl)
	suite.chains = mocks.NewMockOptionChainSource(suite.ctrl)
	suite.sentiments = mocks.NewMockSentimentSource(suite.ctrl)
	suite.prices = mocks.NewMockPriceSource(suite.ctrl)
	suite.registry = prometheus.NewRegistry()

	suite.store = state.NewTradeStore("", logger.NewNopLogger())
	suite.Require().NoError(suite.store.Initialize())

	suite.config = engine.DefaultConfig()
	suite.config.Symbols = []string{"RELIANCE", "TCS"}
	suite.config.StateFile = ""

	suite.ctx = context.Background()
	suite.day = time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)
}

func (suite *EngineTestSuite) TearDownTest() {
	suite.ctrl.Finish()
	suite.NoError(suite.store.Shutdown())
}

func (suite *EngineTestSuite) definition(src string) *pattern.Definition {
	def, err := pattern.ParseDefinition([]byte(src), "pattern.yaml")
	suite.Require().NoError(err)

	return def
}

func (suite *EngineTestSuite) orchestrator() *execution.Orchestrator {
	return execution.NewOrchestrator(execution.DefaultConfig(), suite.prices, nil, nil, suite.store, logger.NewNopLogger())
}

func (suite *EngineTestSuite) newEngine(deps engine.Dependencies, defs ...string) *engine.Engine {
	if deps.Orchestrator == nil {
		deps.Orchestrator = suite.orchestrator()
	}

	parsed := make([]*pattern.Definition, 0, len(defs))
	for _, src := range defs {
		parsed = append(parsed, suite.definition(src))
	}

	e, err := engine.New(suite.config, parsed, deps, logger.NewNopLogger())
	suite.Require().NoError(err)

	return e
}

func (suite *EngineTestSuite) bar(symbol string, minute int, open, high, low, close float64) types.Bar {
	return types.Bar{
		Symbol: symbol,
		Time:   suite.day.Add(time.Duration(minute) * time.Minute),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 1000,
	}
}

func (suite *EngineTestSuite) TestNewValidatesDependencies() {
	_, err := engine.New(suite.config, []*pattern.Definition{suite.definition(greenBarPattern)}, engine.Dependencies{}, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeEngineInitFailed))

	_, err = engine.New(suite.config, nil, engine.Dependencies{Orchestrator: suite.orchestrator()}, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeNoPatterns))
}

func (suite *EngineTestSuite) TestBacktestExitsBeforeEntries() {
	bars := []types.Bar{
		suite.bar("RELIANCE", 0, 100, 101, 99, 100),
		suite.bar("RELIANCE", 1, 100, 106, 100, 105),
		suite.bar("RELIANCE", 2, 105, 126, 104, 120),
	}

	suite.candles.EXPECT().
		GetHistoricalCandles(gomock.Any(), "RELIANCE", "NSE", suite.config.Interval, gomock.Any(), gomock.Any()).
		Return(bars, nil)
	suite.chains.EXPECT().
		GetOptionChain(gomock.Any(), "RELIANCE", gomock.Any()).
		Return(optional.None[types.OptionChain](), nil).
		Times(1)
	suite.sentiments.EXPECT().
		GetClosestMarketStats(gomock.Any(), "RELIANCE", gomock.Any()).
		Return(optional.None[*types.Sentiment](), nil).
		Times(3)

	e := suite.newEngine(engine.Dependencies{
		Candles:      suite.candles,
		OptionChains: suite.chains,
		Sentiment:    suite.sentiments,
		Metrics:      metrics.New(suite.registry),
	}, greenBarPattern)

	var (
		opened, closed, processed int
		ended                     error
	)

	onOpened := engine.OnTradeOpenedCallback(func(types.Position) error { opened++; return nil })
	onClosed := engine.OnTradeClosedCallback(func(types.Trade) error { closed++; return nil })
	onBar := engine.OnProcessBarCallback(func(_ string, current, total int) error {
		processed = current
		suite.Equal(3, total)

		return nil
	})
	onEnd := engine.OnRunEndCallback(func(_ string, err error) { ended = err })

	err := e.RunBacktest(suite.ctx, "RELIANCE", engine.LifecycleCallbacks{
		OnTradeOpened: &onOpened,
		OnTradeClosed: &onClosed,
		OnProcessBar:  &onBar,
		OnRunEnd:      &onEnd,
	})
	suite.Require().NoError(err)
	suite.NoError(ended)

	suite.Equal(3, processed)
	suite.Equal(2, opened)
	suite.Equal(1, closed)

	trades, err := suite.store.Trades(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)

	first := trades[0]
	suite.Equal(types.TradeStatusClosed, first.Status)
	suite.Equal(types.ExitReasonTakeProfit, first.ExitReason)
	suite.Equal(105.0, first.EntryPrice)
	suite.Equal(125.0, first.ExitPrice.Unwrap())
	suite.Equal(20.0, first.PnL)

	second := trades[1]
	suite.Equal(types.TradeStatusOpen, second.Status)
	suite.Equal(120.0, second.EntryPrice)
	suite.Equal(110.0, second.StopLoss)
}

func (suite *EngineTestSuite) TestOutOfOrderAndDuplicateBarsSkipped() {
	e := suite.newEngine(engine.Dependencies{}, greenBarPattern)

	for _, bar := range []types.Bar{
		suite.bar("RELIANCE", 1, 100, 101, 99, 100),
		suite.bar("RELIANCE", 0, 100, 101, 99, 100),
		suite.bar("RELIANCE", 1, 100, 101, 99, 100),
		suite.bar("RELIANCE", 2, 100, 101, 99, 100),
	} {
		suite.Require().NoError(e.ProcessEvent(suite.ctx, types.NewBarEvent(bar), engine.LifecycleCallbacks{}))
	}

	sm, ok := e.Matcher().Machine("RELIANCE", "green_bar")
	suite.Require().True(ok)
	suite.Len(sm.History(), 2)
}

func (suite *EngineTestSuite) TestRegimeFromSentiment() {
	e := suite.newEngine(engine.Dependencies{}, greenBarPattern)

	event := types.NewBarEvent(suite.bar("RELIANCE", 0, 100, 101, 99, 100))
	event.Sentiment = &types.Sentiment{Symbol: "RELIANCE", Timestamp: suite.day, PCR: 1.3}
	suite.Require().NoError(e.ProcessEvent(suite.ctx, event, engine.LifecycleCallbacks{}))
	suite.Equal(types.RegimeCompleteBullish, event.Regime)
	suite.NotNil(event.Structure)
	suite.True(e.Chains().Sentiment("RELIANCE").IsSome())

	// later bar of the same day reuses the cached snapshot
	next := types.NewBarEvent(suite.bar("RELIANCE", 1, 100, 101, 99, 100))
	suite.Require().NoError(e.ProcessEvent(suite.ctx, next, engine.LifecycleCallbacks{}))
	suite.Equal(types.RegimeCompleteBullish, next.Regime)
	suite.Same(event.Sentiment, next.Sentiment)

	// the snapshot does not carry over to the next day
	tomorrow := suite.bar("RELIANCE", 0, 100, 101, 99, 100)
	tomorrow.Time = suite.day.AddDate(0, 0, 1)
	nextDay := types.NewBarEvent(tomorrow)
	suite.Require().NoError(e.ProcessEvent(suite.ctx, nextDay, engine.LifecycleCallbacks{}))
	suite.Nil(nextDay.Sentiment)
	suite.Equal(types.RegimeSideways, nextDay.Regime)
}

func (suite *EngineTestSuite) TestRegimeVetoSkipsEntry() {
	e := suite.newEngine(engine.Dependencies{}, vetoedPattern)

	event := types.NewBarEvent(suite.bar("RELIANCE", 0, 100, 106, 99, 105))
	event.Sentiment = &types.Sentiment{
		Symbol:    "RELIANCE",
		Timestamp: suite.day,
		PCR:       1.5,
		Flow:      optional.Some(types.OptionFlowShortBuildup),
	}

	suite.Require().NoError(e.ProcessEvent(suite.ctx, event, engine.LifecycleCallbacks{}))
	suite.Equal(types.RegimeCompleteBearish, event.Regime)

	trades, err := suite.store.Trades(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(trades)

	// the machine was reset after the vetoed trigger
	sm, _ := e.Matcher().Machine("RELIANCE", "vetoed")
	suite.Equal("trigger", sm.State().PhaseID())
}

func (suite *EngineTestSuite) TestOptionChainLoadedOncePerDay() {
	chain := mocks.NewDataGenerator(1).GenerateOptionChain("RELIANCE", 2500, 20, 2, suite.day)

	gomock.InOrder(
		suite.chains.EXPECT().GetOptionChain(gomock.Any(), "RELIANCE", suite.day).Return(optional.Some(chain), nil),
		suite.chains.EXPECT().GetOptionChain(gomock.Any(), "RELIANCE", suite.day.AddDate(0, 0, 1)).
			Return(optional.None[types.OptionChain](), errors.New(errors.ErrCodeQueryFailed, "boom")),
	)

	e := suite.newEngine(engine.Dependencies{OptionChains: suite.chains}, greenBarPattern)

	var events []*types.MarketEvent
	for i := 0; i < 3; i++ {
		event := types.NewBarEvent(suite.bar("RELIANCE", i, 2500, 2501, 2499, 2500))
		suite.Require().NoError(e.ProcessEvent(suite.ctx, event, engine.LifecycleCallbacks{}))
		events = append(events, event)
	}

	suite.Require().NotNil(events[2].OptionChain)
	suite.Len(events[2].OptionChain.Strikes, 5)

	tomorrow := suite.bar("RELIANCE", 0, 2500, 2501, 2499, 2500)
	tomorrow.Time = suite.day.AddDate(0, 0, 1)
	suite.Require().NoError(e.ProcessEvent(suite.ctx, types.NewBarEvent(tomorrow), engine.LifecycleCallbacks{}))

	tomorrow.Time = tomorrow.Time.Add(time.Minute)
	suite.Require().NoError(e.ProcessEvent(suite.ctx, types.NewBarEvent(tomorrow), engine.LifecycleCallbacks{}))
}

func (suite *EngineTestSuite) TestUpdateEventsOnlyRefreshCache() {
	e := suite.newEngine(engine.Dependencies{}, greenBarPattern)

	s := &types.Sentiment{Symbol: "RELIANCE", Timestamp: suite.day, PCR: 0.5}
	suite.Require().NoError(e.ProcessEvent(suite.ctx, &types.MarketEvent{
		Type:      types.EventTypeSentimentUpdate,
		Symbol:    "RELIANCE",
		Timestamp: suite.day,
		Sentiment: s,
	}, engine.LifecycleCallbacks{}))

	suite.Equal(types.RegimeCompleteBearish, s.CachedRegime().Unwrap())
	suite.Same(s, e.Chains().Sentiment("RELIANCE").Unwrap())

	chain := mocks.NewDataGenerator(1).GenerateOptionChain("RELIANCE", 2500, 20, 1, suite.day)
	suite.Require().NoError(e.ProcessEvent(suite.ctx, &types.MarketEvent{
		Type:        types.EventTypeOptionChainUpdate,
		Symbol:      "RELIANCE",
		Timestamp:   suite.day,
		OptionChain: &chain,
	}, engine.LifecycleCallbacks{}))

	suite.Len(e.Chains().Get("RELIANCE").Unwrap().Strikes, 3)

	_, ok := e.Matcher().Machine("RELIANCE", "green_bar")
	suite.False(ok)
}

func (suite *EngineTestSuite) TestUntrackedSymbolSkipsPatterns() {
	e := suite.newEngine(engine.Dependencies{}, greenBarPattern)

	event := types.NewBarEvent(suite.bar("INFY", 0, 100, 106, 99, 105))
	suite.Require().NoError(e.ProcessEvent(suite.ctx, event, engine.LifecycleCallbacks{}))

	_, ok := e.Matcher().Machine("INFY", "green_bar")
	suite.False(ok)
	suite.Nil(event.Structure)
}

func (suite *EngineTestSuite) TestNearestLevelsReachEvent() {
	suite.config.StructureWindow = 1
	e := suite.newEngine(engine.Dependencies{}, supportBouncePattern)

	bars := []types.Bar{
		suite.bar("RELIANCE", 0, 97, 100, 95, 97),
		suite.bar("RELIANCE", 1, 97, 110, 96, 105),
		suite.bar("RELIANCE", 2, 102, 104, 97, 100),
		suite.bar("RELIANCE", 3, 100, 103, 90, 92),
		suite.bar("RELIANCE", 4, 95, 105, 94, 100),
	}

	events := make([]*types.MarketEvent, 0, len(bars))
	for _, bar := range bars {
		event := types.NewBarEvent(bar)
		suite.Require().NoError(e.ProcessEvent(suite.ctx, event, engine.LifecycleCallbacks{}))
		events = append(events, event)
	}

	suite.True(events[1].Structure.NearestResistance.IsNone())
	suite.Equal(110.0, events[2].Structure.NearestResistance.Unwrap())
	suite.True(events[3].Structure.NearestSupport.IsNone())

	last := events[4].Structure
	suite.Equal(90.0, last.NearestSupport.Unwrap())
	suite.Equal(110.0, last.NearestResistance.Unwrap())

	trades, err := suite.store.Trades(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.Equal(100.0, trades[0].EntryPrice)
	suite.Equal(90.0, trades[0].StopLoss)
}

func (suite *EngineTestSuite) TestTwoStepPatternUsesCapturedValue() {
	e := suite.newEngine(engine.Dependencies{}, twoStepPattern)

	bars := []types.Bar{
		suite.bar("RELIANCE", 0, 100, 104, 99, 103),
		suite.bar("RELIANCE", 1, 103, 104, 101, 102),
		suite.bar("RELIANCE", 2, 102, 108, 101, 107),
	}

	for _, bar := range bars {
		suite.Require().NoError(e.ProcessEvent(suite.ctx, types.NewBarEvent(bar), engine.LifecycleCallbacks{}))
	}

	trades, err := suite.store.Trades(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.Equal(107.0, trades[0].EntryPrice)
}

func (suite *EngineTestSuite) TestCallbackErrorAbortsBacktest() {
	bars := []types.Bar{
		suite.bar("RELIANCE", 0, 100, 101, 99, 100),
		suite.bar("RELIANCE", 1, 100, 101, 99, 100),
	}

	suite.candles.EXPECT().GetHistoricalCandles(gomock.Any(), "RELIANCE", gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(bars, nil)

	e := suite.newEngine(engine.Dependencies{Candles: suite.candles}, greenBarPattern)

	var ended error

	onBar := engine.OnProcessBarCallback(func(string, int, int) error { return errors.New(errors.ErrCodeUnknown, "stop") })
	onEnd := engine.OnRunEndCallback(func(_ string, err error) { ended = err })

	err := e.RunBacktest(suite.ctx, "RELIANCE", engine.LifecycleCallbacks{OnProcessBar: &onBar, OnRunEnd: &onEnd})
	suite.True(errors.HasCode(err, errors.ErrCodeCallbackFailed))
	suite.Equal(err, ended)
}

func (suite *EngineTestSuite) TestTradeOpenedCallbackErrorResetsAllMachines() {
	mirrored := strings.Replace(twoStepPattern, "id: two_step", "id: two_step_mirror", 1)
	e := suite.newEngine(engine.Dependencies{}, twoStepPattern, mirrored)

	calls := 0
	onOpened := engine.OnTradeOpenedCallback(func(types.Position) error {
		calls++

		return errors.New(errors.ErrCodeUnknown, "sink down")
	})
	callbacks := engine.LifecycleCallbacks{OnTradeOpened: &onOpened}

	suite.Require().NoError(e.ProcessEvent(suite.ctx, types.NewBarEvent(suite.bar("RELIANCE", 0, 100, 104, 99, 103)), callbacks))
	suite.Require().NoError(e.ProcessEvent(suite.ctx, types.NewBarEvent(suite.bar("RELIANCE", 1, 103, 104, 101, 102)), callbacks))

	for _, id := range []string{"two_step", "two_step_mirror"} {
		sm, ok := e.Matcher().Machine("RELIANCE", id)
		suite.Require().True(ok)
		suite.Equal("second", sm.State().PhaseID())
	}

	err := e.ProcessEvent(suite.ctx, types.NewBarEvent(suite.bar("RELIANCE", 2, 102, 108, 101, 107)), callbacks)
	suite.True(errors.HasCode(err, errors.ErrCodeCallbackFailed))
	suite.Equal(1, calls)

	for _, id := range []string{"two_step", "two_step_mirror"} {
		sm, _ := e.Matcher().Machine("RELIANCE", id)
		suite.Equal("first", sm.State().PhaseID(), id)
		suite.Empty(sm.State().Vars(), id)
	}
}

func (suite *EngineTestSuite) TestBacktestCandleFailure() {
	suite.candles.EXPECT().GetHistoricalCandles(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeQueryFailed, "down"))

	e := suite.newEngine(engine.Dependencies{Candles: suite.candles}, greenBarPattern)

	err := e.RunBacktest(suite.ctx, "RELIANCE", engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeHistoricalDataFailed))
}

func (suite *EngineTestSuite) TestBacktestWithoutCandleSource() {
	e := suite.newEngine(engine.Dependencies{}, greenBarPattern)

	err := e.RunBacktest(suite.ctx, "RELIANCE", engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeEngineInitFailed))
}

func (suite *EngineTestSuite) TestTradeErrorsReported() {
	const badPattern = `
id: bad
phases:
  - id: trigger
    conditions:
      - "close > 0"
execution:
  side: BUY
  entry: close
  sl: "entry + 10"
  tp: "entry + 20"
`
	e := suite.newEngine(engine.Dependencies{}, badPattern)

	var reported []error

	onError := engine.OnErrorCallback(func(err error) { reported = append(reported, err) })

	suite.Require().NoError(e.ProcessEvent(suite.ctx, types.NewBarEvent(suite.bar("RELIANCE", 0, 100, 101, 99, 100)), engine.LifecycleCallbacks{OnError: &onError}))
	suite.Require().Len(reported, 1)
	suite.True(errors.HasCode(reported[0], errors.ErrCodeInvalidStopLoss))
}
