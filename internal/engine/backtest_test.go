package engine_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/datasource"
	"github.com/rxtech-lab/argo-options/internal/engine"
	"github.com/rxtech-lab/argo-options/internal/execution"
	"github.com/rxtech-lab/argo-options/internal/instrument"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/pattern"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/mocks"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/mock/gomock"
)

func (suite *EngineTestSuite) greenBarSession(symbol string) []types.Bar {
	return []types.Bar{
		suite.bar(symbol, 0, 100, 101, 99, 100),
		suite.bar(symbol, 1, 100, 106, 100, 105),
		suite.bar(symbol, 2, 105, 126, 104, 120),
	}
}

func (suite *EngineTestSuite) TestRunBacktestsAndWriteResults() {
	suite.candles.EXPECT().
		GetHistoricalCandles(gomock.Any(), gomock.Any(), "NSE", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, symbol, _ string, _ datasource.Interval, _, _ time.Time) ([]types.Bar, error) {
			return suite.greenBarSession(symbol), nil
		}).
		Times(2)

	var created atomic.Int32

	factory := func() (*engine.Engine, error) {
		created.Add(1)

		return engine.New(suite.config, []*pattern.Definition{suite.definition(greenBarPattern)}, engine.Dependencies{
			Candles:      suite.candles,
			Orchestrator: suite.orchestrator(),
		}, logger.NewNopLogger())
	}

	var closed atomic.Int32

	onClosed := engine.OnTradeClosedCallback(func(types.Trade) error {
		closed.Add(1)

		return nil
	})

	err := engine.RunBacktests(suite.ctx, suite.config.Symbols, 2, factory, engine.LifecycleCallbacks{OnTradeClosed: &onClosed})
	suite.Require().NoError(err)
	suite.Equal(int32(2), created.Load())
	suite.Equal(int32(2), closed.Load())

	dir := filepath.Join(suite.T().TempDir(), "results")

	stats, err := engine.WriteResults(suite.ctx, suite.store, dir, []string{"green_bar"})
	suite.Require().NoError(err)
	suite.Require().Len(stats, 2)

	suite.Equal("RELIANCE", stats[0].Symbol)
	suite.Equal("TCS", stats[1].Symbol)
	suite.Equal(stats[0].ID, stats[1].ID)

	for _, s := range stats {
		suite.Equal(1, s.TradeResult.NumberOfTrades)
		suite.Equal(1, s.TradeResult.NumberOfWinningTrades)
		suite.Equal(1, s.TradeResult.NumberOfOpenTrades)
		suite.InDelta(20*execution.DefaultBaseQuantity, s.TradePnl.RealizedPnL, 1e-9)
		suite.Equal(1, s.ExitReasons[types.ExitReasonTakeProfit])
		suite.Equal([]string{"green_bar"}, s.Patterns)
		suite.Equal(filepath.Join(dir, "trades.parquet"), s.TradesFilePath)
	}

	suite.FileExists(filepath.Join(dir, "stats.yaml"))
	suite.FileExists(filepath.Join(dir, "trades.parquet"))
}

func (suite *EngineTestSuite) TestRunBacktestsFailures() {
	err := engine.RunBacktests(suite.ctx, nil, 2, nil, engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeNoSymbols))

	factory := func() (*engine.Engine, error) {
		return nil, errors.New(errors.ErrCodeEngineInitFailed, "broken")
	}

	err = engine.RunBacktests(suite.ctx, []string{"RELIANCE"}, 0, factory, engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeRunFailed))
}

func (suite *EngineTestSuite) TestWriteResultsNeedsDirectory() {
	results := mocks.NewMockResultStore(suite.ctrl)

	_, err := engine.WriteResults(suite.ctx, results, "", nil)
	suite.True(errors.HasCode(err, errors.ErrCodeNoResultsDir))
}

func (suite *EngineTestSuite) TestWriteResultsPropagatesStoreErrors() {
	results := mocks.NewMockResultStore(suite.ctrl)
	results.EXPECT().Trades(gomock.Any()).Return(nil, nil)
	results.EXPECT().Write(gomock.Any()).Return("", errors.New(errors.ErrCodeWriteFailed, "disk full"))

	_, err := engine.WriteResults(suite.ctx, results, suite.T().TempDir(), nil)
	suite.True(errors.HasCode(err, errors.ErrCodeWriteFailed))
}

// TestIndexTradesThroughOptions runs an index pattern over a real store: the
// SELL signal on NIFTY buys the ATM put and exits on the option's own bars.
func (suite *EngineTestSuite) TestIndexTradesThroughOptions() {
	const putKey = "NSE_FO|NIFTY22000PE"

	store, err := datasource.NewDuckDBStore("", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(store.Initialize())

	defer store.Close()

	suite.Require().NoError(store.StoreCandles(suite.ctx, "NSE", datasource.Interval1m, []types.Bar{
		suite.bar("NIFTY", 1, 22010, 22015, 21995, 22000),
		suite.bar("NIFTY", 2, 22000, 22030, 21998, 22020),
	}))
	suite.Require().NoError(store.StoreCandles(suite.ctx, "NSE", datasource.Interval1m, []types.Bar{
		suite.bar(putKey, 1, 148, 152, 147, 150),
		suite.bar(putKey, 2, 150, 170, 149, 160),
	}))
	suite.Require().NoError(store.StoreContracts(suite.ctx, []instrument.Contract{{
		InstrumentKey: putKey,
		TradingSymbol: "NIFTY 22000 PE",
		Underlying:    "NIFTY",
		OptionType:    types.OptionTypePut,
		Strike:        22000,
		Expiry:        time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	}}))

	resolver := instrument.NewResolver(store, []string{"NIFTY"}, logger.NewNopLogger())
	suite.Require().NoError(resolver.Initialize(suite.ctx))

	orchestrator := execution.NewOrchestrator(execution.DefaultConfig(), store, resolver, instrument.FixedDelta(0.4), suite.store, logger.NewNopLogger())

	const redBarPattern = `
id: red_bar
phases:
  - id: trigger
    conditions:
      - "close < open"
execution:
  side: SELL
  entry: close
  sl: "entry + 20"
  tp: "entry - 40"
`

	suite.config.Symbols = []string{"NIFTY"}
	suite.config.StartTime = optional.Some(suite.day)
	suite.config.EndTime = optional.Some(suite.day.Add(time.Hour))

	e := suite.newEngine(engine.Dependencies{
		Candles:      store,
		OptionChains: store,
		Sentiment:    store,
		Observer:     store,
		Orchestrator: orchestrator,
	}, redBarPattern)

	suite.Require().NoError(e.RunBacktest(suite.ctx, "NIFTY", engine.LifecycleCallbacks{}))

	trades, err := suite.store.Trades(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)

	trade := trades[0]
	suite.Equal(putKey, trade.Instrument)
	suite.Equal("NIFTY", trade.Underlying)
	suite.Equal(types.SideBuy, trade.Side)
	suite.Equal(150.0, trade.EntryPrice)
	suite.InDelta(142.0, trade.StopLoss, 1e-9)
	suite.InDelta(166.0, trade.TakeProfit, 1e-9)
	suite.Equal(types.ExitReasonTakeProfit, trade.ExitReason)
	suite.Equal(types.TradeOutcomeWin, trade.Outcome)
	suite.InDelta(16.0, trade.PnL, 1e-9)
}
