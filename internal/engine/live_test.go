package engine_test

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/argo-options/internal/engine"
	"github.com/rxtech-lab/argo-options/internal/pattern"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/mocks"
	"go.uber.org/mock/gomock"
)

func (suite *EngineTestSuite) TestLiveRunStopsAndSavesStates() {
	suite.config.StateFile = filepath.Join(suite.T().TempDir(), "states.json")

	observer := mocks.NewMockPriceObserver(suite.ctrl)
	observer.EXPECT().Observe(gomock.Any()).Times(1)

	e := suite.newEngine(engine.Dependencies{Observer: observer}, twoStepPattern)

	events := make(chan *types.MarketEvent, 4)
	events <- types.NewBarEvent(suite.bar("RELIANCE", 0, 100, 104, 99, 103))
	events <- types.NewStopEvent()
	events <- types.NewBarEvent(suite.bar("RELIANCE", 1, 103, 110, 101, 109))

	var (
		started bool
		ended   error
	)

	onStart := engine.OnRunStartCallback(func(symbol string, _ int) error {
		started = true
		suite.Equal("live", symbol)

		return nil
	})
	onEnd := engine.OnRunEndCallback(func(_ string, err error) { ended = err })

	err := e.RunLive(suite.ctx, events, engine.LifecycleCallbacks{OnRunStart: &onStart, OnRunEnd: &onEnd})
	suite.Require().NoError(err)
	suite.True(started)
	suite.NoError(ended)
	suite.Len(events, 1)

	snapshots, err := pattern.LoadStates(suite.config.StateFile)
	suite.Require().NoError(err)
	suite.Require().Len(snapshots, 1)
	suite.Equal("second", snapshots[0].PhaseID)
	suite.Equal(104.0, snapshots[0].Vars["first_high"])

	// a restarted engine resumes at the saved phase
	restarted := suite.newEngine(engine.Dependencies{}, twoStepPattern)

	resumed := make(chan *types.MarketEvent, 2)
	resumed <- types.NewBarEvent(suite.bar("RELIANCE", 1, 103, 110, 101, 109))
	close(resumed)

	suite.Require().NoError(restarted.RunLive(suite.ctx, resumed, engine.LifecycleCallbacks{}))

	trades, err := suite.store.Trades(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.Equal(109.0, trades[0].EntryPrice)
}

func (suite *EngineTestSuite) TestLiveRunIgnoresCorruptStateFile() {
	suite.config.StateFile = filepath.Join(suite.T().TempDir(), "states.json")
	suite.Require().NoError(pattern.SaveStates(suite.config.StateFile, []pattern.StateSnapshot{
		{Symbol: "RELIANCE", PatternID: "two_step", PhaseID: "missing"},
		{Symbol: "RELIANCE", PatternID: "unknown", PhaseID: "first"},
	}))

	e := suite.newEngine(engine.Dependencies{}, twoStepPattern)

	events := make(chan *types.MarketEvent)
	close(events)

	suite.Require().NoError(e.RunLive(suite.ctx, events, engine.LifecycleCallbacks{}))

	_, ok := e.Matcher().Machine("RELIANCE", "two_step")
	suite.False(ok)
}

func (suite *EngineTestSuite) TestLiveRunCancelled() {
	e := suite.newEngine(engine.Dependencies{}, greenBarPattern)

	ctx, cancel := context.WithCancel(suite.ctx)
	events := make(chan *types.MarketEvent)

	done := make(chan error, 1)
	go func() { done <- e.RunLive(ctx, events, engine.LifecycleCallbacks{}) }()

	cancel()

	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("live run did not stop after cancel")
	}
}

func (suite *EngineTestSuite) TestLiveBarsGetATR() {
	e := suite.newEngine(engine.Dependencies{}, greenBarPattern)

	events := make(chan *types.MarketEvent, 3)
	events <- types.NewBarEvent(suite.bar("RELIANCE", 0, 100, 101, 99, 100))
	events <- types.NewBarEvent(suite.bar("RELIANCE", 1, 100, 103, 99, 100))
	close(events)

	var processed int

	onBar := engine.OnProcessBarCallback(func(_ string, current, total int) error {
		processed = current
		suite.Zero(total)

		return nil
	})

	suite.Require().NoError(e.RunLive(suite.ctx, events, engine.LifecycleCallbacks{OnProcessBar: &onBar}))
	suite.Equal(2, processed)

	sm, ok := e.Matcher().Machine("RELIANCE", "green_bar")
	suite.Require().True(ok)

	history := sm.History()
	suite.Require().Len(history, 2)
	suite.InDelta(2.0, history[0].ATR, 1e-9)
	suite.InDelta(3.0, history[1].ATR, 1e-9)
}
