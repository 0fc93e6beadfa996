package engine

import "github.com/rxtech-lab/argo-options/internal/types"

// Lifecycle callback types. Callbacks returning an error abort the run.
// When symbols are backtested in parallel callbacks are invoked from several
// goroutines.

// OnRunStartCallback is called before the first bar of a symbol is processed.
type OnRunStartCallback func(symbol string, totalBars int) error

// OnRunEndCallback is called when a symbol's run ends (always called via defer).
type OnRunEndCallback func(symbol string, err error)

// OnProcessBarCallback is called after each bar went through the pipeline.
type OnProcessBarCallback func(symbol string, current int, total int) error

// OnTradeOpenedCallback is called when a pattern opened a position.
type OnTradeOpenedCallback func(position types.Position) error

// OnTradeClosedCallback is called when a position was closed.
type OnTradeClosedCallback func(trade types.Trade) error

// OnErrorCallback is called for non-fatal errors such as failed trade attempts.
type OnErrorCallback func(err error)

// LifecycleCallbacks holds all lifecycle callback functions of the engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
	OnProcessBar  *OnProcessBarCallback
	OnTradeOpened *OnTradeOpenedCallback
	OnTradeClosed *OnTradeClosedCallback
	OnError       *OnErrorCallback
}

func (c LifecycleCallbacks) runStart(symbol string, total int) error {
	if c.OnRunStart == nil {
		return nil
	}

	return (*c.OnRunStart)(symbol, total)
}

func (c LifecycleCallbacks) runEnd(symbol string, err error) {
	if c.OnRunEnd != nil {
		(*c.OnRunEnd)(symbol, err)
	}
}

func (c LifecycleCallbacks) processBar(symbol string, current, total int) error {
	if c.OnProcessBar == nil {
		return nil
	}

	return (*c.OnProcessBar)(symbol, current, total)
}

func (c LifecycleCallbacks) tradeOpened(position types.Position) error {
	if c.OnTradeOpened == nil {
		return nil
	}

	return (*c.OnTradeOpened)(position)
}

func (c LifecycleCallbacks) tradeClosed(trade types.Trade) error {
	if c.OnTradeClosed == nil {
		return nil
	}

	return (*c.OnTradeClosed)(trade)
}

func (c LifecycleCallbacks) reportError(err error) {
	if c.OnError != nil {
		(*c.OnError)(err)
	}
}
