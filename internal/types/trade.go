package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

type Side string

type TradeStatus string

type TradeOutcome string

type ExitReason string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

const (
	TradeOutcomeInProgress TradeOutcome = "IN_PROGRESS"
	TradeOutcomeWin        TradeOutcome = "WIN"
	TradeOutcomeLoss       TradeOutcome = "LOSS"
)

const (
	ExitReasonStopLoss   ExitReason = "stop_loss"
	ExitReasonTakeProfit ExitReason = "take_profit"
	ExitReasonBreakEven  ExitReason = "break_even"
	ExitReasonTimeExit   ExitReason = "time_exit"
)

// Sign is +1 for BUY and -1 for SELL.
func (s Side) Sign() int64 {
	if s == SideSell {
		return -1
	}

	return 1
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideSell {
		return SideBuy
	}

	return SideSell
}

// Trade is the persisted lifecycle record of one position. It is written
// once when the position opens and updated once when it closes.
type Trade struct {
	ID         string                     `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	PatternID  string                     `yaml:"pattern_id" json:"pattern_id" csv:"pattern_id" validate:"required"`
	Underlying string                     `yaml:"underlying" json:"underlying" csv:"underlying" validate:"required"`
	Instrument string                     `yaml:"instrument" json:"instrument" csv:"instrument" validate:"required"`
	Side       Side                       `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Quantity   float64                    `yaml:"quantity" json:"quantity" csv:"quantity" validate:"gt=0"`
	EntryTime  time.Time                  `yaml:"entry_time" json:"entry_time" csv:"entry_time" validate:"required"`
	EntryPrice float64                    `yaml:"entry_price" json:"entry_price" csv:"entry_price" validate:"gt=0"`
	StopLoss   float64                    `yaml:"stop_loss" json:"stop_loss" csv:"stop_loss"`
	TakeProfit float64                    `yaml:"take_profit" json:"take_profit" csv:"take_profit"`
	Status     TradeStatus                `yaml:"status" json:"status" csv:"status"`
	Outcome    TradeOutcome               `yaml:"outcome" json:"outcome" csv:"outcome"`
	ExitTime   optional.Option[time.Time] `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	ExitPrice  optional.Option[float64]   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	ExitReason ExitReason                 `yaml:"exit_reason" json:"exit_reason" csv:"exit_reason"`
	// PnL is the realized per-unit profit: (exit - entry) for BUY and (entry - exit) for SELL.
	PnL float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
}

// RealizedPnL computes the per-unit profit of exiting at price.
func RealizedPnL(side Side, entry, exit float64) float64 {
	return decimal.NewFromFloat(exit).
		Sub(decimal.NewFromFloat(entry)).
		Mul(decimal.NewFromInt(side.Sign())).
		InexactFloat64()
}

// Close marks the trade closed at the given price and time.
func (t *Trade) Close(price float64, at time.Time, reason ExitReason) {
	t.PnL = RealizedPnL(t.Side, t.EntryPrice, price)
	t.ExitPrice = optional.Some(price)
	t.ExitTime = optional.Some(at)
	t.ExitReason = reason
	t.Status = TradeStatusClosed

	if t.PnL > 0 {
		t.Outcome = TradeOutcomeWin
	} else {
		t.Outcome = TradeOutcomeLoss
	}
}

// HoldingTime is the time between entry and exit, zero while open.
func (t *Trade) HoldingTime() time.Duration {
	if t.ExitTime.IsNone() {
		return 0
	}

	return t.ExitTime.Unwrap().Sub(t.EntryTime)
}

// Position is an open in-memory position. It is keyed by the traded
// instrument and the pattern that opened it.
type Position struct {
	TradeID    string
	PatternID  string
	Underlying string
	// Instrument is the traded symbol, either the underlying itself or a resolved option.
	Instrument string
	Side       Side
	Quantity   float64
	EntryPrice float64
	EntryTime  time.Time
	StopLoss   float64
	TakeProfit float64
	// TargetDistance is |TakeProfit - EntryPrice| at entry and never changes.
	TargetDistance float64
	BreakEven      bool
	// LastChecked is the time of the last instrument bar checked for a stop or target.
	LastChecked time.Time
}

// FreshBar reports whether bar is newer than the entry and every bar
// already checked against the position's levels.
func (p *Position) FreshBar(bar Bar) bool {
	return bar.Time.After(p.EntryTime) && bar.Time.After(p.LastChecked)
}

// PositionKey identifies a position by instrument and pattern.
func PositionKey(instrument, patternID string) string {
	return instrument + "|" + patternID
}

// Key returns the position's identity key.
func (p *Position) Key() string {
	return PositionKey(p.Instrument, p.PatternID)
}

// ProfitAt returns the per-unit unrealized profit at price.
func (p *Position) ProfitAt(price float64) float64 {
	return RealizedPnL(p.Side, p.EntryPrice, price)
}

// StopHit reports whether the bar touched the stop.
func (p *Position) StopHit(bar Bar) bool {
	if p.Side == SideBuy {
		return bar.Low <= p.StopLoss
	}

	return bar.High >= p.StopLoss
}

// TargetHit reports whether the bar touched the target.
func (p *Position) TargetHit(bar Bar) bool {
	if p.Side == SideBuy {
		return bar.High >= p.TakeProfit
	}

	return bar.Low <= p.TakeProfit
}

// MoveStopTo tightens the stop. A move that would loosen it is ignored and
// false is returned.
func (p *Position) MoveStopTo(price float64) bool {
	if p.Side == SideBuy && price <= p.StopLoss {
		return false
	}

	if p.Side == SideSell && price >= p.StopLoss {
		return false
	}

	p.StopLoss = price

	return true
}
