package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type EventType string

const (
	EventTypeMarketUpdate      EventType = "MARKET_UPDATE"
	EventTypeCandleUpdate      EventType = "CANDLE_UPDATE"
	EventTypeSentimentUpdate   EventType = "SENTIMENT_UPDATE"
	EventTypeOptionChainUpdate EventType = "OPTION_CHAIN_UPDATE"
	EventTypeStop              EventType = "STOP"
)

// MarketStructure is the tracker output attached to an event.
type MarketStructure struct {
	Regime     Regime    `json:"regime"`
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
	PivotHighs []float64 `json:"pivot_highs"`
	PivotLows  []float64 `json:"pivot_lows"`
	// NearestSupport is the highest support strictly below the bar's close.
	NearestSupport optional.Option[float64] `json:"nearest_support"`
	// NearestResistance is the lowest resistance strictly above the bar's close.
	NearestResistance optional.Option[float64] `json:"nearest_resistance"`
}

// MarketEvent is the unit of work flowing through the engine pipeline.
// Stages fill Structure and Regime as the event moves through them.
type MarketEvent struct {
	Type        EventType          `json:"type"`
	Timestamp   time.Time          `json:"timestamp"`
	Symbol      string             `json:"symbol"`
	Bar         *Bar               `json:"bar,omitempty"`
	Sentiment   *Sentiment         `json:"sentiment,omitempty"`
	OptionChain *OptionChain       `json:"option_chain,omitempty"`
	Screener    map[string]float64 `json:"screener,omitempty"`

	Structure *MarketStructure `json:"structure,omitempty"`
	Regime    Regime           `json:"regime,omitempty"`
}

// NewStopEvent returns the sentinel that terminates a live run.
func NewStopEvent() *MarketEvent {
	return &MarketEvent{Type: EventTypeStop}
}

// NewBarEvent wraps a bar into a market update.
func NewBarEvent(bar Bar) *MarketEvent {
	return &MarketEvent{
		Type:      EventTypeMarketUpdate,
		Timestamp: bar.Time,
		Symbol:    bar.Symbol,
		Bar:       &bar,
	}
}

// IsStop reports whether the event is the stop sentinel.
func (e *MarketEvent) IsStop() bool {
	return e == nil || e.Type == EventTypeStop
}

// HasBar reports whether the event carries a candle.
func (e *MarketEvent) HasBar() bool {
	return e != nil && e.Bar != nil && (e.Type == EventTypeMarketUpdate || e.Type == EventTypeCandleUpdate)
}
