package execution

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
)

// PriceSource returns the bar of any instrument (index or option) at a point in time.
type PriceSource interface {
	// GetBar returns the instrument's bar at or immediately before at, within the same day.
	GetBar(ctx context.Context, instrument string, at time.Time) (optional.Option[types.Bar], error)
}

// OptionResolver picks the at-the-money option contract of an underlying.
type OptionResolver interface {
	// ResolveATMOption returns the instrument key and display symbol of the
	// contract whose strike is nearest to spot.
	ResolveATMOption(ctx context.Context, underlying string, optionType types.OptionType, spot float64, at time.Time) (string, string, error)
}

// DeltaProvider reports an option's delta.
type DeltaProvider interface {
	GetOptionDelta(ctx context.Context, instrument string) (float64, error)
}

// TradeStore persists trade lifecycle records.
type TradeStore interface {
	Open(ctx context.Context, trade types.Trade) error
	Close(ctx context.Context, trade types.Trade) error
	Trades(ctx context.Context) ([]types.Trade, error)
}
