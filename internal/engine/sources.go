package engine

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/datasource"
	"github.com/rxtech-lab/argo-options/internal/types"
)

// CandleSource returns historical bars.
type CandleSource interface {
	// GetHistoricalCandles returns bars between from and to inclusive in
	// ascending time order. Gaps are allowed.
	GetHistoricalCandles(ctx context.Context, symbol, exchange string, interval datasource.Interval, from, to time.Time) ([]types.Bar, error)
}

// OptionChainSource returns the option chain of an underlying for a day.
type OptionChainSource interface {
	GetOptionChain(ctx context.Context, symbol string, date time.Time) (optional.Option[types.OptionChain], error)
}

// SentimentSource returns the market stats snapshot nearest to, and not
// after, a timestamp within the same calendar day.
type SentimentSource interface {
	GetClosestMarketStats(ctx context.Context, symbol string, ts time.Time) (optional.Option[*types.Sentiment], error)
}

// PriceObserver receives every live bar so later price lookups can use it.
type PriceObserver interface {
	Observe(bar types.Bar)
}

// ResultStore is the trade store as seen by result writing.
type ResultStore interface {
	Trades(ctx context.Context) ([]types.Trade, error)
	Write(dir string) (string, error)
}
