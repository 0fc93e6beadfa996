package engine

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-options/internal/indicator"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunBacktest replays the configured period of one symbol through the
// pipeline. Bars are enriched with ATR before the first one is processed.
func (e *Engine) RunBacktest(ctx context.Context, symbol string, callbacks LifecycleCallbacks) (err error) {
	defer func() { callbacks.runEnd(symbol, err) }()

	if e.candles == nil {
		return errors.New(errors.ErrCodeEngineInitFailed, "backtest needs a candle source")
	}

	from, to := e.config.Period()

	bars, err := e.candles.GetHistoricalCandles(ctx, symbol, e.config.Exchange, e.config.Interval, from, to)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeHistoricalDataFailed, err, "failed to load candles of %s", symbol)
	}

	indicator.EnrichATR(bars, e.config.ATRPeriod)

	e.logger.Info("Starting backtest",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
		zap.Time("from", from),
		zap.Time("to", to))

	if err := callbacks.runStart(symbol, len(bars)); err != nil {
		return errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
	}

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.ProcessEvent(ctx, types.NewBarEvent(bar), callbacks); err != nil {
			return err
		}

		if err := callbacks.processBar(symbol, i+1, len(bars)); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "process bar callback failed", err)
		}
	}

	e.logger.Info("Backtest finished",
		zap.String("symbol", symbol),
		zap.Int("open_positions", len(e.orchestrator.OpenPositions())))

	return nil
}

// EngineFactory creates a fresh engine for one worker.
type EngineFactory func() (*Engine, error)

// RunBacktests runs each symbol on its own engine, at most workers at a time.
// The first failing symbol cancels the rest.
func RunBacktests(ctx context.Context, symbols []string, workers int, factory EngineFactory, callbacks LifecycleCallbacks) error {
	if len(symbols) == 0 {
		return errors.New(errors.ErrCodeNoSymbols, "no symbols to backtest")
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(max(workers, 1))

	for _, symbol := range symbols {
		group.Go(func() error {
			e, err := factory()
			if err != nil {
				return err
			}

			return e.RunBacktest(ctx, symbol, callbacks)
		})
	}

	if err := group.Wait(); err != nil {
		return errors.Wrap(errors.ErrCodeRunFailed, "backtest failed", err)
	}

	return nil
}

// WriteResults exports all trades to dir and writes per-underlying stats to
// dir/stats.yaml. patterns are the ids of the loaded definitions.
func WriteResults(ctx context.Context, store ResultStore, dir string, patterns []string) ([]types.TradeStats, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeNoResultsDir, "no results directory set")
	}

	trades, err := store.Trades(ctx)
	if err != nil {
		return nil, err
	}

	tradesPath, err := store.Write(dir)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	now := time.Now().UTC()

	byUnderlying := make(map[string][]types.Trade)
	for _, trade := range trades {
		byUnderlying[trade.Underlying] = append(byUnderlying[trade.Underlying], trade)
	}

	underlyings := make([]string, 0, len(byUnderlying))
	for u := range byUnderlying {
		underlyings = append(underlyings, u)
	}

	sort.Strings(underlyings)

	stats := make([]types.TradeStats, 0, len(underlyings))
	for _, u := range underlyings {
		s := types.CalculateTradeStats(u, byUnderlying[u])
		s.ID = runID
		s.Timestamp = now
		s.TradesFilePath = tradesPath
		s.Patterns = patterns
		stats = append(stats, s)
	}

	if err := types.WriteTradeStats(filepath.Join(dir, "stats.yaml"), stats); err != nil {
		return nil, err
	}

	return stats, nil
}
