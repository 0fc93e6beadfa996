package engine

import (
	"context"

	"github.com/rxtech-lab/argo-options/internal/indicator"
	"github.com/rxtech-lab/argo-options/internal/pattern"
	"github.com/rxtech-lab/argo-options/internal/types"
	"go.uber.org/zap"
)

// RunLive consumes events until a STOP event arrives, the channel is closed
// or ctx is cancelled. Pattern states are restored from the configured state
// file before the first event and saved back when the run ends.
func (e *Engine) RunLive(ctx context.Context, events <-chan *types.MarketEvent, callbacks LifecycleCallbacks) (err error) {
	defer func() { callbacks.runEnd("live", err) }()

	e.restoreStates()
	defer e.saveStates()

	if err := callbacks.runStart("live", 0); err != nil {
		return err
	}

	processed := 0

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Live run cancelled", zap.Int("events", processed))

			return nil
		case event, ok := <-events:
			if !ok || event.IsStop() {
				e.logger.Info("Live run stopped", zap.Int("events", processed))

				return nil
			}

			if event.HasBar() {
				e.enrichLiveBar(event)

				if e.observer != nil {
					e.observer.Observe(*event.Bar)
				}
			}

			if err := e.ProcessEvent(ctx, event, callbacks); err != nil {
				return err
			}

			processed++

			if err := callbacks.processBar(event.Symbol, processed, 0); err != nil {
				return err
			}
		}
	}
}

// enrichLiveBar computes ATR of a streamed bar from the bars seen so far.
func (e *Engine) enrichLiveBar(event *types.MarketEvent) {
	bar := *event.Bar
	e.liveBars.Add(bar)

	if bar.ATR > 0 {
		return
	}

	window, _ := e.liveBars.GetPrevious(bar.Symbol, bar.Time, e.config.ATRPeriod+1)
	if len(window) == 0 {
		return
	}

	indicator.EnrichATR(window, e.config.ATRPeriod)
	bar.ATR = window[len(window)-1].ATR
	event.Bar = &bar
}

func (e *Engine) restoreStates() {
	if e.config.StateFile == "" {
		return
	}

	snapshots, err := pattern.LoadStates(e.config.StateFile)
	if err != nil {
		e.logger.Warn("Ignoring unreadable pattern states",
			zap.String("path", e.config.StateFile),
			zap.Error(err))

		return
	}

	skipped := e.matcher.Restore(snapshots)

	e.logger.Info("Restored pattern states",
		zap.Int("restored", len(snapshots)-skipped),
		zap.Int("skipped", skipped))
}

func (e *Engine) saveStates() {
	if e.config.StateFile == "" {
		return
	}

	if err := pattern.SaveStates(e.config.StateFile, e.matcher.Snapshot()); err != nil {
		e.logger.Error("Failed to save pattern states",
			zap.String("path", e.config.StateFile),
			zap.Error(err))
	}
}
