package execution

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/expression"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/pattern"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

// TradeRequest is a triggered pattern asking for a position.
type TradeRequest struct {
	Symbol     string
	Definition *pattern.Definition
	// Context is the state machine's context of the triggering bar.
	Context *expression.Context
	Bar     types.Bar
	Regime  types.Regime
}

// NewTradeRequest builds a request from a machine whose trigger was just consumed.
func NewTradeRequest(machine *pattern.StateMachine, regime types.Regime) TradeRequest {
	req := TradeRequest{
		Symbol:     machine.Symbol(),
		Definition: machine.Definition(),
		Context:    machine.Context(),
		Regime:     regime,
	}

	if req.Context != nil {
		req.Bar = req.Context.Bar
	}

	return req
}

// leg is the concrete instrument and price levels of a trade.
type leg struct {
	instrument string
	display    string
	side       types.Side
	entry      float64
	stopLoss   float64
	takeProfit float64
}

// Orchestrator opens positions for triggered patterns and manages their exits.
type Orchestrator struct {
	mu        sync.Mutex
	config    Config
	prices    PriceSource
	resolver  OptionResolver
	deltas    DeltaProvider
	store     TradeStore
	positions map[string]*types.Position
	trades    map[string]types.Trade
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewOrchestrator creates an orchestrator. resolver and deltas may be nil when
// no index symbols are configured.
func NewOrchestrator(
	config Config,
	prices PriceSource,
	resolver OptionResolver,
	deltas DeltaProvider,
	store TradeStore,
	log *logger.Logger,
) *Orchestrator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Orchestrator{
		config:    config,
		prices:    prices,
		resolver:  resolver,
		deltas:    deltas,
		store:     store,
		positions: make(map[string]*types.Position),
		trades:    make(map[string]types.Trade),
		validate:  validator.New(),
		logger:    log,
	}
}

// ExecuteTrade evaluates the pattern's execution formulas and opens a position.
// None is returned without an error when the regime vetoes the entry or the
// position already exists.
func (o *Orchestrator) ExecuteTrade(ctx context.Context, req TradeRequest) (optional.Option[types.Position], error) {
	def := req.Definition
	if def == nil || req.Context == nil {
		return optional.None[types.Position](), errors.New(errors.ErrCodeInvalidTrade, "trade request needs a definition and an evaluation context")
	}

	settings := def.RegimeSettings(req.Regime)
	if !settings.Allows() {
		o.logger.Info("Entry vetoed by regime",
			zap.String("pattern", def.ID),
			zap.String("symbol", req.Symbol),
			zap.String("regime", string(req.Regime)),
		)

		return optional.None[types.Position](), nil
	}

	side := def.Execution.Side

	entry, stopLoss, takeProfit, err := o.evaluateLevels(req, settings)
	if err != nil {
		return optional.None[types.Position](), err
	}

	if err := checkLevels(side, entry, stopLoss, takeProfit); err != nil {
		return optional.None[types.Position](), err
	}

	quantity := o.config.BaseQuantity * settings.QuantityModifier()
	if quantity <= 0 {
		return optional.None[types.Position](), errors.Newf(errors.ErrCodeInvalidTrade, "quantity %.2f is not positive for pattern %s", quantity, def.ID)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	l, err := o.resolveLeg(ctx, req, side, entry, stopLoss, takeProfit)
	if err != nil {
		return optional.None[types.Position](), err
	}

	if l.instrument == "" {
		// duplicate position
		return optional.None[types.Position](), nil
	}

	trade := types.Trade{
		ID:         uuid.New().String(),
		PatternID:  def.ID,
		Underlying: req.Symbol,
		Instrument: l.instrument,
		Side:       l.side,
		Quantity:   quantity,
		EntryTime:  req.Bar.Time,
		EntryPrice: l.entry,
		StopLoss:   l.stopLoss,
		TakeProfit: l.takeProfit,
		Status:     types.TradeStatusOpen,
		Outcome:    types.TradeOutcomeInProgress,
	}

	if err := o.validate.Struct(trade); err != nil {
		return optional.None[types.Position](), errors.Wrap(errors.ErrCodeInvalidTrade, "trade failed validation", err)
	}

	if err := o.store.Open(ctx, trade); err != nil {
		return optional.None[types.Position](), errors.Wrapf(errors.ErrCodeTradeFailed, err, "failed to persist trade of pattern %s", def.ID)
	}

	position := &types.Position{
		TradeID:        trade.ID,
		PatternID:      def.ID,
		Underlying:     req.Symbol,
		Instrument:     l.instrument,
		Side:           l.side,
		Quantity:       quantity,
		EntryPrice:     l.entry,
		EntryTime:      req.Bar.Time,
		StopLoss:       l.stopLoss,
		TakeProfit:     l.takeProfit,
		TargetDistance: math.Abs(l.takeProfit - l.entry),
	}

	o.positions[position.Key()] = position
	o.trades[trade.ID] = trade

	o.logger.Info("Position opened",
		zap.String("pattern", def.ID),
		zap.String("underlying", req.Symbol),
		zap.String("instrument", l.display),
		zap.String("side", string(l.side)),
		zap.Float64("entry", l.entry),
		zap.Float64("stop_loss", l.stopLoss),
		zap.Float64("take_profit", l.takeProfit),
		zap.Float64("quantity", quantity),
	)

	return optional.Some(*position), nil
}

// evaluateLevels runs entry, sl and tp in that order. Each formula sees the
// values computed before it.
func (o *Orchestrator) evaluateLevels(req TradeRequest, settings pattern.RegimeConfig) (float64, float64, float64, error) {
	exec := req.Definition.Execution

	ctx := req.Context.With(map[string]float64{
		"tp_mult":      settings.TakeProfitMultiplier(),
		"quantity_mod": settings.QuantityModifier(),
	})

	entry, err := exec.Entry.EvalFloat(ctx)
	if err != nil {
		return 0, 0, 0, errors.Wrapf(errors.ErrCodeExpressionEval, err, "failed to evaluate entry of pattern %s", req.Definition.ID)
	}

	ctx = ctx.With(map[string]float64{"entry": entry})

	stopLoss, err := exec.StopLoss.EvalFloat(ctx)
	if err != nil {
		return 0, 0, 0, errors.Wrapf(errors.ErrCodeExpressionEval, err, "failed to evaluate sl of pattern %s", req.Definition.ID)
	}

	ctx = ctx.With(map[string]float64{
		"sl":   stopLoss,
		"risk": math.Abs(entry - stopLoss),
	})

	takeProfit, err := exec.TakeProfit.EvalFloat(ctx)
	if err != nil {
		return 0, 0, 0, errors.Wrapf(errors.ErrCodeExpressionEval, err, "failed to evaluate tp of pattern %s", req.Definition.ID)
	}

	return entry, stopLoss, takeProfit, nil
}

func checkLevels(side types.Side, entry, stopLoss, takeProfit float64) error {
	if entry <= 0 {
		return errors.Newf(errors.ErrCodeInvalidTrade, "entry %.2f must be positive", entry)
	}

	if side == types.SideBuy {
		if stopLoss >= entry {
			return errors.Newf(errors.ErrCodeInvalidStopLoss, "stop loss %.2f must be below entry %.2f for BUY", stopLoss, entry)
		}

		if takeProfit <= entry {
			return errors.Newf(errors.ErrCodeInvalidTakeProfit, "take profit %.2f must be above entry %.2f for BUY", takeProfit, entry)
		}

		return nil
	}

	if stopLoss <= entry {
		return errors.Newf(errors.ErrCodeInvalidStopLoss, "stop loss %.2f must be above entry %.2f for SELL", stopLoss, entry)
	}

	if takeProfit >= entry {
		return errors.Newf(errors.ErrCodeInvalidTakeProfit, "take profit %.2f must be below entry %.2f for SELL", takeProfit, entry)
	}

	return nil
}

// resolveLeg turns index-space levels into the traded instrument's levels.
// An empty instrument means a position for it already exists. Callers hold o.mu.
func (o *Orchestrator) resolveLeg(ctx context.Context, req TradeRequest, side types.Side, entry, stopLoss, takeProfit float64) (leg, error) {
	patternID := req.Definition.ID

	if !o.config.IsIndex(req.Symbol) {
		if o.hasPosition(req.Symbol, patternID) {
			return leg{}, nil
		}

		return leg{
			instrument: req.Symbol,
			display:    req.Symbol,
			side:       side,
			entry:      entry,
			stopLoss:   stopLoss,
			takeProfit: takeProfit,
		}, nil
	}

	if o.resolver == nil || o.prices == nil {
		return leg{}, errors.Newf(errors.ErrCodeOptionResolution, "no option resolver configured for %s", req.Symbol)
	}

	optionType := types.OptionTypeCall
	if side == types.SideSell {
		optionType = types.OptionTypePut
	}

	key, display, err := o.resolver.ResolveATMOption(ctx, req.Symbol, optionType, req.Bar.Close, req.Bar.Time)
	if err != nil {
		return leg{}, errors.Wrapf(errors.ErrCodeOptionResolution, err, "failed to resolve ATM %s option of %s", optionType, req.Symbol)
	}

	if key == "" {
		return leg{}, errors.Newf(errors.ErrCodeOptionResolution, "no ATM %s option for %s", optionType, req.Symbol)
	}

	if o.hasPosition(key, patternID) {
		return leg{}, nil
	}

	bar, err := o.prices.GetBar(ctx, key, req.Bar.Time)
	if err != nil {
		return leg{}, errors.Wrapf(errors.ErrCodeOptionPriceMissing, err, "failed to fetch price of %s", display)
	}

	if bar.IsNone() || bar.Unwrap().Close <= 0 {
		return leg{}, errors.Newf(errors.ErrCodeOptionPriceMissing, "no price for %s at %s", display, req.Bar.Time)
	}

	optionEntry := bar.Unwrap().Close
	delta := o.delta(ctx, key)

	return leg{
		instrument: key,
		display:    display,
		side:       types.SideBuy,
		entry:      optionEntry,
		stopLoss:   math.Max(0, optionEntry-math.Abs(entry-stopLoss)*delta),
		takeProfit: optionEntry + math.Abs(takeProfit-entry)*delta,
	}, nil
}

func (o *Orchestrator) delta(ctx context.Context, instrument string) float64 {
	if o.deltas == nil {
		return o.config.DefaultDelta
	}

	delta, err := o.deltas.GetOptionDelta(ctx, instrument)
	if err != nil || delta == 0 || math.IsNaN(delta) {
		return o.config.DefaultDelta
	}

	return math.Min(math.Abs(delta), 1)
}

func (o *Orchestrator) hasPosition(instrument, patternID string) bool {
	_, ok := o.positions[types.PositionKey(instrument, patternID)]

	return ok
}

// OnBar checks every open position tied to the event's symbol for an exit and
// returns the trades it closed. The holding limit runs on the event clock and
// closes at the instrument's last known price. Stop loss, take profit and the
// break-even move only look at instrument bars newer than the entry and than
// the last bar already checked, so a gap in the instrument's series never
// replays old price action.
func (o *Orchestrator) OnBar(ctx context.Context, event *types.MarketEvent) ([]types.Trade, error) {
	if !event.HasBar() {
		return nil, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	var (
		closed  []types.Trade
		lastErr error
	)

	for _, key := range o.sortedKeys() {
		position := o.positions[key]
		if position.Underlying != event.Symbol && position.Instrument != event.Symbol {
			continue
		}

		if !event.Timestamp.After(position.EntryTime) {
			continue
		}

		bar, ok := o.instrumentBar(ctx, position, event)
		if !ok {
			continue
		}

		price, reason, exit := o.checkExit(position, bar, event.Timestamp)
		if !exit {
			continue
		}

		trade, err := o.closePosition(ctx, position, price, event.Timestamp, reason)
		if err != nil {
			lastErr = err
		}

		closed = append(closed, trade)
	}

	return closed, lastErr
}

// instrumentBar returns the latest bar of the position's instrument at or
// before the event, keeping its own timestamp.
func (o *Orchestrator) instrumentBar(ctx context.Context, position *types.Position, event *types.MarketEvent) (types.Bar, bool) {
	if position.Instrument == event.Symbol {
		return *event.Bar, true
	}

	if o.prices == nil {
		return types.Bar{}, false
	}

	bar, err := o.prices.GetBar(ctx, position.Instrument, event.Timestamp)
	if err != nil {
		o.logger.Warn("Failed to fetch instrument bar",
			zap.String("instrument", position.Instrument),
			zap.Time("time", event.Timestamp),
			zap.Error(err),
		)

		return types.Bar{}, false
	}

	if bar.IsNone() {
		return types.Bar{}, false
	}

	return bar.Unwrap(), true
}

func (o *Orchestrator) checkExit(position *types.Position, bar types.Bar, now time.Time) (float64, types.ExitReason, bool) {
	if now.Sub(position.EntryTime) >= o.config.MaxHolding {
		return bar.Close, types.ExitReasonTimeExit, true
	}

	if !position.FreshBar(bar) {
		return 0, "", false
	}

	position.LastChecked = bar.Time

	if position.StopHit(bar) {
		if position.BreakEven {
			return position.StopLoss, types.ExitReasonBreakEven, true
		}

		return position.StopLoss, types.ExitReasonStopLoss, true
	}

	if position.TargetHit(bar) {
		return position.TakeProfit, types.ExitReasonTakeProfit, true
	}

	if !position.BreakEven && position.TargetDistance > 0 &&
		position.ProfitAt(bar.Close) >= o.config.BreakEvenFraction*position.TargetDistance {
		position.MoveStopTo(position.EntryPrice)
		position.BreakEven = true

		o.logger.Debug("Stop moved to entry",
			zap.String("instrument", position.Instrument),
			zap.String("pattern", position.PatternID),
			zap.Float64("stop_loss", position.StopLoss),
		)
	}

	return 0, "", false
}

// closePosition finalizes the trade and drops the position. Callers hold o.mu.
func (o *Orchestrator) closePosition(ctx context.Context, position *types.Position, price float64, at time.Time, reason types.ExitReason) (types.Trade, error) {
	trade := o.trades[position.TradeID]
	trade.Close(price, at, reason)

	delete(o.positions, position.Key())
	delete(o.trades, position.TradeID)

	o.logger.Info("Position closed",
		zap.String("pattern", position.PatternID),
		zap.String("instrument", position.Instrument),
		zap.String("reason", string(reason)),
		zap.String("outcome", string(trade.Outcome)),
		zap.Float64("exit", price),
		zap.Float64("pnl", trade.PnL),
	)

	if err := o.store.Close(ctx, trade); err != nil {
		return trade, errors.Wrapf(errors.ErrCodeTradeFailed, err, "failed to persist close of trade %s", trade.ID)
	}

	return trade, nil
}

func (o *Orchestrator) sortedKeys() []string {
	keys := make([]string, 0, len(o.positions))
	for k := range o.positions {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// OpenPositions returns a copy of every open position ordered by key.
func (o *Orchestrator) OpenPositions() []types.Position {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := make([]types.Position, 0, len(o.positions))
	for _, key := range o.sortedKeys() {
		result = append(result, *o.positions[key])
	}

	return result
}

// Position returns the open position of instrument opened by patternID.
func (o *Orchestrator) Position(instrument, patternID string) optional.Option[types.Position] {
	o.mu.Lock()
	defer o.mu.Unlock()

	position, ok := o.positions[types.PositionKey(instrument, patternID)]
	if !ok {
		return optional.None[types.Position]()
	}

	return optional.Some(*position)
}
