package engine

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-options/internal/datasource"
	"github.com/rxtech-lab/argo-options/internal/engine/cache"
	"github.com/rxtech-lab/argo-options/internal/execution"
	"github.com/rxtech-lab/argo-options/internal/indicator"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/metrics"
	"github.com/rxtech-lab/argo-options/internal/pattern"
	"github.com/rxtech-lab/argo-options/internal/sentiment"
	"github.com/rxtech-lab/argo-options/internal/structure"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

// Dependencies are the collaborators of an Engine. Only Orchestrator is
// required; missing sources skip the enrichment they provide.
type Dependencies struct {
	Candles      CandleSource
	OptionChains OptionChainSource
	Sentiment    SentimentSource
	Observer     PriceObserver
	Orchestrator *execution.Orchestrator
	Metrics      *metrics.Recorder
}

// Engine runs market events through the pipeline stages: market structure,
// option chain, sentiment, pattern matching and execution. An Engine is not
// safe for concurrent use; run one per symbol stream.
type Engine struct {
	config       Config
	structures   *structure.Registry
	chains       *cache.OptionChainCache
	classifier   *sentiment.Classifier
	matcher      *pattern.Matcher
	orchestrator *execution.Orchestrator
	candles      CandleSource
	chainSource  OptionChainSource
	sentiments   SentimentSource
	observer     PriceObserver
	liveBars     *datasource.SlidingWindowCache
	lastBar      map[string]time.Time
	stages       []stage
	metrics      *metrics.Recorder
	logger       *logger.Logger
}

// pass carries one event through the stages.
type pass struct {
	event     *types.MarketEvent
	callbacks LifecycleCallbacks
	triggered []*pattern.StateMachine
	tracked   bool
}

type stage struct {
	name string
	run  func(ctx context.Context, p *pass) error
}

// New creates an engine for the given pattern definitions.
func New(config Config, defs []*pattern.Definition, deps Dependencies, log *logger.Logger) (*Engine, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if deps.Orchestrator == nil {
		return nil, errors.New(errors.ErrCodeEngineInitFailed, "engine needs an orchestrator")
	}

	if len(defs) == 0 {
		return nil, errors.New(errors.ErrCodeNoPatterns, "no pattern definitions loaded")
	}

	e := &Engine{
		config:       config,
		structures:   structure.NewRegistry(config.StructureWindow, config.MaxPivots),
		chains:       cache.NewOptionChainCache(),
		classifier:   sentiment.NewClassifier(config.Sentiment),
		matcher:      pattern.NewMatcher(defs, config.HistoryCapacity, log.Named("pattern")),
		orchestrator: deps.Orchestrator,
		candles:      deps.Candles,
		chainSource:  deps.OptionChains,
		sentiments:   deps.Sentiment,
		observer:     deps.Observer,
		liveBars:     datasource.NewSlidingWindowCache(max(config.ATRPeriod, indicator.DefaultATRPeriod) + 1),
		lastBar:      make(map[string]time.Time),
		metrics:      deps.Metrics,
		logger:       log,
	}

	e.matcher.SetErrorHook(func(patternID string, _ error) {
		e.metrics.ExpressionError(patternID)
	})

	e.stages = []stage{
		{name: "structure", run: e.structureStage},
		{name: "option_chain", run: e.optionChainStage},
		{name: "sentiment", run: e.sentimentStage},
		{name: "matcher", run: e.matcherStage},
		{name: "execution", run: e.executionStage},
	}

	return e, nil
}

// Matcher returns the pattern matcher.
func (e *Engine) Matcher() *pattern.Matcher {
	return e.matcher
}

// Structures returns the per-symbol market structure trackers.
func (e *Engine) Structures() *structure.Registry {
	return e.structures
}

// Chains returns the option chain and sentiment cache.
func (e *Engine) Chains() *cache.OptionChainCache {
	return e.chains
}

// Reload swaps the pattern definitions without losing the states of
// patterns that still exist.
func (e *Engine) Reload(defs []*pattern.Definition) {
	e.matcher.Reload(defs)
}

// Reset clears per-run state so the engine can run another backtest.
func (e *Engine) Reset() {
	e.chains.Reset()
	e.liveBars.Clear()
	e.lastBar = make(map[string]time.Time)
	e.structures = structure.NewRegistry(e.config.StructureWindow, e.config.MaxPivots)
}

// ProcessEvent runs one event through the pipeline. Sentiment and option
// chain updates only refresh the cache. Bars of symbols that are not
// configured only drive exits of open positions. The returned error comes
// from a callback and should stop the run.
func (e *Engine) ProcessEvent(ctx context.Context, event *types.MarketEvent, callbacks LifecycleCallbacks) error {
	if event.IsStop() {
		return nil
	}

	switch event.Type {
	case types.EventTypeSentimentUpdate:
		if event.Sentiment != nil {
			e.classifier.Classify(event.Sentiment)
			e.chains.SetSentiment(event.Sentiment)
		}

		return nil
	case types.EventTypeOptionChainUpdate:
		if event.OptionChain != nil {
			e.chains.Update(*event.OptionChain)
		}

		return nil
	}

	if !event.HasBar() {
		return nil
	}

	if event.Symbol == "" {
		event.Symbol = event.Bar.Symbol
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = event.Bar.Time
	}

	if last, ok := e.lastBar[event.Symbol]; ok && !event.Bar.Time.After(last) {
		e.logger.Warn("Skipping out-of-order bar",
			zap.String("symbol", event.Symbol),
			zap.Time("time", event.Bar.Time),
			zap.Time("last", last))
		e.metrics.BarSkipped(event.Symbol, "out_of_order")

		return nil
	}

	e.lastBar[event.Symbol] = event.Bar.Time

	start := time.Now()
	defer func() { e.metrics.ObservePass(time.Since(start)) }()

	p := &pass{
		event:     event,
		callbacks: callbacks,
		tracked:   e.tracks(event.Symbol),
	}

	if !p.tracked {
		return e.exits(ctx, p)
	}

	e.attachSentiment(ctx, event)

	for _, s := range e.stages {
		if err := s.run(ctx, p); err != nil {
			return err
		}
	}

	e.metrics.BarProcessed(event.Symbol)

	return nil
}

func (e *Engine) tracks(symbol string) bool {
	return slices.ContainsFunc(e.config.Symbols, func(s string) bool {
		return strings.EqualFold(s, symbol)
	})
}

// attachSentiment fills the event's sentiment with the closest snapshot of
// the same day, from the source when there is one and the cache otherwise.
func (e *Engine) attachSentiment(ctx context.Context, event *types.MarketEvent) {
	if event.Sentiment != nil {
		return
	}

	if e.sentiments != nil {
		snapshot, err := e.sentiments.GetClosestMarketStats(ctx, event.Symbol, event.Timestamp)
		if err != nil {
			e.logger.Warn("Failed to load market stats",
				zap.String("symbol", event.Symbol),
				zap.Time("time", event.Timestamp),
				zap.Error(err))
		} else if snapshot.IsSome() {
			event.Sentiment = snapshot.Unwrap()

			return
		}
	}

	if cached := e.chains.Sentiment(event.Symbol); cached.IsSome() {
		s := cached.Unwrap()
		if sameDay(s.Timestamp, event.Timestamp) && !s.Timestamp.After(event.Timestamp) {
			event.Sentiment = s
		}
	}
}

func (e *Engine) structureStage(_ context.Context, p *pass) error {
	snapshot := e.structures.OnBar(*p.event.Bar, p.event.Sentiment)
	p.event.Structure = &snapshot

	return nil
}

// optionChainStage loads the day's chain once per symbol and day, and
// exposes the cached chain on the event.
func (e *Engine) optionChainStage(ctx context.Context, p *pass) error {
	event := p.event

	if event.OptionChain != nil {
		e.chains.Update(*event.OptionChain)
	}

	if e.chainSource != nil && !e.chains.DayLoaded(event.Symbol, event.Timestamp) {
		chain, err := e.chainSource.GetOptionChain(ctx, event.Symbol, event.Timestamp)
		if err != nil {
			e.logger.Warn("Failed to load option chain",
				zap.String("symbol", event.Symbol),
				zap.Time("date", event.Timestamp),
				zap.Error(err))
		} else if chain.IsSome() {
			e.chains.Update(chain.Unwrap())
		}

		e.chains.MarkDayLoaded(event.Symbol, event.Timestamp)
	}

	if cached := e.chains.Get(event.Symbol); cached.IsSome() {
		chain := cached.Unwrap()
		event.OptionChain = &chain
	}

	return nil
}

// sentimentStage classifies the event's sentiment. Without a snapshot the
// regime falls back to the market structure.
func (e *Engine) sentimentStage(_ context.Context, p *pass) error {
	event := p.event

	if event.Sentiment != nil {
		event.Regime = e.classifier.Classify(event.Sentiment)
		e.chains.SetSentiment(event.Sentiment)

		return nil
	}

	event.Regime = types.RegimeSideways
	if event.Structure != nil && event.Structure.Regime != "" {
		event.Regime = event.Structure.Regime
	}

	return nil
}

func (e *Engine) matcherStage(_ context.Context, p *pass) error {
	event := p.event

	p.triggered = e.matcher.OnBar(pattern.Input{
		Bar:       *event.Bar,
		Sentiment: event.Sentiment,
		Screener:  event.Screener,
		Regime:    event.Regime,
		Structure: event.Structure,
	})

	for _, sm := range p.triggered {
		e.metrics.PatternTriggered(sm.Definition().ID)
	}

	return nil
}

// executionStage checks exits of open positions first, then opens
// positions for the patterns that fired on this bar.
func (e *Engine) executionStage(ctx context.Context, p *pass) error {
	// every triggered machine starts over, even when a callback aborts the pass
	defer func() {
		for _, sm := range p.triggered {
			sm.Reset()
		}
	}()

	if err := e.exits(ctx, p); err != nil {
		return err
	}

	for _, sm := range p.triggered {
		position, err := e.orchestrator.ExecuteTrade(ctx, execution.NewTradeRequest(sm, p.event.Regime))
		if err != nil {
			e.logger.Warn("Trade not executed",
				zap.String("pattern", sm.Definition().ID),
				zap.String("symbol", sm.Symbol()),
				zap.Error(err))
			p.callbacks.reportError(err)

			continue
		}

		if position.IsNone() {
			continue
		}

		opened := position.Unwrap()
		e.metrics.TradeOpened(opened.PatternID, string(opened.Side))

		if err := p.callbacks.tradeOpened(opened); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "trade opened callback failed", err)
		}
	}

	return nil
}

func (e *Engine) exits(ctx context.Context, p *pass) error {
	closed, err := e.orchestrator.OnBar(ctx, p.event)
	if err != nil {
		e.logger.Warn("Failed to process exits",
			zap.String("symbol", p.event.Symbol),
			zap.Error(err))
		p.callbacks.reportError(err)
	}

	for _, trade := range closed {
		e.metrics.TradeClosed(trade.Underlying, string(trade.ExitReason), string(trade.Outcome), trade.PnL*trade.Quantity)

		if err := p.callbacks.tradeClosed(trade); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "trade closed callback failed", err)
		}
	}

	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}
