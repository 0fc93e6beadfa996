package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/moznion/go-optional"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rxtech-lab/argo-options/internal/datasource"
	"github.com/rxtech-lab/argo-options/internal/engine"
	"github.com/rxtech-lab/argo-options/internal/execution"
	"github.com/rxtech-lab/argo-options/internal/feed"
	"github.com/rxtech-lab/argo-options/internal/instrument"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/metrics"
	"github.com/rxtech-lab/argo-options/internal/pattern"
	"github.com/rxtech-lab/argo-options/internal/session"
	"github.com/rxtech-lab/argo-options/internal/state"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// runtime holds the collaborators shared by the backtest and live commands.
type runtime struct {
	config   engine.Config
	defs     []*pattern.Definition
	store    *datasource.DuckDBStore
	resolver *instrument.Resolver
	trades   *state.TradeStore
	metrics  *metrics.Recorder
	logger   *logger.Logger
}

func openRuntime(ctx context.Context, config engine.Config, tradesFile string, reg prometheus.Registerer, log *logger.Logger) (*runtime, error) {
	defs, err := pattern.LoadDefinitions(config.PatternsDir)
	if err != nil {
		return nil, err
	}

	store, err := datasource.NewDuckDBStore(config.StoreFile, log.Named("store"),
		datasource.WithExchange(config.Exchange),
		datasource.WithPriceInterval(config.Interval))
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(); err != nil {
		store.Close()

		return nil, err
	}

	var indices []string
	for _, s := range config.Symbols {
		if config.Execution.IsIndex(s) {
			indices = append(indices, s)
		}
	}

	resolver := instrument.NewResolver(store, indices, log.Named("instrument"))
	if err := resolver.Initialize(ctx); err != nil {
		store.Close()

		return nil, err
	}

	trades := state.NewTradeStore(tradesFile, log.Named("trades"))
	if err := trades.Initialize(); err != nil {
		store.Close()

		return nil, err
	}

	return &runtime{
		config:   config,
		defs:     defs,
		store:    store,
		resolver: resolver,
		trades:   trades,
		metrics:  metrics.New(reg),
		logger:   log,
	}, nil
}

func (r *runtime) close() {
	if err := r.trades.Shutdown(); err != nil {
		r.logger.Warn("Failed to close trade store", zap.Error(err))
	}

	if err := r.store.Close(); err != nil {
		r.logger.Warn("Failed to close market store", zap.Error(err))
	}

	_ = r.logger.Sync()
}

func (r *runtime) newEngine() (*engine.Engine, error) {
	orchestrator := execution.NewOrchestrator(
		r.config.Execution,
		r.store,
		r.resolver,
		instrument.FixedDelta(r.config.Execution.DefaultDelta),
		r.trades,
		r.logger.Named("execution"),
	)

	return engine.New(r.config, r.defs, engine.Dependencies{
		Candles:      r.store,
		OptionChains: r.store,
		Sentiment:    r.store,
		Observer:     r.store,
		Orchestrator: orchestrator,
		Metrics:      r.metrics,
	}, r.logger.Named("engine"))
}

func (r *runtime) patternIDs() []string {
	ids := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		ids = append(ids, d.ID)
	}

	return ids
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	config, log, err := setup(cmd)
	if err != nil {
		return err
	}

	if cmd.IsSet("start") {
		config.StartTime = optional.Some(cmd.Timestamp("start"))
	}

	if cmd.IsSet("end") {
		config.EndTime = optional.Some(cmd.Timestamp("end"))
	}

	if symbols := cmd.StringSlice("symbol"); len(symbols) > 0 {
		config.Symbols = symbols
	}

	if err := config.Validate(); err != nil {
		return err
	}

	rt, err := openRuntime(ctx, config, "", prometheus.NewRegistry(), log)
	if err != nil {
		return err
	}
	defer rt.close()

	callbacks := engine.LifecycleCallbacks{}

	if !cmd.Bool("no-progress") {
		progress := newProgress()
		callbacks.OnRunStart = &progress.onStart
		callbacks.OnProcessBar = &progress.onBar

		defer progress.finish()
	}

	onEnd := engine.OnRunEndCallback(func(symbol string, err error) {
		if err != nil {
			log.Error("Backtest failed", zap.String("symbol", symbol), zap.Error(err))
		}
	})
	callbacks.OnRunEnd = &onEnd

	if err := engine.RunBacktests(ctx, config.Symbols, config.Workers, rt.newEngine, callbacks); err != nil {
		return err
	}

	run, err := session.NewRun(config.ResultsDir, time.Now())
	if err != nil {
		return err
	}

	stats, err := engine.WriteResults(ctx, rt.trades, run.Path(), rt.patternIDs())
	if err != nil {
		return err
	}

	for _, s := range stats {
		log.Info("Backtest result",
			zap.String("symbol", s.Symbol),
			zap.Int("trades", s.TradeResult.NumberOfTrades),
			zap.Float64("win_rate", s.TradeResult.WinRate),
			zap.Float64("realized_pnl", s.TradePnl.RealizedPnL),
			zap.Float64("max_drawdown", s.TradeResult.MaxDrawdown))
	}

	log.Info("Results written", zap.String("dir", run.Path()))

	return nil
}

// progress is one bar across all symbols; its total grows as runs start.
type progress struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	onStart engine.OnRunStartCallback
	onBar   engine.OnProcessBarCallback
}

func newProgress() *progress {
	p := &progress{
		bar: progressbar.NewOptions(0,
			progressbar.OptionSetDescription("Backtesting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("bars"),
			progressbar.OptionShowIts()),
	}

	p.onStart = func(_ string, total int) error {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.bar.ChangeMax(p.bar.GetMax() + total)

		return nil
	}

	p.onBar = func(string, int, int) error {
		return p.bar.Add(1)
	}

	return p
}

func (p *progress) finish() {
	_ = p.bar.Finish()
	fmt.Fprintln(os.Stderr)
}

func liveAction(ctx context.Context, cmd *cli.Command) error {
	config, log, err := setup(cmd)
	if err != nil {
		return err
	}

	if config.Feed.URL == "" {
		return errors.New("feed.url is required for live runs")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tradesFile := config.TradesFile
	if tradesFile == "" {
		run, err := session.NewRun(config.ResultsDir, time.Now())
		if err != nil {
			return err
		}

		tradesFile = run.File("trades.parquet")
	}

	rt, err := openRuntime(ctx, config, tradesFile, registry, log)
	if err != nil {
		return err
	}
	defer rt.close()

	if config.Feed.MetricsAddr != "" {
		server := &http.Server{
			Addr:              config.Feed.MetricsAddr,
			Handler:           newStatusRouter(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server failed", zap.Error(err))
			}
		}()

		defer server.Close()

		log.Info("Serving status", zap.String("addr", config.Feed.MetricsAddr))
	}

	e, err := rt.newEngine()
	if err != nil {
		return err
	}

	go reloadOnHangup(ctx, e, config.PatternsDir, log)

	stream := feed.NewWebsocketFeed(config.Feed.URL, config.Symbols, log.Named("feed"),
		feed.WithQueueSize(config.Feed.QueueSize))

	events, err := stream.Stream(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	onOpened := engine.OnTradeOpenedCallback(func(p types.Position) error {
		log.Info("Trade opened",
			zap.String("pattern", p.PatternID),
			zap.String("instrument", p.Instrument),
			zap.Float64("entry", p.EntryPrice))

		return nil
	})
	onClosed := engine.OnTradeClosedCallback(func(t types.Trade) error {
		log.Info("Trade closed",
			zap.String("pattern", t.PatternID),
			zap.String("instrument", t.Instrument),
			zap.String("reason", string(t.ExitReason)),
			zap.Float64("pnl", t.PnL))

		return nil
	})

	return e.RunLive(ctx, events, engine.LifecycleCallbacks{
		OnTradeOpened: &onOpened,
		OnTradeClosed: &onClosed,
	})
}

// reloadOnHangup reloads the pattern definitions on SIGHUP.
func reloadOnHangup(ctx context.Context, e *engine.Engine, dir string, log *logger.Logger) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			defs, err := pattern.LoadDefinitions(dir)
			if err != nil {
				log.Error("Pattern reload failed", zap.Error(err))

				continue
			}

			e.Reload(defs)
		}
	}
}

func importAction(ctx context.Context, cmd *cli.Command) error {
	config, log, err := setup(cmd)
	if err != nil {
		return err
	}

	store, err := datasource.NewDuckDBStore(config.StoreFile, log.Named("store"))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		return err
	}

	rows, err := store.ImportCandles(ctx, cmd.String("file"), config.Exchange, datasource.Interval(cmd.String("interval")))
	if err != nil {
		return err
	}

	log.Info("Import finished", zap.Int64("rows", rows))

	return nil
}

func runsAction(_ context.Context, cmd *cli.Command) error {
	config, _, err := setup(cmd)
	if err != nil {
		return err
	}

	dates, err := session.ListDates(config.ResultsDir)
	if err != nil {
		return err
	}

	for _, date := range dates {
		runs, err := session.ListRuns(config.ResultsDir, date)
		if err != nil {
			return err
		}

		for _, n := range runs {
			fmt.Fprintln(os.Stdout, filepath.Join(config.ResultsDir, date, fmt.Sprintf("run_%d", n)))
		}
	}

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	dir := cmd.String("out")

	schema, err := engine.GetConfigSchema()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	schemaName := "engine-config.json"
	if err := os.WriteFile(filepath.Join(dir, schemaName), []byte(schema), 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	patternSchema, err := pattern.GetDefinitionSchema()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, "pattern-schema.json"), []byte(patternSchema), 0644); err != nil {
		return fmt.Errorf("failed to write pattern schema: %w", err)
	}

	samplePath := filepath.Join(dir, "engine.yaml")
	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		sample := engine.DefaultConfig()
		sample.Symbols = []string{"NIFTY", "BANKNIFTY", "RELIANCE"}

		data, err := yaml.Marshal(sample)
		if err != nil {
			return fmt.Errorf("failed to encode sample config: %w", err)
		}

		data = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), data...)
		if err := os.WriteFile(samplePath, data, 0644); err != nil {
			return fmt.Errorf("failed to write sample config: %w", err)
		}
	}

	return nil
}
