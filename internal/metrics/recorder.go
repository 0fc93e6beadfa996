package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes engine counters to Prometheus. A nil Recorder records nothing.
type Recorder struct {
	barsProcessed    *prometheus.CounterVec
	barsSkipped      *prometheus.CounterVec
	patternsFired    *prometheus.CounterVec
	tradesOpened     *prometheus.CounterVec
	tradesClosed     *prometheus.CounterVec
	expressionErrors *prometheus.CounterVec
	openPositions    prometheus.Gauge
	realizedPnL      *prometheus.GaugeVec
	passDuration     prometheus.Histogram
}

// New registers the engine metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Recorder{
		barsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argo_options_bars_processed_total",
				Help: "Bars that went through the pipeline",
			},
			[]string{"symbol"},
		),
		barsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argo_options_bars_skipped_total",
				Help: "Bars dropped before the pipeline",
			},
			[]string{"symbol", "reason"},
		),
		patternsFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argo_options_patterns_triggered_total",
				Help: "Pattern completions",
			},
			[]string{"pattern"},
		),
		tradesOpened: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argo_options_trades_opened_total",
				Help: "Positions opened",
			},
			[]string{"pattern", "side"},
		),
		tradesClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argo_options_trades_closed_total",
				Help: "Positions closed",
			},
			[]string{"reason", "outcome"},
		),
		expressionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argo_options_expression_errors_total",
				Help: "Pattern expressions that failed to evaluate",
			},
			[]string{"pattern"},
		),
		openPositions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "argo_options_open_positions",
				Help: "Currently open positions",
			},
		),
		realizedPnL: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "argo_options_realized_pnl",
				Help: "Realized profit and loss per underlying",
			},
			[]string{"underlying"},
		),
		passDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "argo_options_pass_duration_seconds",
				Help:    "Duration of one pipeline pass",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
	}
}

func (r *Recorder) BarProcessed(symbol string) {
	if r == nil {
		return
	}

	r.barsProcessed.WithLabelValues(symbol).Inc()
}

func (r *Recorder) BarSkipped(symbol, reason string) {
	if r == nil {
		return
	}

	r.barsSkipped.WithLabelValues(symbol, reason).Inc()
}

func (r *Recorder) PatternTriggered(patternID string) {
	if r == nil {
		return
	}

	r.patternsFired.WithLabelValues(patternID).Inc()
}

func (r *Recorder) TradeOpened(patternID, side string) {
	if r == nil {
		return
	}

	r.tradesOpened.WithLabelValues(patternID, side).Inc()
	r.openPositions.Inc()
}

// TradeClosed counts the exit and adds pnl to the underlying's realized total.
func (r *Recorder) TradeClosed(underlying, reason, outcome string, pnl float64) {
	if r == nil {
		return
	}

	r.tradesClosed.WithLabelValues(reason, outcome).Inc()
	r.openPositions.Dec()
	r.realizedPnL.WithLabelValues(underlying).Add(pnl)
}

func (r *Recorder) ExpressionError(patternID string) {
	if r == nil {
		return
	}

	r.expressionErrors.WithLabelValues(patternID).Inc()
}

// ObservePass records how long one pipeline pass took.
func (r *Recorder) ObservePass(d time.Duration) {
	if r == nil {
		return
	}

	r.passDuration.Observe(d.Seconds())
}
