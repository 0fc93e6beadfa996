package datasource

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/instrument"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
)

// DefaultCacheSize is the number of bars the price registry keeps per instrument.
const DefaultCacheSize = 500

// DuckDBStore is the local market store. It holds candles of indices and
// options, option chain snapshots, market stats and the instrument master.
type DuckDBStore struct {
	db            *sql.DB
	sq            squirrel.StatementBuilderType
	cache         *SlidingWindowCache
	exchange      string
	priceInterval Interval
	logger        *logger.Logger
}

// Option configures a DuckDBStore.
type Option func(*DuckDBStore)

// WithPriceInterval sets the candle interval used for instrument price lookups.
func WithPriceInterval(interval Interval) Option {
	return func(s *DuckDBStore) {
		s.priceInterval = interval
	}
}

// WithExchange sets the exchange used for instrument price lookups.
func WithExchange(exchange string) Option {
	return func(s *DuckDBStore) {
		s.exchange = exchange
	}
}

// WithCacheSize sets the per-instrument size of the price registry.
func WithCacheSize(size int) Option {
	return func(s *DuckDBStore) {
		s.cache = NewSlidingWindowCache(size)
	}
}

// NewDuckDBStore opens the store at path. An empty path opens an in-memory database.
func NewDuckDBStore(path string, log *logger.Logger, opts ...Option) (*DuckDBStore, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open market store %q", path)
	}

	s := &DuckDBStore{
		db:            db,
		sq:            squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cache:         NewSlidingWindowCache(DefaultCacheSize),
		exchange:      "NSE",
		priceInterval: Interval1m,
		logger:        log,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Initialize creates the store tables.
func (s *DuckDBStore) Initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS historical_candles (
			symbol TEXT,
			exchange TEXT,
			interval TEXT,
			timestamp TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			oi DOUBLE,
			PRIMARY KEY (symbol, exchange, interval, timestamp)
		)`,
		`CREATE TABLE IF NOT EXISTS option_chain_data (
			symbol TEXT,
			timestamp TIMESTAMP,
			strike DOUBLE,
			call_oi DOUBLE,
			put_oi DOUBLE,
			call_oi_chg DOUBLE,
			put_oi_chg DOUBLE,
			call_instrument_key TEXT,
			put_instrument_key TEXT,
			PRIMARY KEY (symbol, timestamp, strike)
		)`,
		`CREATE TABLE IF NOT EXISTS market_stats (
			symbol TEXT,
			timestamp TIMESTAMP,
			pcr DOUBLE,
			pcr_velocity DOUBLE,
			advances INTEGER,
			declines INTEGER,
			oi_wall_above DOUBLE,
			oi_wall_below DOUBLE,
			smart_trend TEXT,
			PRIMARY KEY (symbol, timestamp)
		)`,
		`CREATE TABLE IF NOT EXISTS instrument_master (
			instrument_key TEXT PRIMARY KEY,
			trading_symbol TEXT,
			underlying TEXT,
			option_type TEXT,
			strike DOUBLE,
			expiry DATE
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create market store tables", err)
		}
	}

	return nil
}

// Close releases the database.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

// Cache returns the price registry that fronts instrument price lookups.
func (s *DuckDBStore) Cache() *SlidingWindowCache {
	return s.cache
}

// Observe records a live bar in the price registry.
func (s *DuckDBStore) Observe(bar types.Bar) {
	s.cache.Add(bar)
}

// GetHistoricalCandles returns bars of symbol between from and to inclusive, ascending.
func (s *DuckDBStore) GetHistoricalCandles(ctx context.Context, symbol, exchange string, interval Interval, from, to time.Time) ([]types.Bar, error) {
	rows, err := s.sq.
		Select("symbol", "timestamp", "open", "high", "low", "close", "volume", "oi").
		From("historical_candles").
		Where(squirrel.Eq{"symbol": symbol, "exchange": exchange, "interval": string(interval)}).
		Where(squirrel.GtOrEq{"timestamp": from}).
		Where(squirrel.LtOrEq{"timestamp": to}).
		OrderBy("timestamp ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeHistoricalDataFailed, err, "failed to query candles of %s", symbol)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		var bar types.Bar
		if err := rows.Scan(&bar.Symbol, &bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &bar.OI); err != nil {
			return nil, errors.Wrap(errors.ErrCodeHistoricalDataFailed, "failed to scan candle", err)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeHistoricalDataFailed, "failed to iterate candles", err)
	}

	s.logger.Debug("Loaded candles",
		zap.String("symbol", symbol),
		zap.String("interval", string(interval)),
		zap.Int("count", len(bars)),
	)

	return bars, nil
}

// GetBar implements execution.PriceSource. An exact hit in the price
// registry is returned directly. Otherwise the latest stored bar of the same
// day is compared with the latest registered one and the newer is used.
func (s *DuckDBStore) GetBar(ctx context.Context, instrumentKey string, at time.Time) (optional.Option[types.Bar], error) {
	if bar, ok := s.cache.Get(instrumentKey, at); ok {
		return optional.Some(bar), nil
	}

	var bar types.Bar

	err := s.sq.
		Select("symbol", "timestamp", "open", "high", "low", "close", "volume", "oi").
		From("historical_candles").
		Where(squirrel.Eq{"symbol": instrumentKey, "exchange": s.exchange, "interval": string(s.priceInterval)}).
		Where(squirrel.GtOrEq{"timestamp": startOfDay(at)}).
		Where(squirrel.LtOrEq{"timestamp": at}).
		OrderBy("timestamp DESC").
		Limit(1).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&bar.Symbol, &bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &bar.OI)
	if err != nil && err != sql.ErrNoRows {
		return optional.None[types.Bar](), errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query price of %s", instrumentKey)
	}

	found := err == nil

	if cached, ok := s.cache.GetAtOrBefore(instrumentKey, at); ok && sameDay(cached.Time, at) {
		if !found || cached.Time.After(bar.Time) {
			return optional.Some(cached), nil
		}
	}

	if !found {
		return optional.None[types.Bar](), nil
	}

	s.cache.Add(bar)

	return optional.Some(bar), nil
}

// GetOptionChain returns the chain of symbol on date. Multiple snapshots of
// the day are merged per strike with the latest winning.
func (s *DuckDBStore) GetOptionChain(ctx context.Context, symbol string, date time.Time) (optional.Option[types.OptionChain], error) {
	day := startOfDay(date)

	rows, err := s.sq.
		Select("timestamp", "strike", "call_oi", "put_oi", "call_oi_chg", "put_oi_chg", "call_instrument_key", "put_instrument_key").
		From("option_chain_data").
		Where(squirrel.Eq{"symbol": symbol}).
		Where(squirrel.GtOrEq{"timestamp": day}).
		Where(squirrel.Lt{"timestamp": day.AddDate(0, 0, 1)}).
		OrderBy("timestamp ASC", "strike ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return optional.None[types.OptionChain](), errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query option chain of %s", symbol)
	}
	defer rows.Close()

	var (
		latest  time.Time
		strikes = make(map[float64]types.StrikeData)
	)

	for rows.Next() {
		var (
			ts            time.Time
			sd            types.StrikeData
			callKey, putK sql.NullString
		)

		if err := rows.Scan(&ts, &sd.Strike, &sd.CallOI, &sd.PutOI, &sd.CallOIChange, &sd.PutOIChange, &callKey, &putK); err != nil {
			return optional.None[types.OptionChain](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan option chain", err)
		}

		if callKey.Valid && callKey.String != "" {
			sd.CallInstrumentKey = optional.Some(callKey.String)
		}

		if putK.Valid && putK.String != "" {
			sd.PutInstrumentKey = optional.Some(putK.String)
		}

		strikes[sd.Strike] = sd
		latest = ts
	}

	if err := rows.Err(); err != nil {
		return optional.None[types.OptionChain](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate option chain", err)
	}

	if len(strikes) == 0 {
		return optional.None[types.OptionChain](), nil
	}

	chain := types.OptionChain{Symbol: symbol, Timestamp: latest}
	for _, sd := range strikes {
		chain.Strikes = append(chain.Strikes, sd)
	}

	sort.Slice(chain.Strikes, func(i, j int) bool { return chain.Strikes[i].Strike < chain.Strikes[j].Strike })

	return optional.Some(chain), nil
}

// GetClosestMarketStats returns the latest market stats of symbol not after
// ts within the same calendar day.
func (s *DuckDBStore) GetClosestMarketStats(ctx context.Context, symbol string, ts time.Time) (optional.Option[*types.Sentiment], error) {
	var (
		sentiment            = &types.Sentiment{Symbol: symbol}
		wallAbove, wallBelow sql.NullFloat64
		trend                sql.NullString
	)

	err := s.sq.
		Select("timestamp", "pcr", "pcr_velocity", "advances", "declines", "oi_wall_above", "oi_wall_below", "smart_trend").
		From("market_stats").
		Where(squirrel.Eq{"symbol": symbol}).
		Where(squirrel.GtOrEq{"timestamp": startOfDay(ts)}).
		Where(squirrel.LtOrEq{"timestamp": ts}).
		OrderBy("timestamp DESC").
		Limit(1).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&sentiment.Timestamp, &sentiment.PCR, &sentiment.PCRVelocity, &sentiment.Advances, &sentiment.Declines, &wallAbove, &wallBelow, &trend)
	if err == sql.ErrNoRows {
		return optional.None[*types.Sentiment](), nil
	}

	if err != nil {
		return optional.None[*types.Sentiment](), errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query market stats of %s", symbol)
	}

	if wallAbove.Valid && wallAbove.Float64 > 0 {
		sentiment.OIWallAbove = optional.Some(wallAbove.Float64)
	}

	if wallBelow.Valid && wallBelow.Float64 > 0 {
		sentiment.OIWallBelow = optional.Some(wallBelow.Float64)
	}

	if trend.Valid {
		if flow, ok := types.ParseOptionFlow(trend.String); ok {
			sentiment.Flow = optional.Some(flow)
		}
	}

	return optional.Some(sentiment), nil
}

// ListContracts implements instrument.Source.
func (s *DuckDBStore) ListContracts(ctx context.Context, underlying string) ([]instrument.Contract, error) {
	rows, err := s.sq.
		Select("instrument_key", "trading_symbol", "underlying", "option_type", "strike", "expiry").
		From("instrument_master").
		Where("upper(underlying) = upper(?)", underlying).
		Where(squirrel.Eq{"option_type": []string{string(types.OptionTypeCall), string(types.OptionTypePut)}}).
		OrderBy("expiry ASC", "strike ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query contracts of %s", underlying)
	}
	defer rows.Close()

	var contracts []instrument.Contract

	for rows.Next() {
		var (
			c          instrument.Contract
			optionType string
		)

		if err := rows.Scan(&c.InstrumentKey, &c.TradingSymbol, &c.Underlying, &optionType, &c.Strike, &c.Expiry); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan contract", err)
		}

		c.OptionType = types.OptionType(optionType)
		contracts = append(contracts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate contracts", err)
	}

	return contracts, nil
}

// StoreCandles upserts bars of one exchange and interval.
func (s *DuckDBStore) StoreCandles(ctx context.Context, exchange string, interval Interval, bars []types.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	q := s.sq.
		Insert("historical_candles").
		Options("OR REPLACE").
		Columns("symbol", "exchange", "interval", "timestamp", "open", "high", "low", "close", "volume", "oi")

	for _, bar := range bars {
		q = q.Values(bar.Symbol, exchange, string(interval), bar.Time, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, bar.OI)
	}

	if _, err := q.RunWith(s.db).ExecContext(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to store candles", err)
	}

	return nil
}

// StoreOptionChain upserts one option chain snapshot.
func (s *DuckDBStore) StoreOptionChain(ctx context.Context, chain types.OptionChain) error {
	if len(chain.Strikes) == 0 {
		return nil
	}

	q := s.sq.
		Insert("option_chain_data").
		Options("OR REPLACE").
		Columns("symbol", "timestamp", "strike", "call_oi", "put_oi", "call_oi_chg", "put_oi_chg", "call_instrument_key", "put_instrument_key")

	for _, sd := range chain.Strikes {
		q = q.Values(chain.Symbol, chain.Timestamp, sd.Strike, sd.CallOI, sd.PutOI, sd.CallOIChange, sd.PutOIChange,
			nullString(sd.CallInstrumentKey), nullString(sd.PutInstrumentKey))
	}

	if _, err := q.RunWith(s.db).ExecContext(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to store option chain", err)
	}

	return nil
}

// StoreMarketStats upserts a sentiment snapshot.
func (s *DuckDBStore) StoreMarketStats(ctx context.Context, sentiment types.Sentiment) error {
	var trend sql.NullString
	if sentiment.Flow.IsSome() {
		trend = sql.NullString{String: string(sentiment.Flow.Unwrap()), Valid: true}
	}

	_, err := s.sq.
		Insert("market_stats").
		Options("OR REPLACE").
		Columns("symbol", "timestamp", "pcr", "pcr_velocity", "advances", "declines", "oi_wall_above", "oi_wall_below", "smart_trend").
		Values(sentiment.Symbol, sentiment.Timestamp, sentiment.PCR, sentiment.PCRVelocity, sentiment.Advances, sentiment.Declines,
			nullFloat(sentiment.OIWallAbove), nullFloat(sentiment.OIWallBelow), trend).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to store market stats", err)
	}

	return nil
}

// StoreContracts upserts instrument master rows.
func (s *DuckDBStore) StoreContracts(ctx context.Context, contracts []instrument.Contract) error {
	if len(contracts) == 0 {
		return nil
	}

	q := s.sq.
		Insert("instrument_master").
		Options("OR REPLACE").
		Columns("instrument_key", "trading_symbol", "underlying", "option_type", "strike", "expiry")

	for _, c := range contracts {
		q = q.Values(c.InstrumentKey, c.TradingSymbol, c.Underlying, string(c.OptionType), c.Strike, c.Expiry)
	}

	if _, err := q.RunWith(s.db).ExecContext(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to store contracts", err)
	}

	return nil
}
