package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

var tradeColumns = []string{
	"id", "pattern_id", "underlying", "instrument", "side", "quantity",
	"entry_time", "entry_price", "stop_loss", "take_profit",
	"status", "outcome", "exit_time", "exit_price", "exit_reason", "pnl",
}

// TradeStore keeps trade records in an in-memory DuckDB table. When an output
// path is set, every change is mirrored to a parquet file and existing records
// are loaded from it on Initialize.
type TradeStore struct {
	mu         sync.Mutex
	db         *sql.DB
	sq         squirrel.StatementBuilderType
	outputPath string
	logger     *logger.Logger
}

// NewTradeStore creates a store. outputPath may be empty.
func NewTradeStore(outputPath string, log *logger.Logger) *TradeStore {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &TradeStore{
		sq:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		outputPath: outputPath,
		logger:     log,
	}
}

// Initialize opens the database and creates the trades table.
func (s *TradeStore) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB connection", err)
	}

	s.db = db

	if err := s.createTable(); err != nil {
		s.db.Close()
		s.db = nil

		return err
	}

	if s.outputPath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create data directory", err)
	}

	if _, err := os.Stat(s.outputPath); err == nil {
		_, err = s.db.Exec(fmt.Sprintf(`INSERT INTO trades SELECT * FROM read_parquet('%s')`, s.outputPath))
		if err != nil {
			s.logger.Warn("Failed to load existing trades, starting fresh",
				zap.String("path", s.outputPath),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (s *TradeStore) createTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			pattern_id TEXT,
			underlying TEXT,
			instrument TEXT,
			side TEXT,
			quantity DOUBLE,
			entry_time TIMESTAMP,
			entry_price DOUBLE,
			stop_loss DOUBLE,
			take_profit DOUBLE,
			status TEXT,
			outcome TEXT,
			exit_time TIMESTAMP,
			exit_price DOUBLE,
			exit_reason TEXT,
			pnl DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create trades table", err)
	}

	return nil
}

// Open implements execution.TradeStore.
func (s *TradeStore) Open(ctx context.Context, trade types.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "trade store not initialized")
	}

	_, err := s.sq.
		Insert("trades").
		Columns(tradeColumns...).
		Values(
			trade.ID, trade.PatternID, trade.Underlying, trade.Instrument, string(trade.Side), trade.Quantity,
			trade.EntryTime, trade.EntryPrice, trade.StopLoss, trade.TakeProfit,
			string(trade.Status), string(trade.Outcome), nullTime(trade.ExitTime), nullFloat(trade.ExitPrice),
			string(trade.ExitReason), trade.PnL,
		).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to insert trade %s", trade.ID)
	}

	return s.export()
}

// Close implements execution.TradeStore.
func (s *TradeStore) Close(ctx context.Context, trade types.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "trade store not initialized")
	}

	result, err := s.sq.
		Update("trades").
		Set("stop_loss", trade.StopLoss).
		Set("status", string(trade.Status)).
		Set("outcome", string(trade.Outcome)).
		Set("exit_time", nullTime(trade.ExitTime)).
		Set("exit_price", nullFloat(trade.ExitPrice)).
		Set("exit_reason", string(trade.ExitReason)).
		Set("pnl", trade.PnL).
		Where(squirrel.Eq{"id": trade.ID}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to update trade %s", trade.ID)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "trade %s not found", trade.ID)
	}

	return s.export()
}

// Trades implements execution.TradeStore. Records are ordered by entry time.
func (s *TradeStore) Trades(ctx context.Context) ([]types.Trade, error) {
	return s.query(ctx, nil)
}

// TradesFor returns the trades of one underlying.
func (s *TradeStore) TradesFor(ctx context.Context, underlying string) ([]types.Trade, error) {
	return s.query(ctx, squirrel.Eq{"underlying": underlying})
}

func (s *TradeStore) query(ctx context.Context, where squirrel.Sqlizer) ([]types.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "trade store not initialized")
	}

	q := s.sq.Select(tradeColumns...).From("trades").OrderBy("entry_time ASC", "id ASC")
	if where != nil {
		q = q.Where(where)
	}

	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var (
			trade                             types.Trade
			side, status, outcome, exitReason string
			exitTime                          sql.NullTime
			exitPrice                         sql.NullFloat64
		)

		err := rows.Scan(
			&trade.ID, &trade.PatternID, &trade.Underlying, &trade.Instrument, &side, &trade.Quantity,
			&trade.EntryTime, &trade.EntryPrice, &trade.StopLoss, &trade.TakeProfit,
			&status, &outcome, &exitTime, &exitPrice, &exitReason, &trade.PnL,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.Side = types.Side(side)
		trade.Status = types.TradeStatus(status)
		trade.Outcome = types.TradeOutcome(outcome)
		trade.ExitReason = types.ExitReason(exitReason)

		if exitTime.Valid {
			trade.ExitTime = optional.Some(exitTime.Time)
		}

		if exitPrice.Valid {
			trade.ExitPrice = optional.Some(exitPrice.Float64)
		}

		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate trades", err)
	}

	return trades, nil
}

// Write exports all trades to dir/trades.parquet.
func (s *TradeStore) Write(dir string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return "", errors.New(errors.ErrCodeDataSourceUnavailable, "trade store not initialized")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to create results directory", err)
	}

	path := filepath.Join(dir, "trades.parquet")
	if err := s.copyTo(path); err != nil {
		return "", err
	}

	s.logger.Info("Exported trades to Parquet", zap.String("path", path))

	return path, nil
}

// Cleanup drops every stored trade.
func (s *TradeStore) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	if _, err := s.db.Exec(`DROP TABLE IF EXISTS trades`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop trades table", err)
	}

	return s.createTable()
}

// Shutdown releases the database.
func (s *TradeStore) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to close database", err)
	}

	return nil
}

// export mirrors the table to the output path. Callers hold s.mu.
func (s *TradeStore) export() error {
	if s.outputPath == "" {
		return nil
	}

	return s.copyTo(s.outputPath)
}

func (s *TradeStore) copyTo(path string) error {
	_, err := s.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM trades ORDER BY entry_time ASC, id ASC) TO '%s' (FORMAT PARQUET)`, path))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export trades to %s", path)
	}

	return nil
}

func nullTime(v optional.Option[time.Time]) sql.NullTime {
	if v.IsNone() {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: v.Unwrap(), Valid: true}
}

func nullFloat(v optional.Option[float64]) sql.NullFloat64 {
	if v.IsNone() {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: v.Unwrap(), Valid: true}
}
