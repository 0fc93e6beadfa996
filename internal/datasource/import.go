package datasource

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

// candleColumns must exist in an imported file; oi is optional.
var candleColumns = []string{"symbol", "time", "open", "high", "low", "close", "volume"}

// ImportCandles loads bars from a CSV or Parquet file into the store and
// returns the number of rows written. The file needs the columns symbol,
// time, open, high, low, close and volume; a missing oi column reads as 0.
func (s *DuckDBStore) ImportCandles(ctx context.Context, path, exchange string, interval Interval) (int64, error) {
	if _, err := IntervalDuration(interval); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid import interval", err)
	}

	reader, err := fileReader(path)
	if err != nil {
		return 0, err
	}

	columns, err := s.describe(ctx, reader)
	if err != nil {
		return 0, err
	}

	for _, c := range candleColumns {
		if !columns[c] {
			return 0, errors.Newf(errors.ErrCodeInvalidParameter, "%s has no %q column", path, c)
		}
	}

	oi := "0"
	if columns["oi"] {
		oi = `CAST("oi" AS DOUBLE)`
	}

	// the reader cannot be a bound parameter
	query := fmt.Sprintf(`INSERT OR REPLACE INTO historical_candles
		SELECT CAST("symbol" AS TEXT), ?, ?, CAST("time" AS TIMESTAMP),
			CAST("open" AS DOUBLE), CAST("high" AS DOUBLE), CAST("low" AS DOUBLE), CAST("close" AS DOUBLE),
			CAST("volume" AS DOUBLE), %s
		FROM %s`, oi, reader)

	result, err := s.db.ExecContext(ctx, query, exchange, string(interval))
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to import %s", path)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		rows = -1
	}

	s.logger.Info("Imported candles",
		zap.String("path", path),
		zap.String("exchange", exchange),
		zap.String("interval", string(interval)),
		zap.Int64("rows", rows))

	return rows, nil
}

func fileReader(path string) (string, error) {
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "read_csv_auto(" + quoted + ")", nil
	case ".parquet":
		return "read_parquet(" + quoted + ")", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported candle file %s", path)
	}
}

func (s *DuckDBStore) describe(ctx context.Context, reader string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "DESCRIBE SELECT * FROM "+reader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read file schema", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read file schema", err)
	}

	columns := make(map[string]bool)

	for rows.Next() {
		values := make([]any, len(cols))
		for i := range values {
			values[i] = new(any)
		}

		if err := rows.Scan(values...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan file schema", err)
		}

		// column_name is the first DESCRIBE column
		if name, ok := (*values[0].(*any)).(string); ok {
			columns[strings.ToLower(name)] = true
		}
	}

	return columns, rows.Err()
}
