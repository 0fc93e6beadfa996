package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
)

// IntervalDuration returns the bar length of interval.
func IntervalDuration(interval Interval) (time.Duration, error) {
	switch interval {
	case Interval1m:
		return time.Minute, nil
	case Interval3m:
		return 3 * time.Minute, nil
	case Interval5m:
		return 5 * time.Minute, nil
	case Interval15m:
		return 15 * time.Minute, nil
	case Interval30m:
		return 30 * time.Minute, nil
	case Interval1h:
		return time.Hour, nil
	case Interval1d:
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported interval: %s", interval)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}

func nullString(v optional.Option[string]) sql.NullString {
	if v.IsNone() {
		return sql.NullString{}
	}

	return sql.NullString{String: v.Unwrap(), Valid: true}
}

func nullFloat(v optional.Option[float64]) sql.NullFloat64 {
	if v.IsNone() {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: v.Unwrap(), Valid: true}
}
