package types

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type TradeHoldingTime struct {
	// Minimum holding time of a trade in seconds
	Min int `yaml:"min"`
	// Maximum holding time of a trade in seconds
	Max int `yaml:"max"`
	// Average holding time of a trade in seconds
	Avg int `yaml:"avg"`
}

type TradePnl struct {
	// Realized PnL. Sum of closed trades' per-unit pnl times quantity.
	RealizedPnL float64 `yaml:"realized_pnl"`
	// Maximum loss. Minimum realized pnl of a single trade.
	MaximumLoss float64 `yaml:"maximum_loss"`
	// Maximum profit. Maximum realized pnl of a single trade.
	MaximumProfit float64 `yaml:"maximum_profit"`
}

type TradeResult struct {
	// Count of closed trades.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of trades with outcome WIN.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of trades with outcome LOSS.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Trades still open when the run ended.
	NumberOfOpenTrades int `yaml:"number_of_open_trades"`
	// Win rate.
	WinRate float64 `yaml:"win_rate"`
	// Maximum drawdown of the cumulative realized pnl curve.
	MaxDrawdown float64 `yaml:"max_drawdown"`
}

type TradeStats struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the underlying.
	Symbol string `yaml:"symbol"`
	// Result of all trades.
	TradeResult TradeResult `yaml:"trade_result"`
	// Holding time of all trades.
	TradeHoldingTime TradeHoldingTime `yaml:"trade_holding_time"`
	// PnL of all trades.
	TradePnl TradePnl `yaml:"trade_pnl"`
	// Exit counts keyed by exit reason.
	ExitReasons map[ExitReason]int `yaml:"exit_reasons"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path" json:"trades_file_path"`
	// Patterns lists the pattern ids that were loaded for the run.
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// CalculateTradeStats summarizes the trades of one underlying.
func CalculateTradeStats(symbol string, trades []Trade) TradeStats {
	stats := TradeStats{
		Symbol:      symbol,
		ExitReasons: map[ExitReason]int{},
	}

	closed := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if t.Underlying != symbol {
			continue
		}

		if t.Status != TradeStatusClosed {
			stats.TradeResult.NumberOfOpenTrades++

			continue
		}

		closed = append(closed, t)
	}

	sort.Slice(closed, func(i, j int) bool {
		return closed[i].ExitTime.Unwrap().Before(closed[j].ExitTime.Unwrap())
	})

	realized := decimal.Zero
	peak := decimal.Zero
	maxDrawdown := decimal.Zero
	totalHolding := 0

	for i, t := range closed {
		pnl := decimal.NewFromFloat(t.PnL).Mul(decimal.NewFromFloat(t.Quantity))
		realized = realized.Add(pnl)

		if realized.GreaterThan(peak) {
			peak = realized
		}

		if dd := peak.Sub(realized); dd.GreaterThan(maxDrawdown) {
			maxDrawdown = dd
		}

		value := pnl.InexactFloat64()
		if i == 0 || value > stats.TradePnl.MaximumProfit {
			stats.TradePnl.MaximumProfit = value
		}

		if i == 0 || value < stats.TradePnl.MaximumLoss {
			stats.TradePnl.MaximumLoss = value
		}

		holding := int(t.HoldingTime().Seconds())
		if i == 0 || holding < stats.TradeHoldingTime.Min {
			stats.TradeHoldingTime.Min = holding
		}

		if holding > stats.TradeHoldingTime.Max {
			stats.TradeHoldingTime.Max = holding
		}

		totalHolding += holding

		if t.Outcome == TradeOutcomeWin {
			stats.TradeResult.NumberOfWinningTrades++
		} else {
			stats.TradeResult.NumberOfLosingTrades++
		}

		stats.ExitReasons[t.ExitReason]++
	}

	stats.TradeResult.NumberOfTrades = len(closed)
	stats.TradeResult.MaxDrawdown = maxDrawdown.InexactFloat64()
	stats.TradePnl.RealizedPnL = realized.InexactFloat64()

	if len(closed) > 0 {
		stats.TradeResult.WinRate = float64(stats.TradeResult.NumberOfWinningTrades) / float64(len(closed))
		stats.TradeHoldingTime.Avg = totalHolding / len(closed)
	}

	return stats
}

func WriteTradeStats(path string, stats []TradeStats) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal trade stats to YAML: %w", err)
	}

	// Write the YAML data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trade stats to file: %w", err)
	}

	return nil
}
