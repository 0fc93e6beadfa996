package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-options/internal/engine"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/version"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"
)

func main() {
	cmd := &cli.Command{
		Name:    "argo-options",
		Version: version.GetVersion(),
		Usage:   "Run candlestick patterns on indices and stocks, trading index signals through ATM options",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the engine config `FILE`",
				Value:   "config/engine.yaml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "backtest",
				Usage: "Replay stored candles through the patterns and write trades and stats",
				Flags: []cli.Flag{
					&cli.TimestampFlag{
						Name:    "start",
						Aliases: []string{"s"},
						Usage:   "Start of the period in `YYYY-MM-DD` format. Overrides start_time",
						Config:  cli.TimestampConfig{Layouts: []string{"2006-01-02", time.RFC3339}},
					},
					&cli.TimestampFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "End of the period in `YYYY-MM-DD` format. Overrides end_time",
						Config:  cli.TimestampConfig{Layouts: []string{"2006-01-02", time.RFC3339}},
					},
					&cli.StringSliceFlag{
						Name:  "symbol",
						Usage: "Symbols to backtest. Overrides symbols",
					},
					&cli.BoolFlag{
						Name:  "no-progress",
						Usage: "Hide the progress bar",
					},
				},
				Action: backtestAction,
			},
			{
				Name:   "live",
				Usage:  "Stream market events from the feed and trade them",
				Action: liveAction,
			},
			{
				Name:  "import",
				Usage: "Load candles from a CSV or Parquet file into the market store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "CSV or Parquet `FILE` with symbol, time, open, high, low, close, volume and optional oi columns",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "interval",
						Usage: "Candle interval of the file",
						Value: "1m",
					},
				},
				Action: importAction,
			},
			{
				Name:   "runs",
				Usage:  "List the result folders under results_dir",
				Action: runsAction,
			},
			{
				Name:  "schema",
				Usage: "Write the config and pattern JSON schemas and a sample config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output `DIR`",
						Value: "config",
					},
				},
				Action: schemaAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup reads the logger level and config shared by all commands.
func setup(cmd *cli.Command) (engine.Config, *logger.Logger, error) {
	level, err := zapcore.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return engine.Config{}, nil, fmt.Errorf("invalid log level: %w", err)
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return engine.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	config, err := engine.LoadConfig(cmd.String("config"))
	if err != nil {
		return engine.Config{}, nil, err
	}

	return config, log, nil
}
