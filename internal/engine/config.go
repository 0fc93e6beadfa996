package engine

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/datasource"
	"github.com/rxtech-lab/argo-options/internal/execution"
	"github.com/rxtech-lab/argo-options/internal/indicator"
	"github.com/rxtech-lab/argo-options/internal/pattern"
	"github.com/rxtech-lab/argo-options/internal/sentiment"
	"github.com/rxtech-lab/argo-options/internal/structure"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/rxtech-lab/argo-options/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Config is the engine configuration file.
type Config struct {
	Symbols   []string            `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=Underlyings to run patterns on" validate:"required,min=1,dive,required"`
	Exchange  string              `yaml:"exchange" json:"exchange" jsonschema:"title=Exchange,default=NSE" validate:"required"`
	Interval  datasource.Interval `yaml:"interval" json:"interval" jsonschema:"title=Candle interval,enum=1m,enum=3m,enum=5m,enum=15m,enum=30m,enum=1h,enum=1d,default=1m" validate:"required"`
	StartTime optional.Option[time.Time] `yaml:"-" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the backtest period"`
	EndTime   optional.Option[time.Time] `yaml:"-" json:"end_time" jsonschema:"title=End Time,description=Optional end of the backtest period"`

	PatternsDir string `yaml:"patterns_dir" json:"patterns_dir" jsonschema:"title=Patterns directory,description=Directory of JSON or YAML pattern definitions" validate:"required"`
	ResultsDir  string `yaml:"results_dir" json:"results_dir" jsonschema:"title=Results directory,description=Where trades and stats are written"`
	StoreFile   string `yaml:"store_file" json:"store_file" jsonschema:"title=Market store,description=DuckDB file with candles and option data. Empty opens an in-memory store"`
	StateFile   string `yaml:"state_file" json:"state_file" jsonschema:"title=Pattern state file,description=Live pattern states are restored from and saved to this file"`
	TradesFile  string `yaml:"trades_file" json:"trades_file" jsonschema:"title=Live trades file,description=Parquet file mirroring live trades. Defaults to a new run folder under the results directory"`

	Workers         int `yaml:"workers" json:"workers" jsonschema:"title=Workers,description=Symbols backtested in parallel,minimum=1,default=4" validate:"gte=1"`
	HistoryCapacity int `yaml:"history_capacity" json:"history_capacity" jsonschema:"title=Pattern history,description=Bars kept per pattern state machine,minimum=1,default=200" validate:"gte=1"`
	StructureWindow int `yaml:"structure_window" json:"structure_window" jsonschema:"title=Pivot window,description=Bars on each side of a pivot,minimum=1,default=5" validate:"gte=1"`
	MaxPivots       int `yaml:"max_pivots" json:"max_pivots" jsonschema:"title=Max pivots,minimum=2,default=10" validate:"gte=2"`
	ATRPeriod       int `yaml:"atr_period" json:"atr_period" jsonschema:"title=ATR period,minimum=1,default=14" validate:"gte=1"`

	Sentiment sentiment.Thresholds `yaml:"sentiment" json:"sentiment" jsonschema:"title=PCR thresholds"`
	Execution execution.Config     `yaml:"execution" json:"execution" jsonschema:"title=Execution"`
	Feed      FeedConfig           `yaml:"feed" json:"feed" jsonschema:"title=Live feed"`
}

// FeedConfig configures the live websocket feed.
type FeedConfig struct {
	URL         string `yaml:"url" json:"url" jsonschema:"title=Feed URL,description=Websocket endpoint streaming market events" validate:"omitempty,url"`
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr" jsonschema:"title=Metrics address,description=Listen address of the /metrics and /health endpoints"`
	QueueSize   int    `yaml:"queue_size" json:"queue_size" jsonschema:"title=Queue size,minimum=1,default=1024" validate:"gte=1"`
}

// DefaultConfig returns a configuration with every optional field set.
func DefaultConfig() Config {
	return Config{
		Exchange:        "NSE",
		Interval:        datasource.Interval1m,
		StartTime:       optional.None[time.Time](),
		EndTime:         optional.None[time.Time](),
		PatternsDir:     "patterns",
		ResultsDir:      "results",
		Workers:         4,
		HistoryCapacity: pattern.DefaultHistoryCapacity,
		StructureWindow: structure.DefaultWindow,
		MaxPivots:       structure.DefaultMaxPivots,
		ATRPeriod:       indicator.DefaultATRPeriod,
		Sentiment:       sentiment.DefaultThresholds(),
		Execution:       execution.DefaultConfig(),
		Feed:            FeedConfig{QueueSize: 1024},
	}
}

// UnmarshalYAML reads optional start and end times on top of the regular fields.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plain Config

	raw := struct {
		plain     `yaml:",inline"`
		StartTime *time.Time `yaml:"start_time"`
		EndTime   *time.Time `yaml:"end_time"`
	}{plain: plain(*c)}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	*c = Config(raw.plain)

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// LoadConfig reads and validates the config file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read engine config %s", path)
	}

	return ParseConfig(data)
}

// Validate checks field constraints and the backtest period.
func (c Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.EndTime.Unwrap().After(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time must be after start_time")
	}

	if _, err := datasource.IntervalDuration(c.Interval); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine config", err)
	}

	if err := c.Sentiment.Validate(); err != nil {
		return err
	}

	return nil
}

// Period returns the backtest range. Missing bounds default to the Unix
// epoch and now.
func (c Config) Period() (time.Time, time.Time) {
	from := time.Unix(0, 0).UTC()
	if c.StartTime.IsSome() {
		from = c.StartTime.Unwrap()
	}

	to := time.Now().UTC()
	if c.EndTime.IsSome() {
		to = c.EndTime.Unwrap()
	}

	return from, to
}

// durationPattern matches time.ParseDuration input.
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|ms|s|m|h))+$`

// GetConfigSchema returns the JSON schema of Config.
func GetConfigSchema() (string, error) {
	schema, err := utils.GetSchemaFromConfig(&Config{},
		"argo-options-engine-config",
		"Configuration of the pattern execution engine",
		utils.StringType[optional.Option[time.Time]]("date-time", ""),
		utils.StringType[time.Duration]("", durationPattern),
	)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to encode config schema", err)
	}

	return schema, nil
}
