package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
)

// DataGenerator generates synthetic index candles, option chains and
// sentiment snapshots for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	// Symbol is the underlying (e.g. "NIFTY", "RELIANCE")
	Symbol string
	// StartTime is the first bar of the session
	StartTime time.Time
	// Interval is the duration between bars
	Interval time.Duration
	// Count is the number of bars to generate
	Count int
	// SessionBars is the number of bars per trading day. Zero disables session breaks.
	SessionBars int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility is the per-bar standard deviation of returns
	Volatility float64
	// Trend is the total drift spread across the series
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns one NSE session of NIFTY minute bars.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "NIFTY",
		StartTime:      time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          375,
		SessionBars:    375,
		InitialPrice:   22000,
		Volatility:     0.0008,
		Trend:          0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate creates bars following a geometric Brownian motion. When
// SessionBars is set the series continues at the same time of day on the
// next calendar day after each session.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	price := config.InitialPrice
	sessionStart := config.StartTime
	at := sessionStart
	oi := config.VolumeBase * 50

	for i := 0; i < config.Count; i++ {
		if config.SessionBars > 0 && i > 0 && i%config.SessionBars == 0 {
			sessionStart = sessionStart.AddDate(0, 0, 1)
			at = sessionStart
		}

		open := price
		change := config.Volatility*g.normal() + config.Trend/float64(config.Count)

		close := open * (1 + change)
		if close <= 0 {
			close = open * 0.99
		}

		high := math.Max(open, close) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, close) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		oi = math.Max(0, oi+(g.rng.Float64()*2-1)*config.VolumeBase)

		bars[i] = types.Bar{
			Symbol: config.Symbol,
			Time:   at,
			Open:   roundToDecimals(open, 2),
			High:   roundToDecimals(high, 2),
			Low:    roundToDecimals(low, 2),
			Close:  roundToDecimals(close, 2),
			Volume: math.Round(volume),
			OI:     math.Round(oi),
		}

		price = close
		at = at.Add(config.Interval)
	}

	return bars
}

// GenerateMultiSymbol generates bars for several symbols with varied prices.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) []types.Bar {
	var all []types.Bar

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		all = append(all, g.Generate(config)...)
	}

	return all
}

// GenerateOptionChain builds a chain of 2*width+1 strikes around the ATM
// strike of spot. Open interest peaks a few strikes away from the money on
// each side. Instrument keys follow "NSE_FO|<symbol><strike><CE|PE>".
func (g *DataGenerator) GenerateOptionChain(symbol string, spot, step float64, width int, at time.Time) types.OptionChain {
	atm := math.Round(spot/step) * step
	chain := types.OptionChain{Symbol: symbol, Timestamp: at}

	for i := -width; i <= width; i++ {
		strike := atm + float64(i)*step
		callPeak := math.Abs(float64(i - 3))
		putPeak := math.Abs(float64(i + 3))

		chain.Strikes = append(chain.Strikes, types.StrikeData{
			Strike:            strike,
			CallOI:            math.Round(100000 / (1 + callPeak) * (0.9 + g.rng.Float64()*0.2)),
			PutOI:             math.Round(100000 / (1 + putPeak) * (0.9 + g.rng.Float64()*0.2)),
			CallOIChange:      math.Round((g.rng.Float64()*2 - 1) * 5000),
			PutOIChange:       math.Round((g.rng.Float64()*2 - 1) * 5000),
			CallInstrumentKey: optional.Some(fmt.Sprintf("NSE_FO|%s%.0fCE", symbol, strike)),
			PutInstrumentKey:  optional.Some(fmt.Sprintf("NSE_FO|%s%.0fPE", symbol, strike)),
		})
	}

	return chain
}

// GenerateSentiment returns a snapshot with the given PCR and random breadth.
func (g *DataGenerator) GenerateSentiment(symbol string, pcr float64, at time.Time) *types.Sentiment {
	advances := 20 + g.rng.Intn(30)

	return &types.Sentiment{
		Symbol:      symbol,
		Timestamp:   at,
		PCR:         pcr,
		PCRVelocity: roundToDecimals((g.rng.Float64()*2-1)*0.05, 4),
		Advances:    advances,
		Declines:    50 - advances,
	}
}

// GenerateSession is a convenience function returning one seeded session of
// NIFTY minute bars.
func GenerateSession(symbol string) []types.Bar {
	config := DefaultConfig()
	config.Symbol = symbol

	return NewDataGenerator(42).Generate(config)
}

func (g *DataGenerator) normal() float64 {
	u1 := g.rng.Float64()
	u2 := g.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
