package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DataGeneratorTestSuite struct {
	suite.Suite
}

func TestDataGeneratorSuite(t *testing.T) {
	suite.Run(t, new(DataGeneratorTestSuite))
}

func (suite *DataGeneratorTestSuite) TestGenerate() {
	config := DefaultConfig()
	config.Count = 100

	bars := NewDataGenerator(42).Generate(config)
	suite.Require().Len(bars, 100)

	for i, bar := range bars {
		suite.Equal(config.Symbol, bar.Symbol)
		suite.Positive(bar.Low, "index %d", i)
		suite.GreaterOrEqual(bar.High, bar.Low, "index %d", i)

		if i > 0 {
			suite.Equal(config.Interval, bar.Time.Sub(bars[i-1].Time), "index %d", i)
		}
	}
}

func (suite *DataGeneratorTestSuite) TestSessionBreaks() {
	config := DefaultConfig()
	config.Count = 10
	config.SessionBars = 5

	bars := NewDataGenerator(1).Generate(config)

	suite.Equal(config.StartTime.Add(4*time.Minute), bars[4].Time)
	suite.Equal(config.StartTime.AddDate(0, 0, 1), bars[5].Time)
	suite.Equal(config.StartTime.AddDate(0, 0, 1).Add(4*time.Minute), bars[9].Time)
}

func (suite *DataGeneratorTestSuite) TestReproducibility() {
	config := DefaultConfig()
	config.Count = 10

	first := NewDataGenerator(42).Generate(config)
	second := NewDataGenerator(42).Generate(config)
	other := NewDataGenerator(123).Generate(config)

	suite.Equal(first, second)
	suite.NotEqual(first, other)
}

func (suite *DataGeneratorTestSuite) TestGenerateMultiSymbol() {
	symbols := []string{"NIFTY", "BANKNIFTY", "RELIANCE"}
	config := DefaultConfig()
	config.Count = 50

	bars := NewDataGenerator(42).GenerateMultiSymbol(symbols, config)
	suite.Len(bars, len(symbols)*config.Count)

	counts := make(map[string]int)
	for _, bar := range bars {
		counts[bar.Symbol]++
	}

	for _, symbol := range symbols {
		suite.Equal(config.Count, counts[symbol])
	}
}

func (suite *DataGeneratorTestSuite) TestGenerateOptionChain() {
	at := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)
	chain := NewDataGenerator(7).GenerateOptionChain("NIFTY", 22012, 50, 5, at)

	suite.Len(chain.Strikes, 11)
	suite.Equal(21750.0, chain.Strikes[0].Strike)
	suite.Equal(22250.0, chain.Strikes[10].Strike)
	suite.Equal("NSE_FO|NIFTY22000CE", chain.Strikes[5].CallInstrumentKey.Unwrap())

	suite.Greater(chain.MaxCallOIStrike().Unwrap(), 22000.0)
	suite.Less(chain.MaxPutOIStrike().Unwrap(), 22000.0)
}

func (suite *DataGeneratorTestSuite) TestGenerateSentiment() {
	at := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)
	s := NewDataGenerator(7).GenerateSentiment("NIFTY", 1.1, at)

	suite.Equal(1.1, s.PCR)
	suite.Equal(50, s.Advances+s.Declines)
	suite.True(s.Flow.IsNone())
}

func (suite *DataGeneratorTestSuite) TestGenerateSession() {
	bars := GenerateSession("BANKNIFTY")

	suite.Len(bars, 375)
	suite.Equal("BANKNIFTY", bars[0].Symbol)
}
