package structure

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestTrackersArePerSymbol() {
	r := NewRegistry(1, 10)
	start := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)

	// a pivot high at the middle bar for NIFTY only
	for i, high := range []float64{100, 105, 100} {
		r.OnBar(types.Bar{Symbol: "NIFTY", Time: start.Add(time.Duration(i) * time.Minute), High: high, Low: 90}, nil)
		r.OnBar(types.Bar{Symbol: "TCS", Time: start.Add(time.Duration(i) * time.Minute), High: 100, Low: 90}, nil)
	}

	suite.Same(r.Tracker("NIFTY"), r.Tracker("NIFTY"))
	suite.NotSame(r.Tracker("NIFTY"), r.Tracker("TCS"))
	suite.Len(r.Tracker("NIFTY").PivotHighs(), 1)
	suite.Empty(r.Tracker("TCS").PivotHighs())
}
