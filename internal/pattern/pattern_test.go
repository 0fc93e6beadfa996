package pattern

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-options/internal/expression"
	"github.com/rxtech-lab/argo-options/internal/types"
)

var testStart = time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)

func bar(i int, open, close float64) types.Bar {
	return types.Bar{
		Symbol: "NIFTY",
		Time:   testStart.Add(time.Duration(i) * time.Minute),
		Open:   open,
		High:   max(open, close) + 1,
		Low:    min(open, close) - 1,
		Close:  close,
		Volume: 100,
	}
}

func programs(t *testing.T, srcs ...string) []expression.Program {
	t.Helper()

	out := make([]expression.Program, len(srcs))
	for i, s := range srcs {
		p, err := expression.Compile(s)
		if err != nil {
			t.Fatalf("compile %q: %v", s, err)
		}

		out[i] = p
	}

	return out
}

// twoPhaseDefinition is a bullish bar followed by a higher close.
func twoPhaseDefinition(t *testing.T, id string, timeout int) *Definition {
	t.Helper()

	return &Definition{
		ID: id,
		Phases: []Phase{
			{
				ID:         "impulse",
				Conditions: programs(t, "close > open"),
				Capture: map[string]expression.Program{
					"impulse_high": expression.MustCompile("high"),
					"label":        expression.MustCompile("'not-a-number'"),
				},
				Timeout: timeout,
			},
			{
				ID:         "confirm",
				Conditions: programs(t, "close > vars.impulse_high"),
				Timeout:    timeout,
			},
		},
		Execution: Execution{
			Side:       types.SideBuy,
			Entry:      expression.MustCompile("close"),
			StopLoss:   expression.MustCompile("entry - 10"),
			TakeProfit: expression.MustCompile("entry + (entry - sl) * 2"),
		},
	}
}

func timeMinutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
