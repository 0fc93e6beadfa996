package types

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
)

// OptionType is CE for calls and PE for puts.
type OptionType string

const (
	OptionTypeCall OptionType = "CE"
	OptionTypePut  OptionType = "PE"
)

// StrikeData is the open interest picture at one strike.
type StrikeData struct {
	Strike            float64                 `json:"strike"`
	CallOI            float64                 `json:"call_oi"`
	PutOI             float64                 `json:"put_oi"`
	CallOIChange      float64                 `json:"call_oi_change"`
	PutOIChange       float64                 `json:"put_oi_change"`
	CallInstrumentKey optional.Option[string] `json:"call_instrument_key"`
	PutInstrumentKey  optional.Option[string] `json:"put_instrument_key"`
}

// OptionChain is a per-strike snapshot for one underlying.
type OptionChain struct {
	Symbol    string       `json:"symbol"`
	Timestamp time.Time    `json:"timestamp"`
	Strikes   []StrikeData `json:"strikes"`
}

// MaxCallOIStrike returns the strike with the largest call open interest.
func (c OptionChain) MaxCallOIStrike() optional.Option[float64] {
	best := -1
	for i, s := range c.Strikes {
		if best < 0 || s.CallOI > c.Strikes[best].CallOI {
			best = i
		}
	}

	if best < 0 {
		return optional.None[float64]()
	}

	return optional.Some(c.Strikes[best].Strike)
}

// MaxPutOIStrike returns the strike with the largest put open interest.
func (c OptionChain) MaxPutOIStrike() optional.Option[float64] {
	best := -1
	for i, s := range c.Strikes {
		if best < 0 || s.PutOI > c.Strikes[best].PutOI {
			best = i
		}
	}

	if best < 0 {
		return optional.None[float64]()
	}

	return optional.Some(c.Strikes[best].Strike)
}

// SortedStrikes returns a copy of the strikes ordered ascending by strike price.
func (c OptionChain) SortedStrikes() []StrikeData {
	out := make([]StrikeData, len(c.Strikes))
	copy(out, c.Strikes)
	sort.Slice(out, func(i, j int) bool { return out[i].Strike < out[j].Strike })

	return out
}
