package instrument

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

// Contract is one listed option of an underlying.
type Contract struct {
	InstrumentKey string
	TradingSymbol string
	Underlying    string
	OptionType    types.OptionType
	Strike        float64
	Expiry        time.Time
}

// Source lists the option contracts of an underlying.
type Source interface {
	ListContracts(ctx context.Context, underlying string) ([]Contract, error)
}

// StrikeStep is the strike spacing of an index: 100 for the bank index class, 50 otherwise.
func StrikeStep(symbol string) float64 {
	if strings.Contains(strings.ToUpper(symbol), "BANK") {
		return 100
	}

	return 50
}

// ATMStrike rounds spot to the nearest listed strike step.
func ATMStrike(symbol string, spot float64) float64 {
	step := StrikeStep(symbol)

	return math.Round(spot/step) * step
}

// Resolver picks ATM option contracts from a contract list loaded once by
// Initialize and cached per underlying.
type Resolver struct {
	mu          sync.RWMutex
	source      Source
	underlyings []string
	contracts   map[string][]Contract
	initialized bool
	logger      *logger.Logger
}

func NewResolver(source Source, underlyings []string, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Resolver{
		source:      source,
		underlyings: underlyings,
		contracts:   make(map[string][]Contract),
		logger:      log,
	}
}

// Initialize loads the contracts of every configured underlying. Calling it
// again reloads them.
func (r *Resolver) Initialize(ctx context.Context) error {
	loaded := make(map[string][]Contract, len(r.underlyings))

	for _, underlying := range r.underlyings {
		contracts, err := r.source.ListContracts(ctx, underlying)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to load contracts of %s", underlying)
		}

		if len(contracts) == 0 {
			r.logger.Warn("No option contracts listed", zap.String("underlying", underlying))
		}

		sort.Slice(contracts, func(i, j int) bool {
			if !contracts[i].Expiry.Equal(contracts[j].Expiry) {
				return contracts[i].Expiry.Before(contracts[j].Expiry)
			}

			return contracts[i].Strike < contracts[j].Strike
		})

		loaded[strings.ToUpper(underlying)] = contracts
	}

	r.mu.Lock()
	r.contracts = loaded
	r.initialized = true
	r.mu.Unlock()

	r.logger.Info("Option contracts loaded", zap.Int("underlyings", len(loaded)))

	return nil
}

// Initialized reports whether Initialize has completed.
func (r *Resolver) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.initialized
}

// ResolveATMOption implements execution.OptionResolver. It picks the nearest
// unexpired expiry and, within it, the strike closest to the ATM strike.
func (r *Resolver) ResolveATMOption(_ context.Context, underlying string, optionType types.OptionType, spot float64, at time.Time) (string, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.initialized {
		return "", "", errors.New(errors.ErrCodeInstrumentsNotReady, "instrument resolver is not initialized")
	}

	target := ATMStrike(underlying, spot)
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())

	var (
		best    *Contract
		expiry  time.Time
		minDiff = math.Inf(1)
	)

	for i := range r.contracts[strings.ToUpper(underlying)] {
		c := &r.contracts[strings.ToUpper(underlying)][i]
		if c.OptionType != optionType || c.Expiry.Before(day) {
			continue
		}

		// contracts are sorted by expiry, so the first match fixes it
		if best != nil && !c.Expiry.Equal(expiry) {
			break
		}

		if diff := math.Abs(c.Strike - target); diff < minDiff {
			best, expiry, minDiff = c, c.Expiry, diff
		}
	}

	if best == nil {
		return "", "", errors.Newf(errors.ErrCodeDataNotFound, "no %s contract of %s near strike %.0f", optionType, underlying, target)
	}

	return best.InstrumentKey, best.TradingSymbol, nil
}

// FixedDelta reports the same delta for every option.
type FixedDelta float64

// GetOptionDelta implements execution.DeltaProvider.
func (d FixedDelta) GetOptionDelta(context.Context, string) (float64, error) {
	return float64(d), nil
}
