package pattern

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-options/internal/expression"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/internal/version"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/rxtech-lab/argo-options/pkg/utils"
)

// Phase is one step of a setup. All conditions must hold on the same bar
// for the phase to complete. Timeout is the number of consecutive failing
// bars after which the whole pattern resets; zero disables it.
type Phase struct {
	ID         string                        `yaml:"id" json:"id" validate:"required"`
	Conditions []expression.Program          `yaml:"conditions" json:"conditions"`
	Capture    map[string]expression.Program `yaml:"capture" json:"capture"`
	Timeout    int                           `yaml:"timeout" json:"timeout" validate:"gte=0"`
}

// Execution holds the trade formulas. They are evaluated in the order
// entry, stop loss, take profit, and each sees the values computed before it.
type Execution struct {
	Side       types.Side         `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Entry      expression.Program `yaml:"entry" json:"entry"`
	StopLoss   expression.Program `yaml:"sl" json:"sl"`
	TakeProfit expression.Program `yaml:"tp" json:"tp"`
}

// RegimeConfig tunes execution for one market regime.
type RegimeConfig struct {
	// AllowEntry vetoes new trades in the regime when false. Unset means allowed.
	AllowEntry *bool `yaml:"allow_entry" json:"allow_entry"`
	// TPMult is exposed to formulas as tp_mult. Zero means 1.
	TPMult float64 `yaml:"tp_mult" json:"tp_mult" validate:"gte=0"`
	// QuantityMod scales the base quantity and is exposed as quantity_mod. Zero means 1.
	QuantityMod float64 `yaml:"quantity_mod" json:"quantity_mod" validate:"gte=0"`
}

// Allows reports whether entries are permitted.
func (r RegimeConfig) Allows() bool {
	return r.AllowEntry == nil || *r.AllowEntry
}

// TakeProfitMultiplier returns TPMult with the zero default applied.
func (r RegimeConfig) TakeProfitMultiplier() float64 {
	if r.TPMult == 0 {
		return 1
	}

	return r.TPMult
}

// QuantityModifier returns QuantityMod with the zero default applied.
func (r RegimeConfig) QuantityModifier() float64 {
	if r.QuantityMod == 0 {
		return 1
	}

	return r.QuantityMod
}

// Definition is an immutable multi-phase pattern.
type Definition struct {
	ID          string `yaml:"id" json:"id" validate:"required"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	// EngineVersion is a semver constraint the running engine must satisfy.
	EngineVersion string `yaml:"engine_version" json:"engine_version"`
	// Symbols restricts the pattern to the listed underlyings. Empty means every symbol.
	Symbols      []string                      `yaml:"symbols" json:"symbols"`
	Phases       []Phase                       `yaml:"phases" json:"phases" validate:"required,min=1,dive"`
	Execution    Execution                     `yaml:"execution" json:"execution"`
	RegimeConfig map[types.Regime]RegimeConfig `yaml:"regime_config" json:"regime_config" validate:"dive"`
}

// Validate checks structural rules that tags cannot express.
func (d *Definition) Validate() error {
	if err := validator.New().Struct(d); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidDefinition, err, "invalid pattern %q", d.ID)
	}

	if err := version.CheckCompatibility(version.GetVersion(), d.EngineVersion); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidDefinition, err, "pattern %q", d.ID)
	}

	seen := make(map[string]struct{}, len(d.Phases))
	for _, p := range d.Phases {
		if _, dup := seen[p.ID]; dup {
			return errors.Newf(errors.ErrCodeInvalidDefinition, "pattern %q: duplicate phase id %q", d.ID, p.ID)
		}

		seen[p.ID] = struct{}{}
	}

	if d.Execution.Entry.IsEmpty() || d.Execution.StopLoss.IsEmpty() || d.Execution.TakeProfit.IsEmpty() {
		return errors.Newf(errors.ErrCodeInvalidDefinition, "pattern %q: execution needs entry, sl and tp", d.ID)
	}

	return nil
}

// FirstPhase returns the id of the entry phase.
func (d *Definition) FirstPhase() string {
	return d.Phases[0].ID
}

// Phase looks up a phase and its position.
func (d *Definition) Phase(id string) (*Phase, int, bool) {
	for i := range d.Phases {
		if d.Phases[i].ID == id {
			return &d.Phases[i], i, true
		}
	}

	return nil, -1, false
}

// AppliesTo reports whether the pattern should run for symbol.
func (d *Definition) AppliesTo(symbol string) bool {
	if len(d.Symbols) == 0 {
		return true
	}

	for _, s := range d.Symbols {
		if s == symbol {
			return true
		}
	}

	return false
}

// RegimeSettings returns the config for regime, or the permissive default.
func (d *Definition) RegimeSettings(regime types.Regime) RegimeConfig {
	if cfg, ok := d.RegimeConfig[regime]; ok {
		return cfg
	}

	return RegimeConfig{}
}

// GetDefinitionSchema returns the JSON schema of a pattern file.
func GetDefinitionSchema() (string, error) {
	schema, err := utils.GetSchemaFromConfig(&Definition{},
		"argo-options-pattern",
		"Multi-phase candlestick pattern with trade formulas",
		utils.StringType[expression.Program]("", ""),
	)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidDefinition, "failed to encode pattern schema", err)
	}

	return schema, nil
}
