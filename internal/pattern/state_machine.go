package pattern

import (
	"sort"

	"github.com/rxtech-lab/argo-options/internal/expression"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"go.uber.org/zap"
)

// DefaultHistoryCapacity is the number of bars a state machine keeps.
const DefaultHistoryCapacity = 200

// ErrorHook is notified whenever a condition or capture fails to evaluate.
type ErrorHook func(patternID string, err error)

// Input is everything a state machine sees for one bar.
type Input struct {
	Bar       types.Bar
	Sentiment *types.Sentiment
	Screener  map[string]float64
	Regime    types.Regime
	Structure *types.MarketStructure
}

// StateMachine walks one pattern through its phases for one symbol.
type StateMachine struct {
	def      *Definition
	state    *State
	history  []types.Bar
	capacity int
	prevBar  *types.Bar
	lastCtx  *expression.Context

	triggered bool

	onError ErrorHook
	logger  *logger.Logger
}

// NewStateMachine creates a machine at the first phase of def.
func NewStateMachine(symbol string, def *Definition, capacity int, log *logger.Logger) *StateMachine {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &StateMachine{
		def:      def,
		state:    NewState(symbol, def),
		history:  make([]types.Bar, 0, capacity),
		capacity: capacity,
		logger:   log,
	}
}

func (m *StateMachine) Definition() *Definition { return m.def }
func (m *StateMachine) State() *State { return m.state }
func (m *StateMachine) Symbol() string { return m.state.symbol }

// History returns the rolling bar history, oldest first.
func (m *StateMachine) History() []types.Bar {
	return m.history
}

// Context returns the evaluation context of the most recent bar, with the
// currently captured variables. It is nil before the first bar.
func (m *StateMachine) Context() *expression.Context {
	if m.lastCtx == nil {
		return nil
	}

	ctx := *m.lastCtx
	ctx.Vars = m.state.Vars()

	return &ctx
}

// Triggered reports whether the final phase completed and the trigger has
// not been consumed yet.
func (m *StateMachine) Triggered() bool {
	return m.triggered
}

// ConsumeTrigger clears the trigger and reports whether it was set. A
// trigger is delivered exactly once.
func (m *StateMachine) ConsumeTrigger() bool {
	fired := m.triggered
	m.triggered = false

	return fired
}

// Reset sends the pattern back to its first phase.
func (m *StateMachine) Reset() {
	m.state.Reset(m.def.FirstPhase())
	m.triggered = false
}

// Evaluate feeds one bar to the machine.
func (m *StateMachine) Evaluate(in Input) {
	m.pushHistory(in.Bar)

	phase, idx, ok := m.def.Phase(m.state.PhaseID())
	if !ok {
		m.logger.Warn("Pattern state points at an unknown phase",
			zap.String("pattern", m.def.ID),
			zap.String("symbol", m.Symbol()),
			zap.String("phase", m.state.PhaseID()))

		return
	}

	defer func() {
		bar := in.Bar
		m.prevBar = &bar
	}()

	ctx := &expression.Context{
		Bar:       in.Bar,
		PrevBar:   m.prevBar,
		History:   m.history,
		Sentiment: in.Sentiment,
		Screener:  in.Screener,
		Vars:      m.state.Vars(),
		Regime:    in.Regime,
		Structure: in.Structure,
	}
	m.lastCtx = ctx

	if !m.conditionsHold(phase, ctx) {
		m.state.TickTimeout()

		if m.state.TimedOut(phase.Timeout) {
			m.logger.Debug("Pattern phase timed out",
				zap.String("pattern", m.def.ID),
				zap.String("symbol", m.Symbol()),
				zap.String("phase", phase.ID),
				zap.Int("timeout", phase.Timeout))
			m.state.Reset(m.def.FirstPhase())
		}

		return
	}

	m.capture(phase, ctx)

	if idx == len(m.def.Phases)-1 {
		m.triggered = true

		m.logger.Info("Pattern triggered",
			zap.String("pattern", m.def.ID),
			zap.String("symbol", m.Symbol()),
			zap.Time("time", in.Bar.Time))

		return
	}

	m.state.Advance(m.def.Phases[idx+1].ID)
}

func (m *StateMachine) pushHistory(bar types.Bar) {
	m.history = append(m.history, bar)
	if len(m.history) > m.capacity {
		m.history = m.history[len(m.history)-m.capacity:]
	}
}

func (m *StateMachine) conditionsHold(phase *Phase, ctx *expression.Context) bool {
	for _, cond := range phase.Conditions {
		ok, err := cond.EvalBool(ctx)
		if err != nil {
			m.reportError(err, "condition", cond.Source())

			return false
		}

		if !ok {
			return false
		}
	}

	return true
}

// capture evaluates every capture against the pre-phase context. Names are
// processed in sorted order and non-numeric results are skipped.
func (m *StateMachine) capture(phase *Phase, ctx *expression.Context) {
	names := make([]string, 0, len(phase.Capture))
	for name := range phase.Capture {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		prog := phase.Capture[name]

		v, err := prog.Eval(ctx)
		if err != nil {
			m.reportError(err, "capture", prog.Source())

			continue
		}

		f, err := v.Float()
		if err != nil || v.Kind() != expression.KindNumber {
			m.logger.Debug("Skipping non-numeric capture",
				zap.String("pattern", m.def.ID),
				zap.String("name", name),
				zap.String("kind", v.Kind().String()))

			continue
		}

		m.state.Capture(name, f)
	}
}

func (m *StateMachine) reportError(err error, what, source string) {
	m.logger.Warn("Pattern expression failed",
		zap.String("pattern", m.def.ID),
		zap.String("symbol", m.Symbol()),
		zap.String("kind", what),
		zap.String("expression", source),
		zap.Error(err))

	if m.onError != nil {
		m.onError(m.def.ID, err)
	}
}
