package pattern

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-options/internal/logger"
	"go.uber.org/zap"
)

// Matcher runs every pattern definition against every bar, keeping one
// state machine per symbol and pattern.
type Matcher struct {
	mu       sync.Mutex
	defs     []*Definition
	machines map[string]*StateMachine
	capacity int
	onError  ErrorHook
	logger   *logger.Logger
}

// NewMatcher creates a matcher. Definitions are evaluated in id order.
func NewMatcher(defs []*Definition, capacity int, log *logger.Logger) *Matcher {
	if log == nil {
		log = logger.NewNopLogger()
	}

	sorted := append([]*Definition(nil), defs...)
	SortDefinitions(sorted)

	return &Matcher{
		defs:     sorted,
		machines: map[string]*StateMachine{},
		capacity: capacity,
		logger:   log,
	}
}

func machineKey(symbol, patternID string) string {
	return symbol + ":" + patternID
}

// SetErrorHook installs a callback for expression failures on all machines.
func (m *Matcher) SetErrorHook(hook ErrorHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onError = hook
	for _, sm := range m.machines {
		sm.onError = hook
	}
}

// Definitions returns the loaded definitions in evaluation order.
func (m *Matcher) Definitions() []*Definition {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*Definition(nil), m.defs...)
}

// Machine returns the machine for a symbol and pattern, if it exists.
func (m *Matcher) Machine(symbol, patternID string) (*StateMachine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sm, ok := m.machines[machineKey(symbol, patternID)]

	return sm, ok
}

// OnBar evaluates every applicable pattern for the bar's symbol and returns
// the machines whose trigger fired on this bar. Each trigger is consumed
// here, so a machine is returned at most once per completion.
func (m *Matcher) OnBar(in Input) []*StateMachine {
	m.mu.Lock()
	defer m.mu.Unlock()

	var fired []*StateMachine

	for _, def := range m.defs {
		if !def.AppliesTo(in.Bar.Symbol) {
			continue
		}

		sm := m.machineFor(in.Bar.Symbol, def)
		sm.Evaluate(in)

		if sm.ConsumeTrigger() {
			fired = append(fired, sm)
		}
	}

	return fired
}

func (m *Matcher) machineFor(symbol string, def *Definition) *StateMachine {
	key := machineKey(symbol, def.ID)

	sm, ok := m.machines[key]
	if !ok {
		sm = NewStateMachine(symbol, def, m.capacity, m.logger)
		sm.onError = m.onError
		m.machines[key] = sm
	}

	return sm
}

// Reload swaps in new definitions. Machines whose pattern still exists and
// whose phase is still defined keep their state and history; the rest are
// dropped.
func (m *Matcher) Reload(defs []*Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := append([]*Definition(nil), defs...)
	SortDefinitions(sorted)

	byID := make(map[string]*Definition, len(sorted))
	for _, d := range sorted {
		byID[d.ID] = d
	}

	for key, sm := range m.machines {
		def, ok := byID[sm.def.ID]
		if !ok {
			delete(m.machines, key)

			continue
		}

		if _, _, ok := def.Phase(sm.state.PhaseID()); !ok {
			sm.state.Reset(def.FirstPhase())
		}

		sm.def = def
	}

	m.defs = sorted

	m.logger.Info("Pattern definitions reloaded", zap.Int("patterns", len(sorted)))
}

// Snapshot captures the state of every machine, sorted by symbol and pattern.
func (m *Matcher) Snapshot() []StateSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]StateSnapshot, 0, len(m.machines))
	for _, sm := range m.machines {
		out = append(out, StateSnapshot{
			Symbol:    sm.state.symbol,
			PatternID: sm.state.patternID,
			PhaseID:   sm.state.phaseID,
			Vars:      sm.state.Vars(),
			Counter:   sm.state.counter,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}

		return out[i].PatternID < out[j].PatternID
	})

	return out
}

// Restore applies saved states. Snapshots for unknown patterns or phases are
// skipped and counted in the returned number.
func (m *Matcher) Restore(snapshots []StateSnapshot) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := make(map[string]*Definition, len(m.defs))
	for _, d := range m.defs {
		byID[d.ID] = d
	}

	skipped := 0

	for _, snap := range snapshots {
		def, ok := byID[snap.PatternID]
		if !ok {
			skipped++

			continue
		}

		if _, _, ok := def.Phase(snap.PhaseID); !ok || snap.Counter < 0 {
			m.logger.Warn("Skipping corrupt pattern state",
				zap.String("pattern", snap.PatternID),
				zap.String("symbol", snap.Symbol),
				zap.String("phase", snap.PhaseID))

			skipped++

			continue
		}

		sm := m.machineFor(snap.Symbol, def)
		sm.state.phaseID = snap.PhaseID
		sm.state.counter = snap.Counter
		sm.state.captured = map[string]float64{}

		for k, v := range snap.Vars {
			sm.state.captured[k] = v
		}
	}

	return skipped
}
