package pattern

import "maps"

// State is the progress of one pattern on one symbol. It changes only
// through Advance, Capture, TickTimeout and Reset.
type State struct {
	symbol    string
	patternID string
	phaseID   string
	captured  map[string]float64
	counter   int
}

// NewState starts a pattern at its first phase.
func NewState(symbol string, def *Definition) *State {
	return &State{
		symbol:    symbol,
		patternID: def.ID,
		phaseID:   def.FirstPhase(),
		captured:  map[string]float64{},
	}
}

func (s *State) Symbol() string { return s.symbol }
func (s *State) PatternID() string { return s.patternID }
func (s *State) PhaseID() string { return s.phaseID }
func (s *State) Counter() int { return s.counter }

// Vars returns a copy of the captured variables.
func (s *State) Vars() map[string]float64 {
	return maps.Clone(s.captured)
}

// Advance moves to phaseID and clears the timeout counter.
func (s *State) Advance(phaseID string) {
	s.phaseID = phaseID
	s.counter = 0
}

// Capture records a named value.
func (s *State) Capture(name string, value float64) {
	s.captured[name] = value
}

// TickTimeout counts one failing bar and returns the new count.
func (s *State) TickTimeout() int {
	s.counter++

	return s.counter
}

// TimedOut reports whether the counter reached a positive timeout.
func (s *State) TimedOut(timeout int) bool {
	return timeout > 0 && s.counter >= timeout
}

// Reset returns to firstPhase with no captured variables.
func (s *State) Reset(firstPhase string) {
	s.phaseID = firstPhase
	s.counter = 0
	s.captured = map[string]float64{}
}
