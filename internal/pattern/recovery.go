package pattern

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// StateSnapshot is the persisted form of a pattern state.
type StateSnapshot struct {
	Symbol    string             `json:"symbol"`
	PatternID string             `json:"pattern_id"`
	PhaseID   string             `json:"phase_id"`
	Vars      map[string]float64 `json:"vars"`
	Counter   int                `json:"timeout_counter"`
}

// SaveStates writes snapshots to path as JSON. The file is replaced
// atomically so a crash never leaves a half-written file behind.
func SaveStates(path string, snapshots []StateSnapshot) error {
	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStateSaveFailed, "failed to encode pattern states", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".states-*.json")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStateSaveFailed, "failed to create temp state file", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return errors.Wrap(errors.ErrCodeStateSaveFailed, "failed to write pattern states", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return errors.Wrap(errors.ErrCodeStateSaveFailed, "failed to close pattern state file", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return errors.Wrap(errors.ErrCodeStateSaveFailed, "failed to replace pattern state file", err)
	}

	return nil
}

// LoadStates reads snapshots written by SaveStates. A missing file yields
// no snapshots; an unreadable one is reported as corrupt.
func LoadStates(path string) ([]StateSnapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCorruptState, err, "failed to read %s", path)
	}

	var snapshots []StateSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCorruptState, err, "failed to decode %s", path)
	}

	return snapshots, nil
}
