package gardensync

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// LoadSnapshot reads the JSON mirror of the final state. A missing file is an
// empty state.
func LoadSnapshot(path string) (FinalState, error) {
	state := FinalState{}
	if path == "" {
		return state, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state, nil
		}
		return state, err
	}
	if err := json.Unmarshal(b, &state); err != nil {
		return FinalState{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	for key, e := range state {
		if e == nil {
			delete(state, key)
			continue
		}
		e.normalize()
	}
	return state, nil
}

func SaveSnapshot(path string, state FinalState) error {
	for _, e := range state {
		e.normalize()
	}
	return WriteJSONAtomic(path, state, true)
}
