package gardensync

import "sort"

// FinalEntry is the persisted value stored under one game key.
type FinalEntry struct {
	ID             string     `json:"id"`
	Counts         DateCounts `json:"counts"`
	SecretTriggers []string   `json:"secretTriggers"`
}

func newFinalEntry(userID string) *FinalEntry {
	return &FinalEntry{ID: userID, Counts: DateCounts{}, SecretTriggers: []string{}}
}

func (e *FinalEntry) addTrigger(hash string) bool {
	for _, h := range e.SecretTriggers {
		if h == hash {
			return false
		}
	}
	e.SecretTriggers = append(e.SecretTriggers, hash)
	return true
}

// normalize replaces nil collections so the JSON form always has {} and [].
func (e *FinalEntry) normalize() {
	if e.Counts == nil {
		e.Counts = DateCounts{}
	}
	if e.SecretTriggers == nil {
		e.SecretTriggers = []string{}
	}
}

// FinalState maps game key -> entry.
type FinalState map[string]*FinalEntry

// Keys returns the game keys in sorted order.
func (s FinalState) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s FinalState) Clone() FinalState {
	out := make(FinalState, len(s))
	for k, e := range s {
		if e == nil {
			continue
		}
		c := &FinalEntry{
			ID:             e.ID,
			Counts:         e.Counts.clone(),
			SecretTriggers: append([]string{}, e.SecretTriggers...),
		}
		out[k] = c
	}
	return out
}
