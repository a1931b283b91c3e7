package gardensync

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KeyBindings maps game key -> user id and remembers insertion order, which
// decides who wins when one user is bound to several keys.
// The zero value is ready to use.
type KeyBindings struct {
	order []string
	users map[string]string
}

// Bind records key -> user unless key is already bound. It reports whether
// the binding was added.
func (k *KeyBindings) Bind(key string, userID string) bool {
	if _, ok := k.users[key]; ok {
		return false
	}
	k.Set(key, userID)
	return true
}

// Set records key -> user, replacing an earlier binding in place.
func (k *KeyBindings) Set(key string, userID string) {
	if k.users == nil {
		k.users = make(map[string]string)
	}
	if _, ok := k.users[key]; !ok {
		k.order = append(k.order, key)
	}
	k.users[key] = userID
}

func (k *KeyBindings) Lookup(key string) (string, bool) {
	u, ok := k.users[key]
	return u, ok
}

func (k *KeyBindings) Len() int { return len(k.order) }

// Each visits bindings in insertion order.
func (k *KeyBindings) Each(fn func(key, userID string)) {
	for _, key := range k.order {
		fn(key, k.users[key])
	}
}

// MarshalJSON writes a JSON object whose members follow insertion order.
func (k KeyBindings) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, key := range k.order {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(k.users[key])
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (k *KeyBindings) UnmarshalJSON(data []byte) error {
	*k = KeyBindings{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("game key bindings: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("game key bindings: expected string key, got %v", tok)
		}
		var userID string
		if err := dec.Decode(&userID); err != nil {
			return err
		}
		k.Set(key, userID)
	}
	_, err = dec.Token()
	return err
}

// FileResult is what one extraction pass yields: per file, per directory or per run.
type FileResult struct {
	GameToUser     KeyBindings `json:"game_to_user"`
	UserStats      UserStats   `json:"user_stats"`
	SecretTriggers Triggers    `json:"secret_triggers"`
}

func NewFileResult() FileResult {
	return FileResult{UserStats: UserStats{}, SecretTriggers: Triggers{}}
}

// MergeFirstWins combines results of files within one board directory: a key
// keeps the user it was first bound to.
func MergeFirstWins(a, b FileResult) FileResult {
	return mergeResults(a, b, false)
}

// MergeLaterWins combines results of board directories: a key bound again in a
// later directory takes the later user.
func MergeLaterWins(a, b FileResult) FileResult {
	return mergeResults(a, b, true)
}

func mergeResults(a, b FileResult, overwrite bool) FileResult {
	out := FileResult{
		UserStats:      MergeStats(a.UserStats, b.UserStats),
		SecretTriggers: MergeTriggers(a.SecretTriggers, b.SecretTriggers),
	}
	a.GameToUser.Each(func(key, userID string) { out.GameToUser.Set(key, userID) })
	b.GameToUser.Each(func(key, userID string) {
		if overwrite {
			out.GameToUser.Set(key, userID)
			return
		}
		out.GameToUser.Bind(key, userID)
	})
	return out
}
