package gardensync

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindings(pairs ...string) KeyBindings {
	var kb KeyBindings
	for i := 0; i+1 < len(pairs); i += 2 {
		kb.Set(pairs[i], pairs[i+1])
	}
	return kb
}

func resultWith(kb KeyBindings) FileResult {
	r := NewFileResult()
	r.GameToUser = kb
	return r
}

func TestMerge_FirstWinsKeepsEarlierUser(t *testing.T) {
	a := resultWith(bindings("aaaaaaaa", "u1"))
	b := resultWith(bindings("aaaaaaaa", "u2", "bbbbbbbb", "u3"))

	got := MergeFirstWins(a, b)
	u, _ := got.GameToUser.Lookup("aaaaaaaa")
	assert.Equal(t, "u1", u)
	u, _ = got.GameToUser.Lookup("bbbbbbbb")
	assert.Equal(t, "u3", u)
	assert.Equal(t, 2, got.GameToUser.Len())
}

func TestMerge_LaterWinsTakesLaterUser(t *testing.T) {
	a := resultWith(bindings("aaaaaaaa", "u1"))
	b := resultWith(bindings("aaaaaaaa", "u2"))

	got := MergeLaterWins(a, b)
	u, _ := got.GameToUser.Lookup("aaaaaaaa")
	assert.Equal(t, "u2", u)
	// inputs stay untouched
	u, _ = a.GameToUser.Lookup("aaaaaaaa")
	assert.Equal(t, "u1", u)
}

func TestMerge_SumsStatsAndUnionsTriggers(t *testing.T) {
	a := NewFileResult()
	a.UserStats.Add("u1", "2024/05/02", 10, 2)
	a.SecretTriggers.Add("u1", "h1")
	b := NewFileResult()
	b.UserStats.Add("u1", "2024/05/02", 10, 1)
	b.UserStats.Add("u2", "2024/05/02", 3, 1)
	b.SecretTriggers.Add("u1", "h1")
	b.SecretTriggers.Add("u1", "h2")

	got := MergeFirstWins(a, b)
	assert.Equal(t, 3, got.UserStats.count("u1", "2024/05/02", 10))
	assert.Equal(t, 1, got.UserStats.count("u2", "2024/05/02", 3))
	assert.Equal(t, []string{"h1", "h2"}, got.SecretTriggers["u1"])
	assert.Equal(t, 2, a.UserStats.count("u1", "2024/05/02", 10))
}

func TestUserStats_CountDoesNotInsert(t *testing.T) {
	s := UserStats{}
	assert.Equal(t, 0, s.count("nobody", "2024/05/02", 1))
	assert.Empty(t, s)
}

func TestKeyBindings_JSONKeepsOrder(t *testing.T) {
	kb := bindings("ffffffff", "u1", "00000000", "u2", "88888888", "u3")
	b, err := json.Marshal(kb)
	require.NoError(t, err)
	assert.Equal(t, `{"ffffffff":"u1","00000000":"u2","88888888":"u3"}`, string(b))

	var back KeyBindings
	require.NoError(t, json.Unmarshal(b, &back))
	var order []string
	back.Each(func(key, _ string) { order = append(order, key) })
	assert.Equal(t, []string{"ffffffff", "00000000", "88888888"}, order)

	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.Equal(t, 0, back.Len())
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &back))
}
