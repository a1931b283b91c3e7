package gardensync

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "game.db"))
	require.NoError(t, err)
	t.Cleanup(func() { closeDB(db) })
	return db
}

func TestSaveState_RoundTripAndStaleDelete(t *testing.T) {
	db := openTestDB(t)

	first := FinalState{
		"11111111": entry("u1", DateCounts{"2024/05/02": {10: 3}}, "h1"),
		"22222222": entry("u2", DateCounts{"2024/05/02": {11: 1}}),
	}
	require.NoError(t, SaveState(db, first))

	got, skipped, err := LoadState(db)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, first, got)

	second := FinalState{
		"11111111": entry("u1", DateCounts{"2024/05/02": {10: 4}}, "h1", "h2"),
	}
	require.NoError(t, SaveState(db, second))
	got, _, err = LoadState(db)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	require.NoError(t, SaveState(db, FinalState{}))
	got, _, err = LoadState(db)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveState_StoresWebServiceJSON(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, SaveState(db, FinalState{"11111111": entry("u1", DateCounts{"2024/05/02": {10: 3}})}))

	var data string
	require.NoError(t, db.Raw("SELECT data FROM game_ids WHERE id = ?", "11111111").Scan(&data).Error)
	assert.JSONEq(t, `{"id":"u1","counts":{"2024/05/02":{"10":3}},"secretTriggers":[]}`, data)
}

func TestLoadState_SkipsUndecodableRows(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec("INSERT INTO game_ids (id, data) VALUES (?, ?), (?, ?)",
		"11111111", `{"id":"u1","counts":{}}`,
		"22222222", `not json`).Error)

	got, skipped, err := LoadState(db)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Contains(t, got, "11111111")
	assert.Equal(t, []string{}, got["11111111"].SecretTriggers)
}

func TestLookupEntry(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, SaveState(db, FinalState{"11111111": entry("u1", DateCounts{"2024/05/02": {1: 1}})}))

	e, err := LookupEntry(db, "11111111")
	require.NoError(t, err)
	assert.Equal(t, "u1", e.ID)

	_, err = LookupEntry(db, "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenDB_PragmasOnEveryConnection(t *testing.T) {
	db := openTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	ctx := context.Background()
	// hold two connections at once so the pool has to open a second one
	c1, err := sqlDB.Conn(ctx)
	require.NoError(t, err)
	defer c1.Close()
	c2, err := sqlDB.Conn(ctx)
	require.NoError(t, err)
	defer c2.Close()

	for _, c := range []*sql.Conn{c1, c2} {
		var timeout, sync int
		var mode string
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&sync))
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, 5000, timeout)
		assert.Equal(t, 1, sync, "NORMAL")
		assert.Equal(t, "wal", mode)
	}
}

func TestSaveState_DeletesManyStaleRows(t *testing.T) {
	db := openTestDB(t)

	// more keys than SQLite binds in one statement
	big := FinalState{}
	for i := 0; i < 40000; i++ {
		big[fmt.Sprintf("%08x", i)] = entry("u", DateCounts{"2024/05/02": {1: 1}})
	}
	require.NoError(t, SaveState(db, big))

	small := FinalState{"00000001": entry("u", DateCounts{"2024/05/02": {2: 1}})}
	require.NoError(t, SaveState(db, small))

	got, _, err := LoadState(db)
	require.NoError(t, err)
	assert.Equal(t, small, got)
}
