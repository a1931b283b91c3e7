package gardensync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfig_MappingBoards(t *testing.T) {
	p := writeConfig(t, `
data_root: /srv/bbs
boards:
  garden: garden/dat
  karesansui: {dir: /mnt/kare}
  "": ignored
timezone: Asia/Tokyo
relevance_window: 72h
log:
  level: debug
  format: json
`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, []BoardConfig{{Name: "garden", Dir: "garden/dat"}, {Name: "karesansui", Dir: "/mnt/kare"}}, cfg.Boards.Items)
	assert.Equal(t, 72*time.Hour, cfg.RelevanceWindow)
	assert.Equal(t, "json", cfg.Log.Format)

	rc := cfg.RunnerConfig()
	assert.Equal(t, []Board{
		{Name: "garden", Dir: "/srv/bbs/garden/dat"},
		{Name: "karesansui", Dir: "/mnt/kare"},
	}, rc.Boards)
	assert.Equal(t, "/srv/bbs/game.db", rc.DBPath)
	assert.Equal(t, "/srv/bbs/game_ids.json", rc.SnapshotPath)
	assert.Equal(t, "/srv/bbs/game_ids_cache.json", rc.CachePath)
	assert.Equal(t, 72*time.Hour, rc.RelevanceWindow)
}

func TestLoadConfig_ListBoards(t *testing.T) {
	p := writeConfig(t, `
boards:
  - name: garden
    dir: g
  - dir: nameless
  - name: karesansui
db: /var/lib/game.db
`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Len(t, cfg.Boards.Items, 2)

	rc := cfg.RunnerConfig()
	assert.Equal(t, []Board{
		{Name: "garden", Dir: "g"},
		{Name: "karesansui", Dir: filepath.Join("karesansui", "dat")},
	}, rc.Boards)
	assert.Equal(t, "/var/lib/game.db", rc.DBPath)
}

func TestRunnerConfig_Defaults(t *testing.T) {
	rc := (&FileConfig{}).RunnerConfig()
	require.Len(t, rc.Boards, 2)
	assert.Equal(t, "garden", rc.Boards[0].Name)
	assert.Equal(t, "karesansui", rc.Boards[1].Name)
	assert.Equal(t, "admin-id.txt", rc.AdminIDPath)
	assert.Equal(t, "system_settings.json", rc.SettingsPath)
	assert.NotNil(t, rc.Location)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "boards: [\n"))
	assert.Error(t, err)
}
