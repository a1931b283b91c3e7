package gardensync

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BoardConfig names one board and its directory of thread files. Dir is
// relative to the data root unless absolute; empty means <name>/dat.
type BoardConfig struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
}

// BoardsConfig accepts either:
//  1. mapping form (preferred):
//     boards:
//     garden:     garden/dat
//     karesansui: {dir: karesansui/dat}
//  2. list form:
//     boards:
//     - name: garden
//     dir: garden/dat
type BoardsConfig struct {
	Items []BoardConfig
}

func (b *BoardsConfig) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case yaml.MappingNode:
		items := make([]BoardConfig, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			k := value.Content[i]
			v := value.Content[i+1]
			name := strings.TrimSpace(k.Value)
			if name == "" {
				continue
			}
			switch v.Kind {
			case yaml.ScalarNode:
				items = append(items, BoardConfig{Name: name, Dir: strings.TrimSpace(v.Value)})
			case yaml.MappingNode:
				var tmp struct {
					Dir string `yaml:"dir"`
				}
				if err := v.Decode(&tmp); err != nil {
					return err
				}
				items = append(items, BoardConfig{Name: name, Dir: strings.TrimSpace(tmp.Dir)})
			default:
				continue
			}
		}
		b.Items = items
		return nil
	case yaml.SequenceNode:
		var items []BoardConfig
		if err := value.Decode(&items); err != nil {
			return err
		}
		out := items[:0]
		for _, it := range items {
			if strings.TrimSpace(it.Name) == "" {
				continue
			}
			out = append(out, it)
		}
		b.Items = out
		return nil
	default:
		return nil
	}
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type FileConfig struct {
	DataRoot string       `yaml:"data_root"`
	Boards   BoardsConfig `yaml:"boards"`

	// Paths below are relative to DataRoot unless absolute.
	DB           string `yaml:"db"`
	Snapshot     string `yaml:"snapshot"`
	Cache        string `yaml:"cache"`
	AdminIDFile  string `yaml:"admin_id_file"`
	SettingsFile string `yaml:"settings_file"`

	// Timezone the boards stamp posts in.
	Timezone        string        `yaml:"timezone"`
	RelevanceWindow time.Duration `yaml:"relevance_window"`
	RetentionWindow time.Duration `yaml:"retention_window"`

	// Cron expression for repeated runs; empty runs once.
	Schedule string    `yaml:"schedule"`
	Debug    bool      `yaml:"debug"`
	Log      LogConfig `yaml:"log"`
}

var defaultBoards = []BoardConfig{{Name: "garden"}, {Name: "karesansui"}}

func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RunnerConfig fills defaults and resolves every path against the data root.
func (c *FileConfig) RunnerConfig() RunnerConfig {
	root := c.DataRoot
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	boards := c.Boards.Items
	if len(boards) == 0 {
		boards = defaultBoards
	}
	rc := RunnerConfig{
		DataRoot:        root,
		DBPath:          resolvePath(root, c.DB, "game.db"),
		SnapshotPath:    resolvePath(root, c.Snapshot, "game_ids.json"),
		CachePath:       resolvePath(root, c.Cache, "game_ids_cache.json"),
		AdminIDPath:     resolvePath(root, c.AdminIDFile, "admin-id.txt"),
		SettingsPath:    resolvePath(root, c.SettingsFile, "system_settings.json"),
		Location:        LoadLocation(firstNonEmpty(c.Timezone, "Asia/Tokyo")),
		RelevanceWindow: c.RelevanceWindow,
		RetentionWindow: c.RetentionWindow,
	}
	for _, b := range boards {
		rc.Boards = append(rc.Boards, Board{
			Name: b.Name,
			Dir:  resolvePath(root, b.Dir, filepath.Join(b.Name, "dat")),
		})
	}
	return rc
}

func resolvePath(root string, p string, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		p = fallback
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
