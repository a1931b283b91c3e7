package gardensync

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const refillCostKey = "apSettings.gardenRefillCost"

// Settings is the subset of the site's system settings this job reads.
type Settings struct {
	RefillCost int
}

// LoadSettings falls back to defaults when the file or the key is missing. On
// a parse failure it returns the defaults and the error, which callers only
// log. Any integer cost is honoured, 0 included.
func LoadSettings(path string) (Settings, error) {
	s := Settings{RefillCost: DefaultRefillCost}
	if strings.TrimSpace(path) == "" {
		return s, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault(refillCostKey, DefaultRefillCost)
	if err := v.ReadInConfig(); err != nil {
		return s, err
	}
	cost, err := cast.ToIntE(v.Get(refillCostKey))
	if err != nil {
		return s, fmt.Errorf("%s: %w", refillCostKey, err)
	}
	s.RefillCost = cost
	return s, nil
}

// LoadAdminID returns "" without error when the file does not exist, which
// disables trigger detection.
func LoadAdminID(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(strings.TrimPrefix(string(b), "\ufeff")), nil
}
