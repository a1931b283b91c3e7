package gardensync

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// CacheEntry is the memoized extraction of one thread file.
type CacheEntry struct {
	MTime  int64      `json:"mtime"`
	Size   int64      `json:"size"`
	Params string     `json:"params"`
	Data   FileResult `json:"data"`
}

// FileCache memoizes per-file extraction keyed by absolute path. It is purely
// advisory: a lost or corrupt cache only forces files to be parsed again.
type FileCache struct {
	entries map[string]*CacheEntry
	seen    map[string]struct{}
}

func NewFileCache() *FileCache {
	return &FileCache{
		entries: make(map[string]*CacheEntry),
		seen:    make(map[string]struct{}),
	}
}

// LoadFileCache returns an empty cache when path is missing. A corrupt file
// also yields an empty cache, together with the parse error for logging.
func LoadFileCache(path string) (*FileCache, error) {
	c := NewFileCache()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	var entries map[string]*CacheEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return c, fmt.Errorf("parse cache %s: %w", path, err)
	}
	for p, e := range entries {
		if e != nil {
			c.entries[p] = e
		}
	}
	return c, nil
}

// TriggerParams fingerprints the trigger settings a cached result was computed with.
func TriggerParams(adminID string, threshold int) string {
	if adminID == "" {
		return ""
	}
	return fmt.Sprintf("%s|%d", adminID, threshold)
}

// Get hits only when mtime and size match exactly, the entry carries trigger
// data and it was computed with the same trigger params.
func (c *FileCache) Get(path string, mtime time.Time, size int64, params string) (FileResult, bool) {
	c.seen[path] = struct{}{}
	e, ok := c.entries[path]
	if !ok {
		return FileResult{}, false
	}
	if e.MTime != mtime.UnixNano() || e.Size != size || e.Params != params {
		return FileResult{}, false
	}
	// entries written before trigger detection existed
	if e.Data.SecretTriggers == nil {
		return FileResult{}, false
	}
	res := e.Data
	if res.UserStats == nil {
		res.UserStats = UserStats{}
	}
	return res, true
}

func (c *FileCache) Put(path string, mtime time.Time, size int64, params string, res FileResult) {
	c.seen[path] = struct{}{}
	if res.UserStats == nil {
		res.UserStats = UserStats{}
	}
	if res.SecretTriggers == nil {
		res.SecretTriggers = Triggers{}
	}
	c.entries[path] = &CacheEntry{MTime: mtime.UnixNano(), Size: size, Params: params, Data: res}
}

// Retain drops entries for files that were not looked up since the cache was
// loaded, i.e. files that disappeared from every board. It returns the count.
func (c *FileCache) Retain() int {
	n := 0
	for p := range c.entries {
		if _, ok := c.seen[p]; !ok {
			delete(c.entries, p)
			n++
		}
	}
	return n
}

func (c *FileCache) Len() int { return len(c.entries) }

func (c *FileCache) Save(path string) error {
	return WriteJSONAtomic(path, c.entries, false)
}
