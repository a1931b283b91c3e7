package gardensync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoRecords marks a readable file that produced nothing countable.
var ErrNoRecords = errors.New("no countable records")

type OutcomeStatus int

const (
	OutcomeOK OutcomeStatus = iota
	// OutcomeEmpty: the file was read but contributes nothing (undecodable or no records).
	OutcomeEmpty
	// OutcomeFailed: the file could not be read; its contribution is dropped for this run.
	OutcomeFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileOutcome is the typed result of extracting one thread file.
type FileOutcome struct {
	Path   string
	Result FileResult
	Status OutcomeStatus
	Err    error
	Cached bool
}

type ExtractOptions struct {
	Parse    ParseOptions
	Detector *TriggerDetector
}

func ExtractFile(path string, opts ExtractOptions) FileOutcome {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileOutcome{Path: path, Result: NewFileResult(), Status: OutcomeFailed, Err: err}
	}
	text, err := decodeText(content)
	if err != nil {
		return FileOutcome{Path: path, Result: NewFileResult(), Status: OutcomeEmpty, Err: err}
	}
	res, n := ExtractText(text, opts)
	if n == 0 {
		return FileOutcome{Path: path, Result: res, Status: OutcomeEmpty, Err: ErrNoRecords}
	}
	return FileOutcome{Path: path, Result: res, Status: OutcomeOK}
}

// ExtractText runs every line through the parser, key extractor, trigger
// detector and counter. It returns the number of records counted.
func ExtractText(text string, opts ExtractOptions) (FileResult, int) {
	res := NewFileResult()
	n := 0
	for _, line := range strings.Split(text, "\n") {
		rec, nt, ok := ParseLine(line, opts.Parse)
		if !ok {
			continue
		}
		n++
		res.UserStats.Add(rec.UserID, nt.Date, nt.Hour, 1)

		if key, ok := ExtractGameKey(rec.AuthorField, rec.Body); ok {
			res.GameToUser.Bind(key, rec.UserID)
		}
		if hash, _, ok := opts.Detector.Detect(rec); ok {
			res.SecretTriggers.Add(rec.UserID, hash)
		}
	}
	return res, n
}

// IsThreadFile matches <threadId>.dat and <threadId>.dat.txt.
func IsThreadFile(name string) bool {
	return strings.HasSuffix(name, ".dat") || strings.HasSuffix(name, ".dat.txt")
}

// Board is one directory of thread files.
type Board struct {
	Name string
	Dir  string
}

type DirReport struct {
	Board     string
	Dir       string
	Files     int
	CacheHits int
	Parsed    int
	Empty     int
	Failed    int
}

// Scanner walks board directories, consulting the cache before parsing.
type Scanner struct {
	Cache   *FileCache
	Options ExtractOptions
	Params  string
	Log     *zap.Logger
}

func (s *Scanner) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// ScanBoards merges every board directory; a key bound again in a later
// board takes the later user. Missing directories are skipped.
func (s *Scanner) ScanBoards(boards []Board) (FileResult, []DirReport) {
	total := NewFileResult()
	reports := make([]DirReport, 0, len(boards))
	for _, b := range boards {
		info, err := os.Stat(b.Dir)
		if err != nil || !info.IsDir() {
			s.logger().Debug("board directory missing, skipping", zap.String("board", b.Name), zap.String("dir", b.Dir))
			continue
		}
		res, rep, err := s.ScanDirectory(b.Dir)
		rep.Board = b.Name
		if err != nil {
			s.logger().Warn("scan board failed", zap.String("board", b.Name), zap.Error(err))
		}
		reports = append(reports, rep)
		total = MergeLaterWins(total, res)
	}
	return total, reports
}

// ScanDirectory extracts every thread file in dir in name order; within the
// directory a key keeps the user it was first bound to.
func (s *Scanner) ScanDirectory(dir string) (FileResult, DirReport, error) {
	rep := DirReport{Dir: dir}
	total := NewFileResult()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return total, rep, fmt.Errorf("read dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsThreadFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		out := s.scanFile(filepath.Join(dir, name))
		rep.Files++
		switch {
		case out.Cached:
			rep.CacheHits++
		case out.Status == OutcomeOK:
			rep.Parsed++
		case out.Status == OutcomeEmpty:
			rep.Empty++
		default:
			rep.Failed++
		}
		if out.Err != nil && !errors.Is(out.Err, ErrNoRecords) {
			s.logger().Warn("thread file skipped",
				zap.String("path", out.Path),
				zap.Stringer("status", out.Status),
				zap.Error(out.Err))
		}
		total = MergeFirstWins(total, out.Result)
	}
	return total, rep, nil
}

func (s *Scanner) scanFile(path string) FileOutcome {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileOutcome{Path: abs, Result: NewFileResult(), Status: OutcomeFailed, Err: err}
	}
	if s.Cache != nil {
		if res, ok := s.Cache.Get(abs, info.ModTime(), info.Size(), s.Params); ok && stillRelevant(res, s.Options.Parse) {
			return FileOutcome{Path: abs, Result: res, Status: OutcomeOK, Cached: true}
		}
	}
	out := ExtractFile(abs, s.Options)
	if s.Cache != nil && out.Status != OutcomeFailed {
		s.Cache.Put(abs, info.ModTime(), info.Size(), s.Params, out.Result)
	}
	return out
}

// stillRelevant reports whether every post counted in res is still inside the
// relevance window. Each counted post adds to UserStats, so a result that
// passes contributes no key binding or trigger from an aged-out post.
func stillRelevant(res FileResult, opts ParseOptions) bool {
	loc := opts.location()
	for _, dates := range res.UserStats {
		for date, hours := range dates {
			day, err := time.ParseInLocation(dateLayout, date, loc)
			if err != nil {
				return false
			}
			for h := range hours {
				if !opts.relevant(time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, loc)) {
					return false
				}
			}
		}
	}
	return true
}
