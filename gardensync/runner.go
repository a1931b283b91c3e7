package gardensync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RunnerConfig struct {
	DataRoot     string
	Boards       []Board
	DBPath       string
	SnapshotPath string
	CachePath    string
	AdminIDPath  string
	SettingsPath string

	// Location is the boards' timezone; dates and windows are evaluated in it.
	Location        *time.Location
	RelevanceWindow time.Duration
	RetentionWindow time.Duration

	Logger *zap.Logger
	// Now is overridable for tests.
	Now func() time.Time
}

type Runner struct {
	cfg RunnerConfig
	db  *gorm.DB
	log *zap.Logger
}

// RunStats summarises one run.
type RunStats struct {
	RunID         string
	Boards        []DirReport
	Existing      int
	Keys          int
	CachePruned   int
	Reconcile     ReconcileReport
	StoreSaved    bool
	SnapshotSaved bool
	CacheSaved    bool
	Elapsed       time.Duration
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if len(cfg.Boards) == 0 {
		return nil, fmt.Errorf("Boards is required")
	}
	if strings.TrimSpace(cfg.DBPath) == "" && strings.TrimSpace(cfg.SnapshotPath) == "" {
		return nil, fmt.Errorf("DBPath or SnapshotPath is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.RelevanceWindow <= 0 {
		cfg.RelevanceWindow = DefaultRelevanceWindow
	}
	if cfg.RetentionWindow <= 0 {
		cfg.RetentionWindow = DefaultRetentionWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, log: log}, nil
}

func (r *Runner) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	r.db = nil
	return err
}

func (r *Runner) ensureDB() error {
	if r.db != nil {
		return nil
	}
	if strings.TrimSpace(r.cfg.DBPath) == "" {
		return fmt.Errorf("no database configured")
	}
	db, err := OpenDB(r.cfg.DBPath)
	if err != nil {
		return err
	}
	r.db = db
	return nil
}

// RunOnce scans every board, reconciles against the persisted state and
// writes the store, the snapshot and the cache. No single failure stops the
// run; the returned error joins the persistence failures, if any.
func (r *Runner) RunOnce() (RunStats, error) {
	start := time.Now()
	now := r.cfg.Now()
	stats := RunStats{RunID: uuid.NewString()}
	log := r.log.With(zap.String("run_id", stats.RunID))
	log.Info("run start", zap.Int("boards", len(r.cfg.Boards)))

	settings, err := LoadSettings(r.cfg.SettingsPath)
	if err != nil {
		log.Warn("settings unreadable, using defaults", zap.String("path", r.cfg.SettingsPath), zap.Error(err))
	}
	adminID, err := LoadAdminID(r.cfg.AdminIDPath)
	if err != nil {
		log.Warn("admin id unreadable, trigger detection off", zap.String("path", r.cfg.AdminIDPath), zap.Error(err))
	}
	if adminID != "" {
		log.Debug("trigger detection on", zap.String("admin_id", adminID), zap.Int("refill_cost", settings.RefillCost))
	}

	cache, err := LoadFileCache(r.cfg.CachePath)
	if err != nil {
		log.Warn("cache unreadable, starting empty", zap.String("path", r.cfg.CachePath), zap.Error(err))
	}

	existing := r.loadExisting(log)
	stats.Existing = len(existing)

	scanner := &Scanner{
		Cache: cache,
		Options: ExtractOptions{
			Parse: ParseOptions{
				Now:             now,
				RelevanceWindow: r.cfg.RelevanceWindow,
				Location:        r.cfg.Location,
			},
			Detector: NewTriggerDetector(adminID, settings.RefillCost),
		},
		Params: TriggerParams(adminID, settings.RefillCost),
		Log:    log,
	}
	scan, reports := scanner.ScanBoards(r.cfg.Boards)
	stats.Boards = reports
	for _, rep := range reports {
		log.Info("board scanned",
			zap.String("board", rep.Board),
			zap.Int("files", rep.Files),
			zap.Int("cache_hits", rep.CacheHits),
			zap.Int("parsed", rep.Parsed),
			zap.Int("empty", rep.Empty),
			zap.Int("failed", rep.Failed))
	}
	stats.CachePruned = cache.Retain()

	final, rep := Reconcile(existing, scan, ReconcileOptions{
		Now:             now,
		RetentionWindow: r.cfg.RetentionWindow,
		Location:        r.cfg.Location,
	})
	stats.Reconcile = rep
	stats.Keys = len(final)
	for _, d := range rep.Deduplicated {
		log.Debug("deduplicated user", zap.String("user_id", d.UserID), zap.String("kept", d.Kept), zap.Strings("dropped", d.Dropped))
	}
	log.Info("reconciled",
		zap.Int("keys", stats.Keys),
		zap.Int("routed_users", rep.RoutedUsers),
		zap.Int("dropped_users", rep.DroppedUsers),
		zap.Int("created_keys", rep.CreatedKeys),
		zap.Int("pruned_keys", rep.PrunedKeys),
		zap.Int("deduplicated_users", len(rep.Deduplicated)),
		zap.Int("triggers_added", rep.TriggersAdded))

	var errs []error
	if err := r.saveStore(final); err != nil {
		log.Error("store save failed", zap.String("path", r.cfg.DBPath), zap.Error(err))
		errs = append(errs, fmt.Errorf("store: %w", err))
	} else if r.db != nil {
		stats.StoreSaved = true
	}
	if r.cfg.SnapshotPath != "" {
		if err := SaveSnapshot(r.cfg.SnapshotPath, final); err != nil {
			log.Error("snapshot save failed", zap.String("path", r.cfg.SnapshotPath), zap.Error(err))
			errs = append(errs, fmt.Errorf("snapshot: %w", err))
		} else {
			stats.SnapshotSaved = true
		}
	}
	if r.cfg.CachePath != "" {
		if err := cache.Save(r.cfg.CachePath); err != nil {
			log.Error("cache save failed", zap.String("path", r.cfg.CachePath), zap.Error(err))
			errs = append(errs, fmt.Errorf("cache: %w", err))
		} else {
			stats.CacheSaved = true
		}
	}

	stats.Elapsed = time.Since(start)
	log.Info("run done",
		zap.Bool("store_saved", stats.StoreSaved),
		zap.Bool("snapshot_saved", stats.SnapshotSaved),
		zap.Bool("cache_saved", stats.CacheSaved),
		zap.Duration("elapsed", stats.Elapsed))
	return stats, errors.Join(errs...)
}

// loadExisting prefers the store; the snapshot is used when the store cannot
// be opened or is still empty.
func (r *Runner) loadExisting(log *zap.Logger) FinalState {
	if r.cfg.DBPath != "" {
		if err := r.ensureDB(); err != nil {
			log.Warn("store unavailable, falling back to snapshot", zap.String("path", r.cfg.DBPath), zap.Error(err))
		} else {
			state, skipped, err := LoadState(r.db)
			if skipped > 0 {
				log.Warn("undecodable store rows skipped", zap.Int("rows", skipped))
			}
			if err != nil {
				log.Warn("store read failed, falling back to snapshot", zap.Error(err))
			} else if len(state) > 0 {
				return state
			}
		}
	}
	state, err := LoadSnapshot(r.cfg.SnapshotPath)
	if err != nil {
		log.Warn("snapshot unreadable, starting empty", zap.String("path", r.cfg.SnapshotPath), zap.Error(err))
		return FinalState{}
	}
	return state
}

func (r *Runner) saveStore(final FinalState) error {
	if r.cfg.DBPath == "" {
		return nil
	}
	if err := r.ensureDB(); err != nil {
		return err
	}
	return SaveState(r.db, final)
}
