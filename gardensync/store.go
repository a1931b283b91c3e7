package gardensync

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("game key not found")

const (
	upsertBatchSize = 500
	deleteBatchSize = 500
)

const createGameIDsTable = `CREATE TABLE IF NOT EXISTS game_ids (id TEXT PRIMARY KEY, data TEXT NOT NULL)`

// Pragmas go in the DSN so the driver applies them to every pooled connection.
var (
	writePragmas = []string{"busy_timeout(5000)", "journal_mode(WAL)", "synchronous(NORMAL)"}
	readPragmas  = []string{"busy_timeout(5000)"}
)

func sqliteDSN(path string, pragmas []string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// OpenDB opens the state database in WAL mode so the web service can keep
// reading while a run writes.
func OpenDB(path string) (*gorm.DB, error) {
	db, err := openSQLite(path, writePragmas)
	if err != nil {
		return nil, err
	}
	// same DDL as the web service; AutoMigrate would retype data as JSON
	if err := db.Exec(createGameIDsTable).Error; err != nil {
		closeDB(db)
		return nil, err
	}
	return db, nil
}

// OpenQueryDB opens an existing database without touching its schema.
func OpenQueryDB(path string) (*gorm.DB, error) {
	return openSQLite(path, readPragmas)
}

func openSQLite(path string, pragmas []string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(sqliteDSN(path, pragmas)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// LoadState reads every stored entry. Rows whose data does not decode are
// skipped and counted.
func LoadState(db *gorm.DB) (FinalState, int, error) {
	var rows []GameIDRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	state := make(FinalState, len(rows))
	skipped := 0
	for _, row := range rows {
		var e FinalEntry
		if err := json.Unmarshal(row.Data, &e); err != nil {
			skipped++
			continue
		}
		e.normalize()
		state[row.ID] = &e
	}
	return state, skipped, nil
}

// SaveState upserts every entry and deletes rows for keys no longer in state,
// all in one transaction.
func SaveState(db *gorm.DB, state FinalState) error {
	keys := state.Keys()
	rows := make([]GameIDRow, 0, len(keys))
	for _, key := range keys {
		e := state[key]
		e.normalize()
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		rows = append(rows, GameIDRow{ID: key, Data: b})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"data"}),
			}).CreateInBatches(&rows, upsertBatchSize).Error
			if err != nil {
				return err
			}
		}
		return deleteStale(tx, state)
	})
}

// deleteStale removes rows whose key is not in state, in chunks that stay well
// under SQLite's bound-variable limit.
func deleteStale(tx *gorm.DB, state FinalState) error {
	var stored []string
	if err := tx.Model(&GameIDRow{}).Pluck("id", &stored).Error; err != nil {
		return err
	}
	var stale []string
	for _, id := range stored {
		if _, ok := state[id]; !ok {
			stale = append(stale, id)
		}
	}
	for start := 0; start < len(stale); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(stale))
		if err := tx.Where("id IN ?", stale[start:end]).Delete(&GameIDRow{}).Error; err != nil {
			return err
		}
	}
	return nil
}

func LookupEntry(db *gorm.DB, key string) (*FinalEntry, error) {
	var row GameIDRow
	err := db.Where("id = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	var e FinalEntry
	if err := json.Unmarshal(row.Data, &e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	e.normalize()
	return &e, nil
}
