package sync

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olsync/olsync/internal/db"
)

const baselineSchema = `
CREATE TABLE IF NOT EXISTS baseline (
    path TEXT PRIMARY KEY,
    hash TEXT NOT NULL,
    size INTEGER NOT NULL,
    modified_at TEXT NOT NULL -- RFC3339
);
`

// BaselineEntry is a path's recorded state at the end of the last
// successful run.
type BaselineEntry struct {
	Path       string
	Hash       string
	Size       int64
	ModifiedAt time.Time
}

type dbBaselineEntry struct {
	Path       string `db:"path"`
	Hash       string `db:"hash"`
	Size       int64  `db:"size"`
	ModifiedAt string `db:"modified_at"`
}

// BaselineStore persists per-path content hashes in SQLite. It is optional:
// the engine runs stateless without it, at the cost of coarser conflict
// detection.
type BaselineStore struct {
	db     *sqlx.DB
	dbPath string
}

func NewBaselineStore(dbPath string) *BaselineStore {
	return &BaselineStore{dbPath: dbPath}
}

// Open the store and the underlying database.
func (s *BaselineStore) Open() error {
	if s.db != nil {
		return fmt.Errorf("baseline store already open")
	}

	conn, err := db.NewSqliteDb(db.WithPath(s.dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return fmt.Errorf("open baseline store: %w", err)
	}

	if _, err := conn.Exec(baselineSchema); err != nil {
		conn.Close()
		return fmt.Errorf("initialize baseline schema: %w", err)
	}

	s.db = conn
	return nil
}

// Close closes the underlying database connection.
func (s *BaselineStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Lookup implements BaselineLookup. A missing row or a corrupt timestamp
// yields nil, which degrades that path to the stateless heuristic.
func (s *BaselineStore) Lookup(path string) *BaselineEntry {
	var row dbBaselineEntry
	err := s.db.Get(&row, "SELECT path, hash, size, modified_at FROM baseline WHERE path = ?", path)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("baseline lookup failed", "path", path, "error", err)
		}
		return nil
	}

	modifiedAt, err := time.Parse(time.RFC3339, row.ModifiedAt)
	if err != nil {
		slog.Warn("baseline timestamp corrupt", "path", path, "value", row.ModifiedAt)
		return nil
	}

	return &BaselineEntry{
		Path:       row.Path,
		Hash:       row.Hash,
		Size:       row.Size,
		ModifiedAt: modifiedAt,
	}
}

// Set inserts or updates the entry for a path.
func (s *BaselineStore) Set(entry *BaselineEntry) error {
	if entry == nil {
		return fmt.Errorf("cannot set nil baseline entry")
	}

	row := dbBaselineEntry{
		Path:       entry.Path,
		Hash:       entry.Hash,
		Size:       entry.Size,
		ModifiedAt: entry.ModifiedAt.Format(time.RFC3339),
	}

	query := `INSERT OR REPLACE INTO baseline (path, hash, size, modified_at)
	          VALUES (:path, :hash, :size, :modified_at)`
	if _, err := s.db.NamedExec(query, row); err != nil {
		return fmt.Errorf("set baseline for %s: %w", entry.Path, err)
	}
	return nil
}

// Delete removes the entry for a path.
func (s *BaselineStore) Delete(path string) error {
	if _, err := s.db.Exec("DELETE FROM baseline WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete baseline for %s: %w", path, err)
	}
	return nil
}

// Count returns the number of recorded paths.
func (s *BaselineStore) Count() (int, error) {
	var count int
	if err := s.db.Get(&count, "SELECT COUNT(*) FROM baseline"); err != nil {
		return 0, fmt.Errorf("count baseline entries: %w", err)
	}
	return count, nil
}
