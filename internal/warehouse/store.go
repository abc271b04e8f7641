package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"hopper/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS warehouse_rows (
    natural_key   TEXT PRIMARY KEY,
    source        TEXT NOT NULL,
    ingested_at   TEXT NOT NULL,
    quality_score REAL NOT NULL,
    payload_json  TEXT NOT NULL,
    loaded_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_warehouse_rows_source ON warehouse_rows(source);
`

// Store manages warehouse persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the warehouse database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.WarehouseDir, "warehouse.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Count returns the total number of persisted rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM warehouse_rows`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return count, nil
}

// CountBySource returns persisted row counts grouped by source category.
func (s *Store) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(1) FROM warehouse_rows GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		counts[source] = count
	}
	return counts, rows.Err()
}

// CheckHealth returns diagnostic information about the warehouse database.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("warehouse database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat warehouse database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("warehouse database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("warehouse database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping warehouse database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'warehouse_rows'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
			return health, nil
		}
		health.Error = err.Error()
		return health, fmt.Errorf("query table info: %w", err)
	}
	health.TableExists = true

	if health.TotalRows, err = s.Count(connCtx); err != nil {
		health.Error = err.Error()
		return health, err
	}
	if health.RowsBySource, err = s.CountBySource(connCtx); err != nil {
		health.Error = err.Error()
		return health, err
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
