package health

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // SQLite driver "sqlite" (pure Go)
)

// Supported history drivers.
const (
	DriverModernc = "sqlite"
	DriverCgo     = "sqlite3"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS probe_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	probed_at INTEGER NOT NULL,
	stream TEXT NOT NULL,
	ok INTEGER NOT NULL,
	error TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_probe_results_probed_at ON probe_results(probed_at);
`

// HistoryConfig configures a HistoryStore.
type HistoryConfig struct {
	// Driver is DriverModernc or DriverCgo.
	Driver string

	// Path is the database file path.
	Path string

	// MaxRecords caps stored results; older rows are pruned on insert.
	// Zero keeps everything.
	MaxRecords int
}

// HistoryStore persists probe results in SQLite.
type HistoryStore struct {
	db         *sql.DB
	maxRecords int
	logger     *slog.Logger

	insertStmt *sql.Stmt
	pruneStmt  *sql.Stmt
}

// OpenHistory opens (creating if needed) the probe history database.
func OpenHistory(cfg HistoryConfig) (*HistoryStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}
	switch cfg.Driver {
	case "":
		cfg.Driver = DriverModernc
	case DriverModernc, DriverCgo:
	default:
		return nil, fmt.Errorf("unsupported history driver %q", cfg.Driver)
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &HistoryStore{
		db:         db,
		maxRecords: cfg.MaxRecords,
		logger:     slog.Default().With("component", "health.history"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Debug("probe history opened", "driver", cfg.Driver, "path", cfg.Path)
	return s, nil
}

func (s *HistoryStore) initialize() error {
	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;"} {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(historySchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	var err error
	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO probe_results (probed_at, stream, ok, error, duration_ms)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM probe_results
		WHERE id NOT IN (SELECT id FROM probe_results ORDER BY id DESC LIMIT ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune: %w", err)
	}
	return nil
}

// Record stores r and prunes old rows beyond MaxRecords.
func (s *HistoryStore) Record(ctx context.Context, r Result) error {
	ok := 0
	if r.OK {
		ok = 1
	}

	if _, err := s.insertStmt.ExecContext(ctx,
		r.Time.UnixMilli(), r.Stream, ok, r.Error, r.Duration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("failed to insert probe result: %w", err)
	}

	if s.maxRecords > 0 {
		res, err := s.pruneStmt.ExecContext(ctx, s.maxRecords)
		if err != nil {
			return fmt.Errorf("failed to prune probe results: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.logger.Debug("pruned probe results", "deleted_count", n)
		}
	}
	return nil
}

// List returns up to limit results, newest first. limit <= 0 returns all.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]Result, error) {
	query := `SELECT probed_at, stream, ok, error, duration_ms FROM probe_results ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query probe results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			probedAt, durationMS int64
			ok                   int
			r                    Result
		)
		if err := rows.Scan(&probedAt, &r.Stream, &ok, &r.Error, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan probe result: %w", err)
		}
		r.Time = time.UnixMilli(probedAt).UTC()
		r.OK = ok == 1
		r.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	if s.pruneStmt != nil {
		s.pruneStmt.Close()
	}
	return s.db.Close()
}
