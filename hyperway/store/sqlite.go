package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store.
//
// It persists run history in a single-file database. Designed for:
//   - Development and testing with zero setup
//   - Single-process runs needing durable results
//   - Prototyping before migrating to a shared server store
//
// The store uses WAL mode for concurrent reads and transactional writes.
//
// Schema:
//   - run_steps: per-step progress marks
//   - run_results: terminal stash entries with JSON-encoded packs
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
	path   string
}

// NewSQLiteStore creates a new SQLite-backed store.
//
// The path specifies the database file location ("./runs.db",
// "/tmp/hyperway.db") or ":memory:" for an in-memory database that is
// lost on close. The store creates the file and schema on first use and
// enables WAL mode.
//
// Example:
//
//	st, err := store.NewSQLiteStore("./runs.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// createTables creates the schema if it doesn't exist.
func (s *SQLiteStore) createTables(ctx context.Context) error {
	stepsTable := `
		CREATE TABLE IF NOT EXISTS run_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			produced INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(run_id, step)
		)
	`
	if _, err := s.db.ExecContext(ctx, stepsTable); err != nil {
		return fmt.Errorf("failed to create run_steps table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_run_steps_run_id ON run_steps(run_id)"); err != nil {
		return fmt.Errorf("failed to create idx_run_steps_run_id: %w", err)
	}

	resultsTable := `
		CREATE TABLE IF NOT EXISTS run_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			unit_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			pack TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(run_id, seq)
		)
	`
	if _, err := s.db.ExecContext(ctx, resultsTable); err != nil {
		return fmt.Errorf("failed to create run_results table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id)"); err != nil {
		return fmt.Errorf("failed to create idx_run_results_run_id: %w", err)
	}
	return nil
}

// SaveStep records a completed step.
func (s *SQLiteStore) SaveStep(ctx context.Context, runID string, step, produced int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO run_steps (run_id, step, produced) VALUES (?, ?, ?)",
		runID, step, produced)
	if err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}
	return nil
}

// SaveResult records a terminal stash entry with a JSON-encoded pack.
func (s *SQLiteStore) SaveResult(ctx context.Context, runID, unitID string, seq int, pack PackRecord) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	data, err := json.Marshal(pack)
	if err != nil {
		return fmt.Errorf("failed to marshal pack: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO run_results (run_id, unit_id, seq, pack) VALUES (?, ?, ?, ?)",
		runID, unitID, seq, string(data))
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// LoadResults returns a run's results ordered by Seq.
func (s *SQLiteStore) LoadResults(ctx context.Context, runID string) ([]ResultRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT unit_id, seq, pack FROM run_results WHERE run_id = ? ORDER BY seq ASC",
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ResultRecord
	for rows.Next() {
		var rec ResultRecord
		var packJSON string
		if err := rows.Scan(&rec.UnitID, &rec.Seq, &packJSON); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(packJSON), &rec.Pack); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pack: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// LatestStep returns the highest recorded step for a run.
func (s *SQLiteStore) LatestStep(ctx context.Context, runID string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	var step sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(step) FROM run_steps WHERE run_id = ?", runID).Scan(&step)
	if err != nil {
		return 0, fmt.Errorf("failed to query latest step: %w", err)
	}
	if !step.Valid {
		return 0, ErrNotFound
	}
	return int(step.Int64), nil
}

// Close closes the database connection. Safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}
