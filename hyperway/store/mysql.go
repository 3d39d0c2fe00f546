package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB implementation of Store.
//
// It persists run history in a relational database. Designed for:
//   - Production runs requiring durable results
//   - Multiple processes writing run history to a shared server
//   - Audit trails over past executions
//
// MySQLStore uses connection pooling; writes are single-statement
// inserts.
//
// Schema:
//   - run_steps: per-step progress marks
//   - run_results: terminal stash entries with JSON-encoded packs
type MySQLStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewMySQLStore creates a new MySQL-backed store.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...]
//
// Example DSNs:
//
//	user:password@tcp(localhost:3306)/hyperway
//	user:password@tcp(127.0.0.1:3306)/hyperway?parseTime=true
//
// Never hardcode credentials; read the DSN from the environment:
//
//	st, err := store.NewMySQLStore(os.Getenv("MYSQL_DSN"))
//
// The store verifies the connection and creates the schema on first use.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// createTables creates the schema if it doesn't exist.
func (m *MySQLStore) createTables(ctx context.Context) error {
	stepsTable := `
		CREATE TABLE IF NOT EXISTS run_steps (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL,
			step INT NOT NULL,
			produced INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_run_step (run_id, step),
			KEY idx_run_steps_run_id (run_id)
		) ENGINE=InnoDB
	`
	if _, err := m.db.ExecContext(ctx, stepsTable); err != nil {
		return fmt.Errorf("failed to create run_steps table: %w", err)
	}

	resultsTable := `
		CREATE TABLE IF NOT EXISTS run_results (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL,
			unit_id VARCHAR(255) NOT NULL,
			seq INT NOT NULL,
			pack JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_run_seq (run_id, seq),
			KEY idx_run_results_run_id (run_id)
		) ENGINE=InnoDB
	`
	if _, err := m.db.ExecContext(ctx, resultsTable); err != nil {
		return fmt.Errorf("failed to create run_results table: %w", err)
	}
	return nil
}

// SaveStep records a completed step.
func (m *MySQLStore) SaveStep(ctx context.Context, runID string, step, produced int) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	_, err := m.db.ExecContext(ctx,
		"INSERT INTO run_steps (run_id, step, produced) VALUES (?, ?, ?)",
		runID, step, produced)
	if err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}
	return nil
}

// SaveResult records a terminal stash entry with a JSON-encoded pack.
func (m *MySQLStore) SaveResult(ctx context.Context, runID, unitID string, seq int, pack PackRecord) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	data, err := json.Marshal(pack)
	if err != nil {
		return fmt.Errorf("failed to marshal pack: %w", err)
	}
	_, err = m.db.ExecContext(ctx,
		"INSERT INTO run_results (run_id, unit_id, seq, pack) VALUES (?, ?, ?, ?)",
		runID, unitID, seq, string(data))
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// LoadResults returns a run's results ordered by Seq.
func (m *MySQLStore) LoadResults(ctx context.Context, runID string) ([]ResultRecord, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx,
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
func (m *MySQLStore) LatestStep(ctx context.Context, runID string) (int, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	var step sql.NullInt64
	err := m.db.QueryRowContext(ctx,
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
func (m *MySQLStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

func (m *MySQLStore) checkOpen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}
