// Package storage provides SQLite-based persistence for dispatch traces: one row per
// console run, per task invocation and per phase change.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for traces.
type Store struct {
	db *sql.DB
}

// Run is one console session.
type Run struct {
	ID          int64
	Backend     string
	FrequencyHz uint32
	StartedAt   time.Time
	EndedAt     time.Time // Zero while the run is open
	EndReason   string
}

// DispatchRecord is one task invocation.
type DispatchRecord struct {
	Task     string
	Priority int
	Deadline uint64
	Start    uint64
	End      uint64
	Lateness uint64
	Err      string
}

// TransitionRecord is one phase change.
type TransitionRecord struct {
	From    string
	To      string
	AtCycle uint64
	Score   int
}

// TaskStats aggregates the dispatches of one task in a run.
type TaskStats struct {
	Task         string
	Dispatches   int
	Errors       int
	MaxLateness  uint64
	MeanLateness float64
	MaxRunCycles uint64
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// One connection serialises writers from concurrent tracers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			backend TEXT NOT NULL,
			frequency_hz INTEGER NOT NULL,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			end_reason TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS dispatches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			task TEXT NOT NULL,
			priority INTEGER NOT NULL,
			deadline INTEGER NOT NULL,
			start_cycle INTEGER NOT NULL,
			end_cycle INTEGER NOT NULL,
			lateness INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_dispatches_run ON dispatches(run_id, task);

		CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			from_phase TEXT NOT NULL,
			to_phase TEXT NOT NULL,
			at_cycle INTEGER NOT NULL,
			score INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_transitions_run ON transitions(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginRun opens a run and returns its ID.
func (s *Store) BeginRun(backend string, frequencyHz uint32) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO runs (backend, frequency_hz) VALUES (?, ?)",
		backend, frequencyHz,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// EndRun closes a run with the reason it stopped.
func (s *Store) EndRun(runID int64, reason string) error {
	_, err := s.db.Exec(
		"UPDATE runs SET ended_at = CURRENT_TIMESTAMP, end_reason = ? WHERE id = ?",
		reason, runID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot end run: %w", err)
	}
	return nil
}

// SaveDispatches inserts a batch of dispatches in one transaction.
func (s *Store) SaveDispatches(runID int64, records []DispatchRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	stmt, err := tx.Prepare(
		`INSERT INTO dispatches
		 (run_id, task, priority, deadline, start_cycle, end_cycle, lateness, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot prepare dispatch insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(runID, r.Task, r.Priority, r.Deadline, r.Start, r.End, r.Lateness, r.Err); err != nil {
			return fmt.Errorf("storage: cannot save dispatch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit dispatches: %w", err)
	}
	return nil
}

// SaveTransition records one phase change.
func (s *Store) SaveTransition(runID int64, t TransitionRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO transitions (run_id, from_phase, to_phase, at_cycle, score)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, t.From, t.To, t.AtCycle, t.Score,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save transition: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, backend, frequency_hz, started_at, ended_at, end_reason
		 FROM runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt, endedAt any
		if err := rows.Scan(&r.ID, &r.Backend, &r.FrequencyHz, &startedAt, &endedAt, &r.EndReason); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.StartedAt = parseTime(startedAt)
		r.EndedAt = parseTime(endedAt)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return runs, nil
}

// LatestRunID returns the newest run, or 0 when there are none.
func (s *Store) LatestRunID() (int64, error) {
	var id sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(id) FROM runs").Scan(&id); err != nil {
		return 0, fmt.Errorf("storage: cannot query latest run: %w", err)
	}
	if !id.Valid {
		return 0, nil
	}
	return id.Int64, nil
}

// RunByID returns one run, or nil if it does not exist.
func (s *Store) RunByID(runID int64) (*Run, error) {
	var r Run
	var startedAt, endedAt any
	err := s.db.QueryRow(
		`SELECT id, backend, frequency_hz, started_at, ended_at, end_reason
		 FROM runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.Backend, &r.FrequencyHz, &startedAt, &endedAt, &r.EndReason)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}

	r.StartedAt = parseTime(startedAt)
	r.EndedAt = parseTime(endedAt)
	return &r, nil
}

// TaskStats aggregates dispatch counts and lateness per task for a run.
func (s *Store) TaskStats(runID int64) ([]TaskStats, error) {
	rows, err := s.db.Query(
		`SELECT task, COUNT(*),
		        COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
		        COALESCE(MAX(lateness), 0), COALESCE(AVG(lateness), 0),
		        COALESCE(MAX(end_cycle - start_cycle), 0)
		 FROM dispatches
		 WHERE run_id = ?
		 GROUP BY task
		 ORDER BY task`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get task stats: %w", err)
	}
	defer rows.Close()

	var stats []TaskStats
	for rows.Next() {
		var st TaskStats
		if err := rows.Scan(&st.Task, &st.Dispatches, &st.Errors, &st.MaxLateness, &st.MeanLateness, &st.MaxRunCycles); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// Transitions returns the phase changes of a run in order.
func (s *Store) Transitions(runID int64) ([]TransitionRecord, error) {
	rows, err := s.db.Query(
		`SELECT from_phase, to_phase, at_cycle, score
		 FROM transitions
		 WHERE run_id = ?
		 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query transitions: %w", err)
	}
	defer rows.Close()

	var out []TransitionRecord
	for rows.Next() {
		var t TransitionRecord
		if err := rows.Scan(&t.From, &t.To, &t.AtCycle, &t.Score); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// parseTime handles the driver returning either time.Time or a string.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
