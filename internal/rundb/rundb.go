// Package rundb stores scan history in sqlite: which run directories were
// scanned, the per-cycle costs found there, and the outcomes of misfit
// cross-checks. The report server reads everything it serves from here.
package rundb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/margaretmurakami/ecco-2024/internal/cost"
	"github.com/margaretmurakami/ecco-2024/internal/optim"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the history database and ensures the schema.
// Deployments that manage schema versions explicitly can run MigrateUp
// against the migrations directory instead; EnsureSchema is idempotent
// and matches migration 0001.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000; PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	d := &DB{db}
	if err := d.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// EnsureSchema creates the tables if they are missing.
func (db *DB) EnsureSchema() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			root_path   TEXT NOT NULL,
			experiment  TEXT,
			created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS iterations (
			run_id      TEXT NOT NULL,
			cycle       INTEGER NOT NULL,
			fc          DOUBLE NOT NULL,
			terms_json  TEXT,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, cycle),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS misfit_checks (
			check_id    INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			cycle       INTEGER NOT NULL,
			recomputed  DOUBLE NOT NULL,
			logged      DOUBLE NOT NULL,
			rel_err     DOUBLE NOT NULL,
			passed      BOOLEAN NOT NULL,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Run is one scanned run directory.
type Run struct {
	RunID      string    `json:"run_id"`
	RootPath   string    `json:"root_path"`
	Experiment string    `json:"experiment"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordRun registers a run directory and returns its id. Rescanning the
// same path reuses the existing row.
func (db *DB) RecordRun(rootPath, experiment string) (string, error) {
	var id string
	err := db.QueryRow("SELECT run_id FROM runs WHERE root_path = ?", rootPath).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("look up run: %w", err)
	}

	id = uuid.NewString()
	if _, err := db.Exec("INSERT INTO runs (run_id, root_path, experiment) VALUES (?, ?, ?)",
		id, rootPath, experiment); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// RecordIterations upserts the scanned cycles of a run.
func (db *DB) RecordIterations(runID string, iters []optim.Iteration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, it := range iters {
		terms, err := json.Marshal(it.Terms)
		if err != nil {
			return fmt.Errorf("marshal terms for cycle %d: %w", it.Cycle, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO iterations (run_id, cycle, fc, terms_json) VALUES (?, ?, ?, ?)
			ON CONFLICT (run_id, cycle) DO UPDATE SET fc = excluded.fc, terms_json = excluded.terms_json`,
			runID, it.Cycle, it.FC, string(terms)); err != nil {
			return fmt.Errorf("upsert cycle %d: %w", it.Cycle, err)
		}
	}
	return tx.Commit()
}

// IterationRow is one stored cycle.
type IterationRow struct {
	RunID string               `json:"run_id"`
	Cycle int                  `json:"cycle"`
	FC    float64              `json:"fc"`
	Terms map[string]cost.Term `json:"terms,omitempty"`
}

// Iterations returns the stored cycles of a run in ascending cycle order.
func (db *DB) Iterations(runID string) ([]IterationRow, error) {
	rows, err := db.Query("SELECT run_id, cycle, fc, terms_json FROM iterations WHERE run_id = ? ORDER BY cycle", runID)
	if err != nil {
		return nil, fmt.Errorf("query iterations: %w", err)
	}
	defer rows.Close()

	var out []IterationRow
	for rows.Next() {
		var r IterationRow
		var termsJSON sql.NullString
		if err := rows.Scan(&r.RunID, &r.Cycle, &r.FC, &termsJSON); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		if termsJSON.Valid && termsJSON.String != "" {
			if err := json.Unmarshal([]byte(termsJSON.String), &r.Terms); err != nil {
				return nil, fmt.Errorf("decode terms for cycle %d: %w", r.Cycle, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs lists all recorded runs, most recent first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query("SELECT run_id, root_path, COALESCE(experiment, ''), created_at FROM runs ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.RootPath, &r.Experiment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordMisfitCheck stores the outcome of one cost cross-check.
func (db *DB) RecordMisfitCheck(runID string, cycle int, res cost.CheckResult) error {
	_, err := db.Exec(`
		INSERT INTO misfit_checks (run_id, cycle, recomputed, logged, rel_err, passed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, cycle, res.Recomputed, res.Logged, res.RelErr, res.Passed)
	if err != nil {
		return fmt.Errorf("insert misfit check: %w", err)
	}
	return nil
}

// MisfitCheckRow is one stored cross-check outcome.
type MisfitCheckRow struct {
	RunID      string  `json:"run_id"`
	Cycle      int     `json:"cycle"`
	Recomputed float64 `json:"recomputed"`
	Logged     float64 `json:"logged"`
	RelErr     float64 `json:"rel_err"`
	Passed     bool    `json:"passed"`
}

// MisfitChecks returns the stored cross-checks of a run, newest first.
func (db *DB) MisfitChecks(runID string) ([]MisfitCheckRow, error) {
	rows, err := db.Query(`
		SELECT run_id, cycle, recomputed, logged, rel_err, passed
		FROM misfit_checks WHERE run_id = ? ORDER BY check_id DESC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query misfit checks: %w", err)
	}
	defer rows.Close()

	var out []MisfitCheckRow
	for rows.Next() {
		var r MisfitCheckRow
		if err := rows.Scan(&r.RunID, &r.Cycle, &r.Recomputed, &r.Logged, &r.RelErr, &r.Passed); err != nil {
			return nil, fmt.Errorf("scan misfit check: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
