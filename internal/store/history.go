package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/luheng/fupan/internal/contracts"
)

// History records completed scan runs in a local SQLite file. It is
// observability only: scans never read from it, so deleting the file
// loses nothing but the log of past results.
type History struct {
	db *sql.DB
	mu sync.Mutex
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID           string    `json:"id"`
	Profile      string    `json:"profile"`
	ProfileHash  string    `json:"profile_hash"`
	RunAt        time.Time `json:"run_at"`
	Scanned      int       `json:"scanned"`
	Matched      int       `json:"matched"`
	Excluded     int       `json:"excluded"`
	Failed       int       `json:"failed"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
}

// OpenHistory opens (or creates) the history database and runs the
// schema migration.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	// WAL lets the API read while a scheduled scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	h := &History{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return h, nil
}

// Close releases the underlying database handle.
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			profile       TEXT NOT NULL,
			profile_hash  TEXT NOT NULL,
			run_at        INTEGER NOT NULL,
			scanned       INTEGER NOT NULL,
			matched       INTEGER NOT NULL,
			excluded      INTEGER NOT NULL,
			failed        INTEGER NOT NULL,
			artifact_path TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_run_at ON runs(run_at)`,

		`CREATE TABLE IF NOT EXISTS run_verdicts (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			code          TEXT NOT NULL,
			name          TEXT,
			latest_close  REAL,
			support_price REAL,
			score         INTEGER,
			advice        TEXT,
			latest_volume REAL,
			max_volume    REAL,
			low_threshold REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_verdicts_run ON run_verdicts(run_id)`,
	}

	for _, s := range stmts {
		if _, err := h.db.Exec(s); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// RecordRun persists one completed scan with its verdicts atomically.
func (h *History) RecordRun(ctx context.Context, rs *contracts.ResultSet, profileHash string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, profile, profile_hash, run_at, scanned, matched, excluded, failed, artifact_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rs.RunID, rs.Profile, profileHash, rs.RunAt.Unix(),
		rs.Scanned, rs.Matched, rs.Excluded, rs.Failed, rs.ArtifactPath)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, v := range rs.Verdicts {
		_, err = tx.ExecContext(ctx, `INSERT INTO run_verdicts
			(run_id, code, name, latest_close, support_price, score, advice,
			 latest_volume, max_volume, low_threshold)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rs.RunID, v.Code, v.Name, v.LatestClose, v.SupportPrice, v.Score,
			v.Advice, v.LatestVolume, v.MaxVolume, v.LowThreshold)
		if err != nil {
			return fmt.Errorf("insert verdict %s: %w", v.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// GetRun returns one run by id, or nil when no such run exists.
func (h *History) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := h.db.QueryRowContext(ctx, `SELECT
		id, profile, profile_hash, run_at, scanned, matched, excluded, failed,
		COALESCE(artifact_path, '')
		FROM runs WHERE id = ?`, runID)

	var rec RunRecord
	var runAt int64
	err := row.Scan(&rec.ID, &rec.Profile, &rec.ProfileHash, &runAt,
		&rec.Scanned, &rec.Matched, &rec.Excluded, &rec.Failed, &rec.ArtifactPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	rec.RunAt = time.Unix(runAt, 0)
	return &rec, nil
}

// RecentRuns returns up to limit runs, newest first.
func (h *History) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.db.QueryContext(ctx, `SELECT
		id, profile, profile_hash, run_at, scanned, matched, excluded, failed,
		COALESCE(artifact_path, '')
		FROM runs ORDER BY run_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var runAt int64
		if err := rows.Scan(&rec.ID, &rec.Profile, &rec.ProfileHash, &runAt,
			&rec.Scanned, &rec.Matched, &rec.Excluded, &rec.Failed, &rec.ArtifactPath); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		rec.RunAt = time.Unix(runAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RunVerdicts returns the verdicts saved for one run, in the ranked
// order they were recorded.
func (h *History) RunVerdicts(ctx context.Context, runID string) ([]contracts.Verdict, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT
		code, COALESCE(name, ''), latest_close, support_price, score,
		COALESCE(advice, ''), latest_volume, max_volume, low_threshold
		FROM run_verdicts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []contracts.Verdict
	for rows.Next() {
		var v contracts.Verdict
		if err := rows.Scan(&v.Code, &v.Name, &v.LatestClose, &v.SupportPrice,
			&v.Score, &v.Advice, &v.LatestVolume, &v.MaxVolume, &v.LowThreshold); err != nil {
			return nil, fmt.Errorf("scan verdict row: %w", err)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

// PruneBefore deletes runs older than cutoff together with their
// verdicts and returns how many runs were removed.
func (h *History) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM run_verdicts WHERE run_id IN (SELECT id FROM runs WHERE run_at < ?)`,
		cutoff.Unix()); err != nil {
		return 0, fmt.Errorf("prune verdicts: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return pruned, nil
}
