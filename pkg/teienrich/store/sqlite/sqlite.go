package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/teienrich/pkg/teienrich/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	stage TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	succeeded INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_items (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	path TEXT NOT NULL,
	outcome TEXT NOT NULL,
	reason TEXT,
	error TEXT,
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_unmatched (
	run_id TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	PRIMARY KEY(run_id, entity_id),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run with its items and unmatched ids
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO runs (id, stage, started_at, finished_at, succeeded, skipped, failed)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	stage=excluded.stage,
	started_at=excluded.started_at,
	finished_at=excluded.finished_at,
	succeeded=excluded.succeeded,
	skipped=excluded.skipped,
	failed=excluded.failed;
`
	_, err = tx.ExecContext(
		ctx,
		stmt,
		r.ID,
		r.Stage,
		formatTime(r.StartedAt),
		formatTime(r.FinishedAt),
		r.Succeeded,
		r.Skipped,
		r.Failed,
	)
	if err != nil {
		return err
	}

	if err := replaceItems(ctx, tx, r.ID, r.Items); err != nil {
		return err
	}
	if err := replaceUnmatched(ctx, tx, r.ID, r.Unmatched); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceItems(ctx context.Context, tx *sql.Tx, runID string, items []store.Item) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_items WHERE run_id=?`, runID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_items (run_id, seq, path, outcome, reason, error) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, runID, i, it.Path, it.Outcome, it.Reason, it.Error); err != nil {
			return err
		}
	}
	return nil
}

func replaceUnmatched(ctx context.Context, tx *sql.Tx, runID string, ids []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_unmatched WHERE run_id=?`, runID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO run_unmatched (run_id, entity_id) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, runID, id); err != nil {
			return err
		}
	}
	return nil
}

// GetRun returns a run with its items and unmatched ids
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, stage, started_at, finished_at, succeeded, skipped, failed
FROM runs WHERE id=?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT path, outcome, COALESCE(reason, ''), COALESCE(error, '')
FROM run_items WHERE run_id=? ORDER BY seq`, id)
	if err != nil {
		return store.Run{}, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var it store.Item
		if err := rows.Scan(&it.Path, &it.Outcome, &it.Reason, &it.Error); err != nil {
			return store.Run{}, false, err
		}
		r.Items = append(r.Items, it)
	}
	if err := rows.Err(); err != nil {
		return store.Run{}, false, err
	}

	idRows, err := s.db.QueryContext(ctx, `SELECT entity_id FROM run_unmatched WHERE run_id=? ORDER BY entity_id`, id)
	if err != nil {
		return store.Run{}, false, err
	}
	defer idRows.Close()
	for idRows.Next() {
		var eid string
		if err := idRows.Scan(&eid); err != nil {
			return store.Run{}, false, err
		}
		r.Unmatched = append(r.Unmatched, eid)
	}
	return r, true, idRows.Err()
}

// ListRuns returns run summaries, newest first
func (s *sqliteStore) ListRuns(ctx context.Context, stage string, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, stage, started_at, finished_at, succeeded, skipped, failed
FROM runs
WHERE ? = '' OR stage = ?
ORDER BY started_at DESC, id DESC
LIMIT ?`, stage, stage, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (store.Run, error) {
	var (
		r                 store.Run
		started, finished sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Stage, &started, &finished, &r.Succeeded, &r.Skipped, &r.Failed); err != nil {
		return store.Run{}, err
	}
	r.StartedAt = parseTime(started.String)
	r.FinishedAt = parseTime(finished.String)
	return r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
