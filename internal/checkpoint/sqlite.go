package checkpoint

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	run_id   TEXT PRIMARY KEY,
	phase    TEXT NOT NULL,
	steps    INTEGER NOT NULL,
	state    BLOB NOT NULL,
	taken_at TIMESTAMP NOT NULL
);`

// SQLite stores snapshots in a local database file, one row per run.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create checkpoint schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, phase, steps, state, taken_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			phase = excluded.phase,
			steps = excluded.steps,
			state = excluded.state,
			taken_at = excluded.taken_at`,
		snap.RunID, snap.Phase, snap.Steps, snap.State, snap.TakenAt)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", snap.RunID, err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, runID string) (*Snapshot, error) {
	snap := Snapshot{RunID: runID}
	err := s.db.QueryRowContext(ctx, `
		SELECT phase, steps, state, taken_at FROM checkpoints WHERE run_id = ?`,
		runID).Scan(&snap.Phase, &snap.Steps, &snap.State, &snap.TakenAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("checkpoint %s: not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", runID, err)
	}
	return &snap, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
