package trace

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the trace tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id              TEXT PRIMARY KEY,
		source          TEXT NOT NULL DEFAULT '',
		tick_rate       INTEGER NOT NULL,
		cycles_per_tick INTEGER NOT NULL,
		ticks           INTEGER NOT NULL,
		switches        INTEGER NOT NULL DEFAULT 0,
		error           TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		slot        INTEGER NOT NULL,
		name        TEXT NOT NULL,
		priority    INTEGER NOT NULL,
		period      INTEGER NOT NULL,
		state       TEXT NOT NULL,
		activations INTEGER NOT NULL DEFAULT 0,
		cycles      INTEGER NOT NULL DEFAULT 0,
		stack_size  INTEGER NOT NULL,
		high_water  INTEGER NOT NULL,
		PRIMARY KEY (run_id, slot)
	)`,

	`CREATE TABLE IF NOT EXISTS events (
		run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq     INTEGER NOT NULL,
		tick    INTEGER NOT NULL,
		kind    TEXT NOT NULL,
		slot    INTEGER NOT NULL,
		prev    INTEGER NOT NULL,
		next    INTEGER NOT NULL,
		elapsed INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_tick ON events(run_id, tick)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
