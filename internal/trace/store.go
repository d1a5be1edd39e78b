package trace

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// Task is the per-slot summary stored with a run.
type Task struct {
	Slot        int
	Name        string
	Priority    uint8
	Period      uint16
	State       string
	Activations int
	Cycles      uint64
	StackSize   int
	HighWater   int
}

// Run is one simulation as stored.
type Run struct {
	ID            string
	Source        string
	TickRate      uint32
	CyclesPerTick uint64
	Ticks         uint64
	Switches      int
	// Error is the reason the machine stopped early, if it did.
	Error     string
	CreatedAt time.Time
	Tasks     []Task
	Events    []Event
}

// Store keeps runs in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) a SQLite database at path.
// Use ":memory:" for an in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection, so ":memory:" means one database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// SaveRun stores a run with its tasks and events in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID,
		"tasks", len(run.Tasks), "events", len(run.Events))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, tick_rate, cycles_per_tick, ticks, switches, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.TickRate, run.CyclesPerTick, run.Ticks, run.Switches, run.Error,
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	taskStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (run_id, slot, name, priority, period, state, activations, cycles, stack_size, high_water)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare tasks: %w", err)
	}
	defer taskStmt.Close()
	for _, t := range run.Tasks {
		if _, err := taskStmt.ExecContext(ctx, run.ID, t.Slot, t.Name, t.Priority, t.Period, t.State,
			t.Activations, t.Cycles, t.StackSize, t.HighWater); err != nil {
			return fmt.Errorf("insert task %s: %w", t.Name, err)
		}
	}

	evStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (run_id, seq, tick, kind, slot, prev, next, elapsed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare events: %w", err)
	}
	defer evStmt.Close()
	for _, e := range run.Events {
		if _, err := evStmt.ExecContext(ctx, run.ID, e.Seq, e.Tick, string(e.Kind), e.Slot, e.Prev, e.Next, e.Elapsed); err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}

	return tx.Commit()
}

// GetRun loads a run without its events. Returns nil, nil if there is no
// run with that ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", id)

	var run Run
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, tick_rate, cycles_per_tick, ticks, switches, error, created_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Source, &run.TickRate, &run.CyclesPerTick, &run.Ticks, &run.Switches, &run.Error, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, name, priority, period, state, activations, cycles, stack_size, high_water
		 FROM tasks WHERE run_id = ? ORDER BY slot`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.Slot, &t.Name, &t.Priority, &t.Period, &t.State,
			&t.Activations, &t.Cycles, &t.StackSize, &t.HighWater); err != nil {
			return nil, err
		}
		run.Tasks = append(run.Tasks, t)
	}
	return &run, rows.Err()
}

// Dispatches returns the dispatch events of a run during [from, to).
func (s *Store) Dispatches(ctx context.Context, id string, from, to uint64) ([]Event, error) {
	s.logger.Debug("sql", "op", "select", "table", "events", "id", id, "from", from, "to", to)

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, tick, prev, next, elapsed FROM events
		 WHERE run_id = ? AND kind = ? AND tick >= ? AND tick < ? ORDER BY seq`,
		id, string(Dispatch), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e := Event{Kind: Dispatch, Slot: -1}
		if err := rows.Scan(&e.Seq, &e.Tick, &e.Prev, &e.Next, &e.Elapsed); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
