package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/sift/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for decision traces.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection
	// avoids SQLITE_BUSY during recording.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Run is one recording session. Created by BeginRun, closed by Finish.
type Run struct {
	ID    string
	store *Store
}

// BeginRun inserts a new run row and returns a handle for recording
// decisions under it. The run ID is a fresh UUID.
func (s *Store) BeginRun(ctx context.Context, rulesetPath, description string) (*Run, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, ruleset, description, started_at)
		VALUES (?, ?, ?, ?)
	`,
		id,
		rulesetPath,
		description,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}

	return &Run{ID: id, store: s}, nil
}

// RecordDecision inserts one line's decision under this run.
func (r *Run) RecordDecision(ctx context.Context, d engine.LineDecision) error {
	var output sql.NullString
	if d.Emitted {
		output = sql.NullString{String: d.Output, Valid: true}
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO decisions
		(run_id, line_no, rule_index, rule_description, decision, input, output)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		d.LineNo,
		d.RuleIndex,
		d.RuleDescription,
		string(d.Kind),
		d.Input,
		output,
	)
	if err != nil {
		return fmt.Errorf("record decision for line %d: %w", d.LineNo, err)
	}

	return nil
}

// Finish stamps the run with its final line counts and marks it
// complete.
func (r *Run) Finish(ctx context.Context, linesIn, linesOut int64) error {
	_, err := r.store.db.ExecContext(ctx, `
		UPDATE runs SET lines_in = ?, lines_out = ?, finished = 1 WHERE id = ?
	`, linesIn, linesOut, r.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	return nil
}

// Recorder adapts a Run to the engine's Observer interface. Recording
// errors are held and surfaced via Err after the stream ends, so the
// pipeline's per-line flow stays error-free for the observer path.
type Recorder struct {
	run *Run
	ctx context.Context
	err error
}

// NewRecorder creates an Observer recording into run.
func NewRecorder(ctx context.Context, run *Run) *Recorder {
	return &Recorder{run: run, ctx: ctx}
}

// Decision implements engine.Observer.
func (r *Recorder) Decision(d engine.LineDecision) {
	if r.err != nil {
		return
	}
	r.err = r.run.RecordDecision(r.ctx, d)
}

// Err returns the first recording error, if any.
func (r *Recorder) Err() error {
	return r.err
}
