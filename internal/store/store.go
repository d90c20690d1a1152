package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Run status values.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store manages the PostgreSQL connection holding the warp run ledger.
// Only run metadata is recorded; frames and flows never leave the filesystem.
type Store struct {
	conn *pgx.Conn
}

// Run describes a warp invocation as it starts.
type Run struct {
	InputID     string
	InputPath   string
	Kind        string // "image" or "video"
	FlowPath    string
	Padding     float64
	PaddingMode string
	Sampler     string
	PadWidth    int
}

// RunOutcome is recorded when a run ends.
type RunOutcome struct {
	OutputPath   string
	Frames       int
	WarpedFrames int
	Duration     time.Duration
	Err          error
}

// RunSummary is one row of the ledger.
type RunSummary struct {
	ID           uuid.UUID
	InputPath    string
	Kind         string
	FlowPath     string
	OutputPath   string
	Padding      float64
	PaddingMode  string
	Sampler      string
	PadWidth     int
	Frames       int
	WarpedFrames int
	Duration     time.Duration
	Status       string
	Error        string
	StartedAt    time.Time
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the necessary tables if they don't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS warp_inputs (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			kind TEXT NOT NULL,
			registered_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS warp_runs (
			id UUID PRIMARY KEY,
			input_id TEXT REFERENCES warp_inputs(id),
			flow_path TEXT NOT NULL,
			output_path TEXT NOT NULL DEFAULT '',
			padding DOUBLE PRECISION NOT NULL,
			padding_mode TEXT NOT NULL,
			sampler TEXT NOT NULL,
			pad_width INT NOT NULL,
			frames INT NOT NULL DEFAULT 0,
			warped_frames INT NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS warp_runs_started_at_idx ON warp_runs (started_at DESC);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// StartRun registers the input (updating its path if the fingerprint is
// known) and records a new run in the running state.
func (s *Store) StartRun(ctx context.Context, r Run) (uuid.UUID, error) {
	id := uuid.New()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO warp_inputs (id, path, kind, registered_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET registered_at = NOW(), path = EXCLUDED.path
	`, r.InputID, r.InputPath, r.Kind)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO warp_runs (id, input_id, flow_path, padding, padding_mode, sampler, pad_width, status)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
	`, id.String(), r.InputID, r.FlowPath, r.Padding, r.PaddingMode, r.Sampler, r.PadWidth, StatusRunning)
	if err != nil {
		return uuid.Nil, err
	}

	return id, tx.Commit(ctx)
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, o RunOutcome) error {
	status, msg := StatusSucceeded, ""
	if o.Err != nil {
		status, msg = StatusFailed, o.Err.Error()
	}
	tag, err := s.conn.Exec(ctx, `
		UPDATE warp_runs
		SET output_path = $2, frames = $3, warped_frames = $4, duration_ms = $5, status = $6, error = $7
		WHERE id = $1::uuid
	`, id.String(), o.OutputPath, o.Frames, o.WarpedFrames, o.Duration.Milliseconds(), status, msg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

const runColumns = `
	r.id::text, i.path, i.kind, r.flow_path, r.output_path, r.padding, r.padding_mode, r.sampler,
	r.pad_width, r.frames, r.warped_frames, r.duration_ms, r.status, r.error, r.started_at`

func scanRun(row pgx.Row) (RunSummary, error) {
	var r RunSummary
	var id string
	var durationMS int64
	err := row.Scan(&id, &r.InputPath, &r.Kind, &r.FlowPath, &r.OutputPath, &r.Padding, &r.PaddingMode,
		&r.Sampler, &r.PadWidth, &r.Frames, &r.WarpedFrames, &durationMS, &r.Status, &r.Error, &r.StartedAt)
	if err != nil {
		return r, err
	}
	r.ID, err = uuid.Parse(id)
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return r, err
}

// GetRun fetches a single run.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (RunSummary, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+runColumns+`
		FROM warp_runs r JOIN warp_inputs i ON r.input_id = i.id
		WHERE r.id = $1::uuid`, id.String())
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// ListRuns returns the most recent runs first. limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT ` + runColumns + `
		FROM warp_runs r JOIN warp_inputs i ON r.input_id = i.id
		ORDER BY r.started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Reset drops all application tables to clear the database state.
// This is useful for development to force a schema refresh without migrations.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS warp_runs CASCADE;
		DROP TABLE IF EXISTS warp_inputs CASCADE;
	`)
	return err
}
