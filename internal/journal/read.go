package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/irx/internal/rewrite"
)

const runColumns = `id, pipeline, pass, fingerprint_before, fingerprint_after,
	rewrites, erased, visits, converged, error, ir_version, engine_version`

// ReadRun returns the run with the given ID, or ErrRunNotFound.
func (j *Journal) ReadRun(ctx context.Context, id string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns runs in the order they were written. An empty pipeline
// returns runs of every pipeline.
func (j *Journal) ListRuns(ctx context.Context, pipeline string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if pipeline != "" {
		query += ` WHERE pipeline = ?`
		args = append(args, pipeline)
	}
	query += ` ORDER BY rowid ASC`

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ReadEvents returns the events of a run ordered by sequence number.
func (j *Journal) ReadEvents(ctx context.Context, runID string) ([]rewrite.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, kind, pattern, op_name
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []rewrite.Event
	for rows.Next() {
		var ev rewrite.Event
		var kind string
		if err := rows.Scan(&ev.RunID, &ev.Seq, &kind, &ev.Pattern, &ev.OpName); err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		ev.Kind = rewrite.EventKind(kind)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	err := s.Scan(
		&run.ID, &run.Pipeline, &run.Pass, &run.FingerprintBefore, &run.FingerprintAfter,
		&run.Rewrites, &run.Erased, &run.Visits, &run.Converged, &run.Error,
		&run.IRVersion, &run.EngineVersion,
	)
	return run, err
}
