package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/rewrite"
)

// Run summarizes one pass run.
type Run struct {
	ID                string
	Pipeline          string
	Pass              string
	FingerprintBefore string
	FingerprintAfter  string
	Rewrites          int
	Erased            int
	Visits            int
	Converged         bool
	Error             string
	IRVersion         string
	EngineVersion     string
}

// Recorder buffers the events of one pass run and writes them together with
// the run summary in a single transaction.
//
// Observe matches rewrite.Observer:
//
//	rec := journal.NewRecorder(j)
//	res, err := pass.Run(ctx, dctx, root, rewrite.WithObserver(rec.Observe))
//	rec.Flush(ctx, journal.Run{ID: res.RunID, ...})
type Recorder struct {
	journal *Journal
	events  []rewrite.Event
}

// NewRecorder creates a recorder writing to j.
func NewRecorder(j *Journal) *Recorder {
	return &Recorder{journal: j}
}

// Observe buffers ev.
func (r *Recorder) Observe(ev rewrite.Event) {
	r.events = append(r.events, ev)
}

// Pending returns the number of buffered events.
func (r *Recorder) Pending() int {
	return len(r.events)
}

// Flush writes run and the buffered events, then clears the buffer.
// Every buffered event must belong to run.ID. Writing a run that is already
// recorded with identical contents is a no-op; writing a different run under
// an existing ID fails with ErrRunConflict and writes nothing.
func (r *Recorder) Flush(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("flush journal: run ID is empty")
	}
	for _, ev := range r.events {
		if ev.RunID != run.ID {
			return fmt.Errorf("flush journal: event %d belongs to run %q, not %q", ev.Seq, ev.RunID, run.ID)
		}
	}
	if run.IRVersion == "" {
		run.IRVersion = ir.IRVersion
	}
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}

	tx, err := r.journal.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, pipeline, pass, fingerprint_before, fingerprint_after,
		 rewrites, erased, visits, converged, error, ir_version, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID, run.Pipeline, run.Pass, run.FingerprintBefore, run.FingerprintAfter,
		run.Rewrites, run.Erased, run.Visits, run.Converged, run.Error,
		run.IRVersion, run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("flush journal: write run: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}

	if inserted == 0 {
		existing, err := scanRun(tx.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, run.ID))
		if err != nil {
			return fmt.Errorf("flush journal: read run %s: %w", run.ID, err)
		}
		if existing != run {
			return fmt.Errorf("flush journal: run %s: %w", run.ID, ErrRunConflict)
		}
	}

	if inserted > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO events (run_id, seq, kind, pattern, op_name)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("flush journal: %w", err)
		}
		defer stmt.Close()
		for _, ev := range r.events {
			if _, err := stmt.ExecContext(ctx, ev.RunID, ev.Seq, string(ev.Kind), ev.Pattern, ev.OpName); err != nil {
				return fmt.Errorf("flush journal: write event %d: %w", ev.Seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flush journal: commit: %w", err)
	}

	slog.Debug("journal flushed",
		"run_id", run.ID,
		"pass", run.Pass,
		"events", len(r.events),
		"duplicate", inserted == 0,
	)
	r.events = nil
	return nil
}
