package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/journal"
	"github.com/roach88/irx/internal/rewrite"
	"github.com/roach88/irx/internal/transforms"
	"github.com/roach88/irx/internal/verify"
)

// Report summarizes a pipeline run.
type Report struct {
	Pipeline          string       `json:"pipeline"`
	Workload          string       `json:"workload,omitempty"`
	Passes            []PassReport `json:"passes"`
	Ops               []string     `json:"ops"`
	FingerprintBefore string       `json:"fingerprint_before"`
	FingerprintAfter  string       `json:"fingerprint_after"`
}

// PassReport summarizes one pass.
type PassReport struct {
	Name     string `json:"name"`
	RunID    string `json:"run_id"`
	Changed  bool   `json:"changed"`
	Rewrites int    `json:"rewrites"`
	Erased   int    `json:"erased"`
	Visits   int    `json:"visits"`
}

// Summary returns the parts of the report that depend only on the shape of
// the input, for canonical comparison. Run IDs, fingerprints and visit
// counts are left out.
func (r *Report) Summary() map[string]any {
	passes := make([]any, len(r.Passes))
	for i, p := range r.Passes {
		passes[i] = map[string]any{
			"name":     p.Name,
			"changed":  p.Changed,
			"rewrites": p.Rewrites,
			"erased":   p.Erased,
		}
	}
	ops := make([]any, len(r.Ops))
	for i, op := range r.Ops {
		ops[i] = op
	}
	out := map[string]any{
		"pipeline": r.Pipeline,
		"passes":   passes,
		"ops":      ops,
	}
	if r.Workload != "" {
		out["workload"] = r.Workload
	}
	return out
}

// VerifyError reports violations found by the verifier at one stage.
type VerifyError struct {
	Stage      string
	Violations []verify.Violation
}

func (e *VerifyError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("verify %s: %d violation(s): %s", e.Stage, len(e.Violations), strings.Join(msgs, "; "))
}

// IsVerifyError reports whether err is a *VerifyError.
func IsVerifyError(err error) bool {
	var ve *VerifyError
	return errors.As(err, &ve)
}

// ExpectationError reports a final module that does not match Expect.
type ExpectationError struct {
	Want []string
	Got  []string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("expected ops %v, got %v", e.Want, e.Got)
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	journal *journal.Journal
	runIDs  rewrite.RunIDGenerator
}

// WithJournal records every pass run in j.
func WithJournal(j *journal.Journal) Option {
	return func(c *runConfig) {
		c.journal = j
	}
}

// WithRunIDGenerator sets the run ID source of every pass.
func WithRunIDGenerator(g rewrite.RunIDGenerator) Option {
	return func(c *runConfig) {
		c.runIDs = g
	}
}

// Run executes p's passes over root in order.
//
// With verification enabled the module is verified before the first pass
// and after each pass; violations stop the run with *VerifyError. A pass
// error stops the run and is returned as is. The report covers the passes
// that ran, including a failed one.
func Run(ctx context.Context, p *Pipeline, dctx *dialect.Context, root *ir.Operation, opts ...Option) (*Report, error) {
	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	report := &Report{Pipeline: p.Name, Workload: p.Workload.Kind}
	before, err := ir.Fingerprint(root)
	if err != nil {
		return report, err
	}
	report.FingerprintBefore = before

	if err := verifyStage(p, dctx, root, "input"); err != nil {
		return report, err
	}

	for _, name := range p.Passes {
		pass, err := transforms.Lookup(name)
		if err != nil {
			return report, err
		}
		if err := runPass(ctx, p, dctx, root, pass, cfg, report); err != nil {
			return report, err
		}
		if err := verifyStage(p, dctx, root, "after "+name); err != nil {
			return report, err
		}
	}

	after, err := ir.Fingerprint(root)
	if err != nil {
		return report, err
	}
	report.FingerprintAfter = after
	report.Ops = bodyOps(root)

	slog.Info("pipeline finished",
		"pipeline", p.Name,
		"passes", len(p.Passes),
		"fingerprint", after,
	)

	if p.Expect != nil && p.Expect.Ops != nil && !slices.Equal(p.Expect.Ops, report.Ops) {
		return report, &ExpectationError{Want: p.Expect.Ops, Got: report.Ops}
	}
	return report, nil
}

func runPass(ctx context.Context, p *Pipeline, dctx *dialect.Context, root *ir.Operation, pass transforms.Pass, cfg runConfig, report *Report) error {
	var driverOpts []rewrite.Option
	if p.MaxRewrites > 0 {
		driverOpts = append(driverOpts, rewrite.WithMaxRewrites(p.MaxRewrites))
	}
	if cfg.runIDs != nil {
		driverOpts = append(driverOpts, rewrite.WithRunIDGenerator(cfg.runIDs))
	}
	var rec *journal.Recorder
	var before string
	if cfg.journal != nil {
		rec = journal.NewRecorder(cfg.journal)
		driverOpts = append(driverOpts, rewrite.WithObserver(rec.Observe))
		before = ir.MustFingerprint(root)
	}

	res, runErr := pass.Run(ctx, dctx, root, driverOpts...)
	report.Passes = append(report.Passes, PassReport{
		Name:     pass.Name(),
		RunID:    res.RunID,
		Changed:  res.Changed,
		Rewrites: res.Rewrites,
		Erased:   res.Erased,
		Visits:   res.Visits,
	})

	if rec != nil {
		run := journal.Run{
			ID:                res.RunID,
			Pipeline:          p.Name,
			Pass:              pass.Name(),
			FingerprintBefore: before,
			FingerprintAfter:  ir.MustFingerprint(root),
			Rewrites:          res.Rewrites,
			Erased:            res.Erased,
			Visits:            res.Visits,
			Converged:         runErr == nil,
		}
		if runErr != nil {
			run.Error = runErr.Error()
		}
		if err := rec.Flush(ctx, run); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	slog.Info("pass finished",
		"pipeline", p.Name,
		"pass", pass.Name(),
		"run_id", res.RunID,
		"rewrites", res.Rewrites,
		"erased", res.Erased,
	)
	return nil
}

func verifyStage(p *Pipeline, dctx *dialect.Context, root *ir.Operation, stage string) error {
	if !p.VerifyEnabled() {
		return nil
	}
	violations := verify.Verify(root, dctx.Traits, verify.AllowUnregistered(dctx.AllowUnregistered))
	if len(violations) == 0 {
		return nil
	}
	slog.Error("verification failed",
		"pipeline", p.Name,
		"stage", stage,
		"violations", len(violations),
	)
	return &VerifyError{Stage: stage, Violations: violations}
}

// bodyOps lists the kinds of the operations in root's first block.
func bodyOps(root *ir.Operation) []string {
	ops := []string{}
	if root.NumRegions() == 0 || root.Region(0).NumBlocks() == 0 {
		return ops
	}
	for op := range root.Region(0).Entry().Ops() {
		ops = append(ops, op.Name())
	}
	return ops
}
