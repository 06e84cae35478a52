package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/traits"
)

// Driver applies a fixed, ordered set of patterns to a graph until nothing
// changes. A Driver holds no per-run state and may be reused; it is not
// safe to Apply it to the same graph from two goroutines.
type Driver struct {
	patterns    []Pattern // registration order, never reordered
	names       []string
	traits      *traits.Registry
	maxRewrites int
	dce         bool
	observers   []Observer
	runIDs      RunIDGenerator
}

// Option configures a Driver.
type Option func(*Driver)

// WithMaxRewrites sets the number of graph changes one Apply may make
// before it fails with *NonConvergenceError.
//
// Default: DefaultMaxRewrites. Use a small value to test non-terminating
// pattern sets.
func WithMaxRewrites(n int) Option {
	return func(d *Driver) {
		d.maxRewrites = n
	}
}

// WithTraits sets the registry consulted for dead-code elimination.
func WithTraits(reg *traits.Registry) Option {
	return func(d *Driver) {
		d.traits = reg
	}
}

// WithDeadCodeElimination erases popped operations that are Pure, not
// terminators and have no used results. Requires WithTraits.
func WithDeadCodeElimination() Option {
	return func(d *Driver) {
		d.dce = true
	}
}

// WithObserver adds an observer called for every event, in order.
func WithObserver(obs Observer) Option {
	return func(d *Driver) {
		if obs != nil {
			d.observers = append(d.observers, obs)
		}
	}
}

// WithRunIDGenerator replaces the UUIDv7 run ID source.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(d *Driver) {
		d.runIDs = g
	}
}

// New creates a driver for patterns. The slice is copied so later changes
// by the caller cannot reorder matching.
func New(patterns []Pattern, opts ...Option) *Driver {
	d := &Driver{
		patterns:    slices.Clone(patterns),
		maxRewrites: DefaultMaxRewrites,
		runIDs:      UUIDv7Generator{},
	}
	d.names = make([]string, len(d.patterns))
	for i, p := range d.patterns {
		d.names[i] = PatternName(p)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PatternNames returns the pattern names in matching order.
func (d *Driver) PatternNames() []string {
	return slices.Clone(d.names)
}

// Result summarizes one Apply call.
type Result struct {
	RunID    string
	Changed  bool // any rewrite or erase happened
	Rewrites int  // pattern rewrites applied
	Erased   int  // trivially dead operations erased by the driver
	Visits   int  // operations popped from the worklist
}

// Apply rewrites everything nested under root to a fixpoint. root itself is
// never matched or erased.
//
// Returns *NonConvergenceError if the rewrite quota is exceeded,
// *PatternError if a pattern fails, and ctx.Err() if ctx is cancelled
// between steps. The Result reflects the work done before any error.
func (d *Driver) Apply(ctx context.Context, root *ir.Operation) (res Result, err error) {
	if root == nil {
		return Result{}, fmt.Errorf("apply: root operation is nil")
	}

	r := &run{
		driver: d,
		root:   root,
		id:     d.runIDs.Generate(),
		clock:  NewClock(),
		quota:  newRewriteQuota(d.maxRewrites),
		wl:     newWorklist(),
	}
	r.res.RunID = r.id

	ctx, span := startApplySpan(ctx, r.id, root.Name(), len(d.patterns))
	start := time.Now()
	defer func() {
		finishApplySpan(span, res, err)
		recordApply(ctx, time.Since(start), err)
		span.End()
	}()

	slog.Debug("rewrite starting",
		"run_id", r.id,
		"root", root.Name(),
		"patterns", len(d.patterns),
		"max_rewrites", d.maxRewrites,
	)

	r.seed()
	if err := r.loop(ctx); err != nil {
		if IsNonConvergence(err) {
			slog.Error("rewrite quota exceeded",
				"run_id", r.id,
				"rewrites", r.quota.Current(),
				"limit", d.maxRewrites,
				"event", "non_convergence",
			)
		}
		return r.res, err
	}

	slog.Info("rewrite converged",
		"run_id", r.id,
		"rewrites", r.res.Rewrites,
		"erased", r.res.Erased,
		"visits", r.res.Visits,
	)
	return r.res, nil
}

// run is the state of one Apply call.
type run struct {
	driver *Driver
	root   *ir.Operation
	id     string
	clock  *Clock
	quota  *rewriteQuota
	wl     *worklist
	res    Result
}

// seed pushes every op under root in reverse post-order so pops come out
// in post-order.
func (r *run) seed() {
	ops := ir.Collect(r.root, ir.PostOrder)
	ops = ops[:len(ops)-1] // root is last in post-order
	for i := len(ops) - 1; i >= 0; i-- {
		r.wl.push(ops[i])
	}
}

func (r *run) push(op *ir.Operation) {
	if op == nil || op == r.root {
		return
	}
	r.wl.push(op)
}

func (r *run) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		op, ok := r.wl.pop()
		if !ok {
			return nil
		}
		r.res.Visits++

		if r.driver.dce && r.triviallyDead(op) {
			if err := r.eraseDead(ctx, op); err != nil {
				return err
			}
			continue
		}
		if err := r.visit(ctx, op); err != nil {
			return err
		}
	}
}

// visit offers op to each pattern in order; the first rewrite wins.
func (r *run) visit(ctx context.Context, op *ir.Operation) error {
	for i, p := range r.driver.patterns {
		name := r.driver.names[i]
		opName := op.Name()
		rw := newRewriter(op)

		applied, err := p.MatchAndRewrite(op, rw)
		if err != nil {
			return &PatternError{Pattern: name, OpName: opName, Err: err}
		}
		if !applied {
			if rw.Changed() {
				return &PatternError{Pattern: name, OpName: opName, Err: errSilentMutation}
			}
			continue
		}

		r.res.Rewrites++
		r.res.Changed = true
		seq := r.clock.Next()
		slog.Debug("pattern applied",
			"run_id", r.id,
			"seq", seq,
			"pattern", name,
			"op", opName,
		)
		recordRewrite(ctx, name)
		r.emit(Event{RunID: r.id, Seq: seq, Kind: EventRewrite, Pattern: name, OpName: opName})
		r.requeue(op, rw)
		return r.quota.Check(r.id)
	}
	return nil
}

func (r *run) triviallyDead(op *ir.Operation) bool {
	reg := r.driver.traits
	return op.Parent() != nil &&
		reg.Has(op, traits.Pure) &&
		!reg.Has(op, traits.IsTerminator) &&
		ResultsUnused(op)
}

func (r *run) eraseDead(ctx context.Context, op *ir.Operation) error {
	opName := op.Name()
	rw := newRewriter(op)
	if err := rw.Erase(op); err != nil {
		return fmt.Errorf("erase dead %s: %w", opName, err)
	}

	r.res.Erased++
	r.res.Changed = true
	seq := r.clock.Next()
	slog.Debug("dead op erased",
		"run_id", r.id,
		"seq", seq,
		"op", opName,
	)
	recordErase(ctx, opName)
	r.emit(Event{RunID: r.id, Seq: seq, Kind: EventErase, OpName: opName})
	r.requeue(op, rw)
	return r.quota.Check(r.id)
}

// requeue schedules exactly the operations touched by a change. Pushes go
// from least to most urgent since the worklist pops the newest entry first.
func (r *run) requeue(op *ir.Operation, rw *Rewriter) {
	for _, v := range rw.formerOperands {
		if v == nil {
			continue
		}
		for _, u := range v.Uses() {
			r.push(u.Op)
		}
		r.push(ir.DefiningOp(v))
	}
	for _, m := range rw.modified {
		r.push(m)
	}
	for i := len(rw.inserted) - 1; i >= 0; i-- {
		nested := ir.Collect(rw.inserted[i], ir.PostOrder)
		for j := len(nested) - 1; j >= 0; j-- {
			r.push(nested[j])
		}
	}
	if !op.Erased() {
		r.push(op)
	}
}

func (r *run) emit(ev Event) {
	for _, obs := range r.driver.observers {
		obs(ev)
	}
}
