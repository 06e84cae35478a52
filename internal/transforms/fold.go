package transforms

import (
	"log/slog"

	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/interp"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/rewrite"
	"github.com/roach88/irx/internal/traits"
)

// ConstantFoldInterp replaces a Pure, non-constant operation whose operands
// all come from ConstantLike operations with constants holding the values
// the interpreter computes for it.
//
// Any evaluation failure, unimplemented kind included, is a non-match. The
// rewrite is all-or-nothing: if one result has no materialization rule the
// operation is left untouched.
type ConstantFoldInterp struct {
	Traits      *traits.Registry
	Interpreter *interp.Interpreter
	Materialize dialect.ConstantMaterializer
}

// NewConstantFoldInterp builds the pattern over the registries of dctx.
func NewConstantFoldInterp(dctx *dialect.Context) *ConstantFoldInterp {
	return &ConstantFoldInterp{
		Traits:      dctx.Traits,
		Interpreter: dctx.Interpreter(),
		Materialize: dctx.MaterializeConstant,
	}
}

// PatternName implements rewrite.Named.
func (p *ConstantFoldInterp) PatternName() string { return "constant-fold-interp" }

// MatchAndRewrite implements rewrite.Pattern.
func (p *ConstantFoldInterp) MatchAndRewrite(op *ir.Operation, rw *rewrite.Rewriter) (bool, error) {
	if !p.Traits.Has(op, traits.Pure) || p.Traits.Has(op, traits.ConstantLike) {
		return false, nil
	}
	if op.NumResults() == 0 {
		return false, nil
	}
	producers, ok := rewrite.OperandProducers(op, func(def *ir.Operation) bool {
		return p.Traits.Has(def, traits.ConstantLike)
	})
	if !ok {
		return false, nil
	}

	args, ok := p.evalOperands(op, producers)
	if !ok {
		return false, nil
	}
	values, err := p.Interpreter.RunOp(op, args)
	if err != nil {
		slog.Debug("fold skipped",
			"op", op.Name(),
			"reason", err.Error(),
		)
		return false, nil
	}

	newOps, newResults, ok := p.materialize(op, values)
	if !ok {
		return false, nil
	}
	if err := rw.ReplaceMatchedOp(newOps, newResults, ir.RequireSameType()); err != nil {
		return false, err
	}
	return true, nil
}

// evalOperands evaluates each constant producer once and picks the value of
// the result each operand reads.
func (p *ConstantFoldInterp) evalOperands(op *ir.Operation, producers []*ir.Operation) ([]interp.Value, bool) {
	evaluated := make(map[*ir.Operation][]interp.Value, len(producers))
	args := make([]interp.Value, len(producers))
	for i, def := range producers {
		vals, seen := evaluated[def]
		if !seen {
			var err error
			vals, err = p.Interpreter.RunOp(def, make([]interp.Value, def.NumOperands()))
			if err != nil {
				slog.Debug("fold skipped",
					"op", op.Name(),
					"producer", def.Name(),
					"reason", err.Error(),
				)
				return nil, false
			}
			evaluated[def] = vals
		}
		res, isResult := op.Operand(i).(*ir.OpResult)
		if !isResult {
			return nil, false
		}
		args[i] = vals[res.Index()]
	}
	return args, true
}

// materialize builds one constant per result. On any failure ok is false and
// the detached constants built so far are dropped unattached.
func (p *ConstantFoldInterp) materialize(op *ir.Operation, values []interp.Value) ([]*ir.Operation, []ir.Value, bool) {
	if p.Materialize == nil {
		return nil, nil, false
	}
	newOps := make([]*ir.Operation, 0, op.NumResults())
	newResults := make([]ir.Value, 0, op.NumResults())
	for i, r := range op.Results() {
		c, ok := p.Materialize(values[i], r.Type())
		if !ok || c == nil || c.NumResults() != 1 || !ir.TypeEqual(c.Result(0).Type(), r.Type()) {
			slog.Debug("fold abandoned",
				"op", op.Name(),
				"result", i,
				"type", r.Type().String(),
			)
			return nil, nil, false
		}
		newOps = append(newOps, c)
		newResults = append(newResults, c.Result(0))
	}
	return newOps, newResults, true
}
