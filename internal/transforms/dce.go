package transforms

import (
	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/rewrite"
	"github.com/roach88/irx/internal/traits"
)

// DeadCodeElimination erases attached operations that are Pure, are not
// terminators and whose results nobody reads.
type DeadCodeElimination struct {
	Traits *traits.Registry
}

// NewDeadCodeElimination builds the pattern over the traits of dctx.
func NewDeadCodeElimination(dctx *dialect.Context) *DeadCodeElimination {
	return &DeadCodeElimination{Traits: dctx.Traits}
}

// PatternName implements rewrite.Named.
func (p *DeadCodeElimination) PatternName() string { return "dce" }

// MatchAndRewrite implements rewrite.Pattern.
func (p *DeadCodeElimination) MatchAndRewrite(op *ir.Operation, rw *rewrite.Rewriter) (bool, error) {
	if op.Parent() == nil ||
		!p.Traits.Has(op, traits.Pure) ||
		p.Traits.Has(op, traits.IsTerminator) ||
		!rewrite.ResultsUnused(op) {
		return false, nil
	}
	if err := rw.Erase(op); err != nil {
		return false, err
	}
	return true, nil
}
