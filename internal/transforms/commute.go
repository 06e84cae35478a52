package transforms

import (
	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/rewrite"
	"github.com/roach88/irx/internal/traits"
)

// ConstantOperandsRight swaps the operands of a two-operand Commutative
// operation when the left one is produced by a ConstantLike operation and
// the right one is not.
type ConstantOperandsRight struct {
	Traits *traits.Registry
}

// NewConstantOperandsRight builds the pattern over the traits of dctx.
func NewConstantOperandsRight(dctx *dialect.Context) *ConstantOperandsRight {
	return &ConstantOperandsRight{Traits: dctx.Traits}
}

// PatternName implements rewrite.Named.
func (p *ConstantOperandsRight) PatternName() string { return "constant-operands-right" }

// MatchAndRewrite implements rewrite.Pattern.
func (p *ConstantOperandsRight) MatchAndRewrite(op *ir.Operation, rw *rewrite.Rewriter) (bool, error) {
	if op.NumOperands() != 2 || !p.Traits.Has(op, traits.Commutative) {
		return false, nil
	}
	if !p.constant(op.Operand(0)) || p.constant(op.Operand(1)) {
		return false, nil
	}
	if err := rw.SwapOperands(op, 0, 1); err != nil {
		return false, err
	}
	return true, nil
}

func (p *ConstantOperandsRight) constant(v ir.Value) bool {
	def := ir.DefiningOp(v)
	return def != nil && p.Traits.Has(def, traits.ConstantLike)
}
