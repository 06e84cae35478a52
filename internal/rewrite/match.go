package rewrite

import "github.com/roach88/irx/internal/ir"

// OperandProducers returns, for each operand of op, the operation that
// defines it. ok is false if any operand is not an OpResult (for example a
// block argument) or its producer fails accept. A nil accept accepts all.
func OperandProducers(op *ir.Operation, accept func(*ir.Operation) bool) (producers []*ir.Operation, ok bool) {
	producers = make([]*ir.Operation, op.NumOperands())
	for i, v := range op.Operands() {
		def := ir.DefiningOp(v)
		if def == nil {
			return nil, false
		}
		if accept != nil && !accept(def) {
			return nil, false
		}
		producers[i] = def
	}
	return producers, true
}

// ResultsUnused reports whether no result of op has a reader.
func ResultsUnused(op *ir.Operation) bool {
	for _, r := range op.Results() {
		if r.HasUses() {
			return false
		}
	}
	return true
}
