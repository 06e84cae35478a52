package rewrite

import "github.com/roach88/irx/internal/ir"

// Rewriter is the mutation surface handed to patterns.
//
// Every method forwards to the matching ir function and, when it succeeds,
// records which operations were inserted or modified and which values lost
// a reader, so the driver can re-enqueue them. Failed calls record nothing.
type Rewriter struct {
	matched *ir.Operation

	inserted       []*ir.Operation
	modified       []*ir.Operation
	formerOperands []ir.Value
	changed        bool
}

func newRewriter(matched *ir.Operation) *Rewriter {
	return &Rewriter{matched: matched}
}

// MatchedOp returns the operation the pattern is being applied to.
func (rw *Rewriter) MatchedOp() *ir.Operation { return rw.matched }

// Changed reports whether any mutation succeeded through rw.
func (rw *Rewriter) Changed() bool { return rw.changed }

// InsertBefore inserts op before anchor.
func (rw *Rewriter) InsertBefore(anchor, op *ir.Operation) error {
	if err := ir.InsertBefore(anchor, op); err != nil {
		return err
	}
	rw.inserted = append(rw.inserted, op)
	rw.changed = true
	return nil
}

// InsertAfter inserts op after anchor.
func (rw *Rewriter) InsertAfter(anchor, op *ir.Operation) error {
	if err := ir.InsertAfter(anchor, op); err != nil {
		return err
	}
	rw.inserted = append(rw.inserted, op)
	rw.changed = true
	return nil
}

// ReplaceOperand points operand slot of op at v.
func (rw *Rewriter) ReplaceOperand(op *ir.Operation, slot int, v ir.Value, opts ...ir.ReplaceOption) error {
	var old ir.Value
	if op != nil && slot >= 0 && slot < op.NumOperands() {
		old = op.Operand(slot)
	}
	if err := ir.ReplaceOperand(op, slot, v, opts...); err != nil {
		return err
	}
	rw.modified = append(rw.modified, op)
	rw.formerOperands = append(rw.formerOperands, old)
	rw.changed = true
	return nil
}

// SwapOperands exchanges operand slots i and j of op.
func (rw *Rewriter) SwapOperands(op *ir.Operation, i, j int) error {
	if err := ir.SwapOperands(op, i, j); err != nil {
		return err
	}
	rw.modified = append(rw.modified, op)
	rw.changed = true
	return nil
}

// ReplaceAllUsesWith redirects every reader of old to replacement.
func (rw *Rewriter) ReplaceAllUsesWith(old, replacement ir.Value, opts ...ir.ReplaceOption) error {
	var users []ir.Use
	if old != nil {
		users = old.Uses()
	}
	if err := ir.ReplaceAllUsesWith(old, replacement, opts...); err != nil {
		return err
	}
	for _, u := range users {
		rw.modified = append(rw.modified, u.Op)
	}
	rw.changed = true
	return nil
}

// ModifyInPlace runs fn, which may change op's attributes, and records op
// as modified.
func (rw *Rewriter) ModifyInPlace(op *ir.Operation, fn func()) {
	fn()
	rw.modified = append(rw.modified, op)
	rw.changed = true
}

// Erase destroys op. Its results must be unused.
func (rw *Rewriter) Erase(op *ir.Operation) error {
	var operands []ir.Value
	if op != nil && !op.Erased() {
		operands = op.Operands()
	}
	if err := ir.Erase(op); err != nil {
		return err
	}
	rw.formerOperands = append(rw.formerOperands, operands...)
	rw.changed = true
	return nil
}

// ReplaceOp inserts newOps before old, redirects old's results to
// newResults and erases old.
func (rw *Rewriter) ReplaceOp(old *ir.Operation, newOps []*ir.Operation, newResults []ir.Value, opts ...ir.ReplaceOption) error {
	var operands []ir.Value
	var users []*ir.Operation
	if old != nil && !old.Erased() {
		operands = old.Operands()
		for _, r := range old.Results() {
			for _, u := range r.Uses() {
				users = append(users, u.Op)
			}
		}
	}
	if err := ir.ReplaceOp(old, newOps, newResults, opts...); err != nil {
		return err
	}
	rw.inserted = append(rw.inserted, newOps...)
	rw.modified = append(rw.modified, users...)
	rw.formerOperands = append(rw.formerOperands, operands...)
	rw.changed = true
	return nil
}

// ReplaceMatchedOp is ReplaceOp applied to the matched operation.
func (rw *Rewriter) ReplaceMatchedOp(newOps []*ir.Operation, newResults []ir.Value, opts ...ir.ReplaceOption) error {
	return rw.ReplaceOp(rw.matched, newOps, newResults, opts...)
}
