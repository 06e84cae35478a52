package ir

import "fmt"

// ReplaceOption configures ReplaceOperand, ReplaceAllUsesWith and ReplaceOp.
type ReplaceOption func(*replaceConfig)

type replaceConfig struct {
	sameType bool
}

// RequireSameType makes a replacement fail with ErrCodeTypeMismatch when
// the new value's type differs from the one it replaces. Without it only
// use-list consistency is enforced.
func RequireSameType() ReplaceOption {
	return func(c *replaceConfig) {
		c.sameType = true
	}
}

func newReplaceConfig(opts []ReplaceOption) replaceConfig {
	var cfg replaceConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// IsVisible reports whether v may be read by an operation in block b.
//
// A value is visible in the block that defines it and in every block whose
// region is the defining block's region or nested inside it. Values of erased
// or detached operations are visible nowhere. Dominance inside a region is
// not checked.
func IsVisible(v Value, b *Block) bool {
	if v == nil || b == nil || isDead(v) {
		return false
	}
	db := definingBlock(v)
	if db == nil {
		return false
	}
	if db == b {
		return true
	}
	if db.parent == nil {
		return false
	}
	return db.parent.IsAncestor(b.parent)
}

// ReplaceOperand points operand slot of op at v, moving the Use from the
// old value to v.
func ReplaceOperand(op *Operation, slot int, v Value, opts ...ReplaceOption) error {
	cfg := newReplaceConfig(opts)
	if op == nil || op.erased {
		return newError(ErrCodeInvalidOperation, op, "operation is nil or erased")
	}
	if slot < 0 || slot >= len(op.operands) {
		return newError(ErrCodeInvalidOperation, op, fmt.Sprintf("operand slot %d out of range [0, %d)", slot, len(op.operands)))
	}
	if v == nil {
		return newError(ErrCodeInvalidOperation, op, "replacement value is nil")
	}
	if isDead(v) {
		return newError(ErrCodeDetachedOperand, op, "replacement value belongs to an erased operation")
	}
	if cfg.sameType && !TypeEqual(op.operands[slot].Type(), v.Type()) {
		return typeMismatch(op, op.operands[slot].Type(), v.Type())
	}
	if op.parent != nil && !IsVisible(v, op.parent) {
		return newError(ErrCodeDetachedOperand, op, fmt.Sprintf("replacement for operand %d is not visible here", slot))
	}
	op.setOperand(slot, v)
	return nil
}

// SwapOperands exchanges operand slots i and j of op. Both slots are checked
// before either use moves.
func SwapOperands(op *Operation, i, j int) error {
	if op == nil || op.erased {
		return newError(ErrCodeInvalidOperation, op, "operation is nil or erased")
	}
	n := len(op.operands)
	if i < 0 || i >= n || j < 0 || j >= n {
		return newError(ErrCodeInvalidOperation, op, fmt.Sprintf("operand slots %d, %d out of range [0, %d)", i, j, n))
	}
	if i == j {
		return nil
	}
	vi, vj := op.operands[i], op.operands[j]
	op.setOperand(i, vj)
	op.setOperand(j, vi)
	return nil
}

// ReplaceAllUsesWith redirects every use of old to replacement, leaving old
// with an empty use-list. Either every use moves or none does.
func ReplaceAllUsesWith(old, replacement Value, opts ...ReplaceOption) error {
	cfg := newReplaceConfig(opts)
	if old == nil || replacement == nil {
		return newError(ErrCodeInvalidOperation, nil, "value is nil")
	}
	if old == replacement {
		return nil
	}
	if isDead(replacement) {
		return newError(ErrCodeDetachedOperand, nil, "replacement value belongs to an erased operation")
	}
	if cfg.sameType && !TypeEqual(old.Type(), replacement.Type()) {
		return typeMismatch(DefiningOp(old), old.Type(), replacement.Type())
	}
	for _, u := range old.base().uses {
		if u.Op.parent != nil && !IsVisible(replacement, u.Op.parent) {
			return newError(ErrCodeDetachedOperand, u.Op, fmt.Sprintf("replacement for operand %d is not visible here", u.Index))
		}
	}
	replaceAllUses(old, replacement)
	return nil
}

func replaceAllUses(old, replacement Value) {
	uses := old.base().uses
	old.base().uses = nil
	for _, u := range uses {
		u.Op.operands[u.Index] = replacement
		replacement.base().addUse(u)
	}
}

// InsertBefore splices the detached operation op into anchor's block
// immediately before anchor.
//
// Fails with ErrCodeDetachedOperand if op (or anything nested in it) reads a
// value that is not visible in anchor's block.
func InsertBefore(anchor, op *Operation) error {
	if anchor == nil || anchor.parent == nil {
		return newError(ErrCodeInvalidOperation, anchor, "anchor is not attached to a block")
	}
	if err := checkInsertable(op, anchor.parent, nil); err != nil {
		return err
	}
	anchor.parent.linkBefore(anchor, op)
	return nil
}

// InsertAfter splices the detached operation op into anchor's block
// immediately after anchor. Same checks as InsertBefore.
func InsertAfter(anchor, op *Operation) error {
	if anchor == nil || anchor.parent == nil {
		return newError(ErrCodeInvalidOperation, anchor, "anchor is not attached to a block")
	}
	if err := checkInsertable(op, anchor.parent, nil); err != nil {
		return err
	}
	anchor.parent.linkAfter(anchor, op)
	return nil
}

// Append adds the detached operation op at the end of b.
func Append(b *Block, op *Operation) error {
	if b == nil {
		return newError(ErrCodeInvalidOperation, op, "block is nil")
	}
	if err := checkInsertable(op, b, nil); err != nil {
		return err
	}
	b.linkBack(op)
	return nil
}

// Detach removes op from its block without touching any use-list.
// The operation can be re-inserted elsewhere.
func Detach(op *Operation) error {
	if op == nil || op.erased {
		return newError(ErrCodeInvalidOperation, op, "operation is nil or erased")
	}
	if op.parent != nil {
		op.parent.unlink(op)
	}
	return nil
}

// Erase destroys op together with its regions.
//
// Fails with ErrCodeHasRemainingUses, leaving the graph unchanged, while any
// value defined by op or nested in it is read from outside op. On success
// every Use op's subtree held on other values is removed and the operations
// are marked erased.
func Erase(op *Operation) error {
	if op == nil || op.erased {
		return newError(ErrCodeInvalidOperation, op, "operation is nil or erased")
	}
	ops := Collect(op, PreOrder)
	if err := checkNoOutsideUses(op, ops, nil); err != nil {
		return err
	}
	if op.parent != nil {
		op.parent.unlink(op)
	}
	destroy(ops)
	return nil
}

// EraseBlock removes b from its region and destroys its operations.
// Fails with ErrCodeHasRemainingUses while its arguments or any value defined
// inside it is read from outside the block, or while an operation outside
// the block names it as a successor.
func EraseBlock(b *Block) error {
	if b == nil {
		return newError(ErrCodeInvalidOperation, nil, "block is nil")
	}
	var ops []*Operation
	for op := range b.Ops() {
		ops = append(ops, Collect(op, PreOrder)...)
	}
	inside := opSet(ops)
	defs := definedValues(ops)
	for _, a := range b.args {
		defs = append(defs, a)
	}
	if v, u, found := outsideUse(defs, inside); found {
		return &Error{
			Code:    ErrCodeHasRemainingUses,
			Message: fmt.Sprintf("value defined in block is still read by %s", u.Op.Name()),
			Op:      DefiningOp(v),
		}
	}
	if user := outsideSuccessorUse(b, inside); user != nil {
		return newError(ErrCodeHasRemainingUses, user, "block is still a successor of "+user.Name())
	}
	if b.parent != nil {
		b.parent.removeBlock(b)
	}
	for op := b.first; op != nil; {
		next := op.next
		b.unlink(op)
		op = next
	}
	destroy(ops)
	for _, a := range b.args {
		a.uses = nil
	}
	return nil
}

// outsideSuccessorUse returns an operation outside inside that branches to
// b, searching the whole tree b is attached to.
func outsideSuccessorUse(b *Block, inside map[*Operation]bool) *Operation {
	top := b.ParentOp()
	if top == nil {
		return nil
	}
	for top.ParentOp() != nil {
		top = top.ParentOp()
	}
	for _, op := range Collect(top, PreOrder) {
		if inside[op] {
			continue
		}
		for _, s := range op.successors {
			if s == b {
				return op
			}
		}
	}
	return nil
}

// ReplaceOp inserts newOps before old, redirects each result of old to the
// matching entry of newResults and erases old.
//
// Every check runs before the first change, so on error the graph is left
// exactly as it was. newResults entries may be results of newOps or any value
// visible at old's position; newOps may read results of earlier newOps but
// never the results of old.
func ReplaceOp(old *Operation, newOps []*Operation, newResults []Value, opts ...ReplaceOption) error {
	cfg := newReplaceConfig(opts)
	if old == nil || old.erased {
		return newError(ErrCodeInvalidOperation, old, "operation is nil or erased")
	}
	if old.parent == nil {
		return newError(ErrCodeInvalidOperation, old, "operation is not attached to a block")
	}
	if len(newResults) != len(old.results) {
		return newError(ErrCodeInvalidOperation, old, fmt.Sprintf("%d replacement values for %d results", len(newResults), len(old.results)))
	}

	seen := make(map[*Operation]bool, len(newOps))
	available := make(map[Value]bool)
	for i, n := range newOps {
		if n == nil || n == old || seen[n] {
			return newError(ErrCodeInvalidOperation, old, fmt.Sprintf("new operation %d is nil, repeated or the replaced operation", i))
		}
		seen[n] = true
		if err := checkInsertable(n, old.parent, available); err != nil {
			return err
		}
		for _, o := range Collect(n, PreOrder) {
			for _, v := range o.operands {
				if r, ok := v.(*OpResult); ok && r.op == old {
					return newError(ErrCodeInvalidOperation, o, "new operation reads a result of the operation it replaces")
				}
			}
		}
		for _, r := range n.results {
			available[r] = true
		}
	}

	for i, v := range newResults {
		if v == nil {
			return newError(ErrCodeInvalidOperation, old, fmt.Sprintf("replacement value %d is nil", i))
		}
		if r, ok := v.(*OpResult); ok && r.op == old {
			return newError(ErrCodeInvalidOperation, old, "operation cannot be replaced by its own result")
		}
		if !available[v] && !IsVisible(v, old.parent) {
			return newError(ErrCodeDetachedOperand, old, fmt.Sprintf("replacement value %d is not visible here", i))
		}
		if cfg.sameType && !TypeEqual(old.results[i].Type(), v.Type()) {
			return typeMismatch(old, old.results[i].Type(), v.Type())
		}
	}

	ops := Collect(old, PreOrder)
	skip := make(map[Value]bool, len(old.results))
	for _, r := range old.results {
		skip[r] = true
	}
	if err := checkNoOutsideUses(old, ops, skip); err != nil {
		return err
	}

	for _, n := range newOps {
		old.parent.linkBefore(old, n)
	}
	for i, r := range old.results {
		replaceAllUses(r, newResults[i])
	}
	old.parent.unlink(old)
	destroy(ops)
	return nil
}

// checkInsertable verifies op can be attached to b: it must be detached and
// live, must not contain b, and every value read inside it must be defined
// inside it, listed in extra, or visible in b.
func checkInsertable(op *Operation, b *Block, extra map[Value]bool) error {
	if op == nil || op.erased {
		return newError(ErrCodeInvalidOperation, op, "operation is nil or erased")
	}
	if op.parent != nil {
		return newError(ErrCodeInvalidOperation, op, "operation is already attached to a block")
	}
	for cur := b.ParentOp(); cur != nil; cur = cur.ParentOp() {
		if cur == op {
			return newError(ErrCodeInvalidOperation, op, "operation would contain its own parent block")
		}
	}

	ops := Collect(op, PreOrder)
	inside := make(map[Value]bool)
	for _, v := range definedValues(ops) {
		inside[v] = true
	}
	for _, o := range ops {
		for i, v := range o.operands {
			if inside[v] || extra[v] {
				continue
			}
			if !IsVisible(v, b) {
				return &Error{
					Code:    ErrCodeDetachedOperand,
					Message: fmt.Sprintf("operand %d is not visible at the insertion point", i),
					Op:      o,
				}
			}
		}
	}
	return nil
}

// checkNoOutsideUses fails if a value defined in ops (other than those in
// skip) is read by an operation outside ops.
func checkNoOutsideUses(root *Operation, ops []*Operation, skip map[Value]bool) error {
	defs := definedValues(ops)
	if len(skip) > 0 {
		kept := defs[:0]
		for _, v := range defs {
			if !skip[v] {
				kept = append(kept, v)
			}
		}
		defs = kept
	}
	v, u, found := outsideUse(defs, opSet(ops))
	if !found {
		return nil
	}
	msg := fmt.Sprintf("value defined inside is still read by %s", u.Op.Name())
	if r, ok := v.(*OpResult); ok && r.op == root {
		msg = fmt.Sprintf("result %d still has %d use(s)", r.index, r.NumUses())
	}
	return &Error{
		Code:    ErrCodeHasRemainingUses,
		Message: msg,
		Op:      root,
		Details: map[string]string{
			"user":       u.Op.Name(),
			"user_index": fmt.Sprintf("%d", u.Index),
		},
	}
}

func outsideUse(defs []Value, inside map[*Operation]bool) (Value, Use, bool) {
	for _, v := range defs {
		for _, u := range v.base().uses {
			if !inside[u.Op] {
				return v, u, true
			}
		}
	}
	return nil, Use{}, false
}

// definedValues lists every result and block argument defined by ops.
func definedValues(ops []*Operation) []Value {
	var defs []Value
	for _, o := range ops {
		for _, r := range o.results {
			defs = append(defs, r)
		}
		for _, reg := range o.regions {
			for _, b := range reg.blocks {
				for _, a := range b.args {
					defs = append(defs, a)
				}
			}
		}
	}
	return defs
}

func opSet(ops []*Operation) map[*Operation]bool {
	set := make(map[*Operation]bool, len(ops))
	for _, o := range ops {
		set[o] = true
	}
	return set
}

// destroy drops every operand reference held by ops and marks them erased.
func destroy(ops []*Operation) {
	for _, o := range ops {
		o.dropOperands()
	}
	for _, o := range ops {
		o.erased = true
		for _, r := range o.results {
			r.uses = nil
		}
	}
}

func typeMismatch(op *Operation, want, got Type) *Error {
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("replacement type %s does not match %s", typeString(got), typeString(want)),
		Op:      op,
		Details: map[string]string{
			"want": typeString(want),
			"got":  typeString(got),
		},
	}
}
