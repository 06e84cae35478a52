package ir

import "slices"

// Value is an SSA definition: either an *OpResult or a *BlockArgument.
//
// Every Value keeps an ordered list of its Uses, one per operand slot that
// currently reads it. The list is maintained only by Create and the mutation
// functions; callers get copies.
type Value interface {
	// Type returns the value's type tag.
	Type() Type

	// Uses returns a copy of the use-list in the order uses were added.
	Uses() []Use

	// HasUses reports whether any operand slot reads this value.
	HasUses() bool

	// NumUses returns the number of operand slots reading this value.
	NumUses() int

	base() *valueBase
}

// Use identifies one operand slot reading a Value: operand Index of Op.
type Use struct {
	Op    *Operation
	Index int
}

type valueBase struct {
	typ  Type
	uses []Use
}

func (v *valueBase) Type() Type       { return v.typ }
func (v *valueBase) Uses() []Use      { return slices.Clone(v.uses) }
func (v *valueBase) HasUses() bool    { return len(v.uses) > 0 }
func (v *valueBase) NumUses() int     { return len(v.uses) }
func (v *valueBase) base() *valueBase { return v }

func (v *valueBase) addUse(u Use) {
	v.uses = append(v.uses, u)
}

// removeUse drops u, keeping the remaining uses in order.
// Returns false if u was not present.
func (v *valueBase) removeUse(u Use) bool {
	i := slices.Index(v.uses, u)
	if i < 0 {
		return false
	}
	v.uses = slices.Delete(v.uses, i, i+1)
	return true
}

// OpResult is a Value produced by an operation.
type OpResult struct {
	valueBase
	op    *Operation
	index int
}

// Op returns the defining operation.
func (r *OpResult) Op() *Operation { return r.op }

// Index returns the result position within the defining operation.
func (r *OpResult) Index() int { return r.index }

// BlockArgument is a Value declared by a block.
type BlockArgument struct {
	valueBase
	block *Block
	index int
}

// Block returns the declaring block.
func (a *BlockArgument) Block() *Block { return a.block }

// Index returns the argument position within the declaring block.
func (a *BlockArgument) Index() int { return a.index }

// DefiningOp returns the operation producing v, or nil for block arguments.
func DefiningOp(v Value) *Operation {
	if r, ok := v.(*OpResult); ok {
		return r.op
	}
	return nil
}

// definingBlock returns the block in which v is defined, or nil when the
// defining operation is detached.
func definingBlock(v Value) *Block {
	switch val := v.(type) {
	case *OpResult:
		return val.op.parent
	case *BlockArgument:
		return val.block
	}
	return nil
}

// isDead reports whether v belongs to an erased operation.
func isDead(v Value) bool {
	if r, ok := v.(*OpResult); ok {
		return r.op.erased
	}
	return false
}
