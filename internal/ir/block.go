package ir

import (
	"iter"
	"slices"
)

// Block is an ordered list of operations plus the arguments it declares.
// Operations are kept in an intrusive doubly linked list so insertion and
// removal next to a known operation are O(1).
type Block struct {
	args        []*BlockArgument
	first, last *Operation
	length      int
	parent      *Region
}

// NewBlock creates a detached block with one argument per type.
func NewBlock(argTypes ...Type) *Block {
	b := &Block{}
	for _, t := range argTypes {
		b.AddArgument(t)
	}
	return b
}

// AddArgument appends a new argument of type t.
func (b *Block) AddArgument(t Type) *BlockArgument {
	arg := &BlockArgument{valueBase: valueBase{typ: t}, block: b, index: len(b.args)}
	b.args = append(b.args, arg)
	return arg
}

// Arguments returns a copy of the argument list.
func (b *Block) Arguments() []*BlockArgument { return slices.Clone(b.args) }

// Argument returns argument i.
func (b *Block) Argument(i int) *BlockArgument { return b.args[i] }

// NumArguments returns the argument count.
func (b *Block) NumArguments() int { return len(b.args) }

// First returns the first operation, or nil for an empty block.
func (b *Block) First() *Operation { return b.first }

// Last returns the last operation, or nil for an empty block.
func (b *Block) Last() *Operation { return b.last }

// Len returns the number of operations in the block.
func (b *Block) Len() int { return b.length }

// Empty reports whether the block holds no operations.
func (b *Block) Empty() bool { return b.length == 0 }

// Ops iterates the block's operations in order. The successor of each
// operation is read before it is yielded, so the loop body may erase or
// detach the current operation.
func (b *Block) Ops() iter.Seq[*Operation] {
	return func(yield func(*Operation) bool) {
		for op := b.first; op != nil; {
			next := op.next
			if !yield(op) {
				return
			}
			op = next
		}
	}
}

// OpList returns the block's operations as a slice.
func (b *Block) OpList() []*Operation {
	ops := make([]*Operation, 0, b.length)
	for op := b.first; op != nil; op = op.next {
		ops = append(ops, op)
	}
	return ops
}

// Parent returns the owning region, or nil.
func (b *Block) Parent() *Region { return b.parent }

// ParentOp returns the operation owning this block's region, or nil.
func (b *Block) ParentOp() *Operation {
	if b.parent == nil {
		return nil
	}
	return b.parent.parent
}

// Index returns the block position in its region, or -1 when detached.
func (b *Block) Index() int {
	if b.parent == nil {
		return -1
	}
	return slices.Index(b.parent.blocks, b)
}

func (b *Block) linkBefore(anchor, op *Operation) {
	op.parent = b
	op.next = anchor
	op.prev = anchor.prev
	if anchor.prev != nil {
		anchor.prev.next = op
	} else {
		b.first = op
	}
	anchor.prev = op
	b.length++
}

func (b *Block) linkAfter(anchor, op *Operation) {
	op.parent = b
	op.prev = anchor
	op.next = anchor.next
	if anchor.next != nil {
		anchor.next.prev = op
	} else {
		b.last = op
	}
	anchor.next = op
	b.length++
}

func (b *Block) linkBack(op *Operation) {
	if b.last == nil {
		op.parent = b
		b.first, b.last = op, op
		b.length++
		return
	}
	b.linkAfter(b.last, op)
}

func (b *Block) unlink(op *Operation) {
	if op.prev != nil {
		op.prev.next = op.next
	} else {
		b.first = op.next
	}
	if op.next != nil {
		op.next.prev = op.prev
	} else {
		b.last = op.prev
	}
	op.prev, op.next, op.parent = nil, nil, nil
	b.length--
}
