package ir

import (
	"fmt"
	"slices"
)

// Region is an ordered list of blocks owned by one operation.
type Region struct {
	blocks []*Block
	parent *Operation
}

// NewRegion creates an unowned region holding blocks.
// It panics if a block already belongs to a region; use AddBlock for
// checked construction.
func NewRegion(blocks ...*Block) *Region {
	r := &Region{}
	for _, b := range blocks {
		if err := r.AddBlock(b); err != nil {
			panic(err)
		}
	}
	return r
}

// AddBlock appends an unowned block.
func (r *Region) AddBlock(b *Block) error {
	if b == nil {
		return newError(ErrCodeInvalidOperation, nil, "block is nil")
	}
	if b.parent != nil {
		return newError(ErrCodeInvalidOperation, nil, fmt.Sprintf("block already belongs to a region (index %d)", b.Index()))
	}
	b.parent = r
	r.blocks = append(r.blocks, b)
	return nil
}

// Blocks returns a copy of the block list.
func (r *Region) Blocks() []*Block { return slices.Clone(r.blocks) }

// Block returns block i.
func (r *Region) Block(i int) *Block { return r.blocks[i] }

// NumBlocks returns the block count.
func (r *Region) NumBlocks() int { return len(r.blocks) }

// Entry returns the first block, or nil for an empty region.
func (r *Region) Entry() *Block {
	if len(r.blocks) == 0 {
		return nil
	}
	return r.blocks[0]
}

// Parent returns the owning operation, or nil.
func (r *Region) Parent() *Operation { return r.parent }

// IsAncestor reports whether r encloses other (or is other).
func (r *Region) IsAncestor(other *Region) bool {
	for cur := other; cur != nil; {
		if cur == r {
			return true
		}
		p := cur.parent
		if p == nil || p.parent == nil {
			return false
		}
		cur = p.parent.parent
	}
	return false
}

// isAncestorOfOp reports whether op is nested anywhere inside r.
func (r *Region) isAncestorOfOp(op *Operation) bool {
	for cur := op; cur != nil; cur = cur.ParentOp() {
		if cur.ParentRegion() == r {
			return true
		}
	}
	return false
}

func (r *Region) removeBlock(b *Block) {
	if i := slices.Index(r.blocks, b); i >= 0 {
		r.blocks = slices.Delete(r.blocks, i, i+1)
	}
	b.parent = nil
}
