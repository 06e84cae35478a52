package ir

import "maps"

// Clone returns a detached deep copy of op.
//
// Values defined inside op are remapped to their copies; operands defined
// outside op are shared, so the clone adds uses to them. Successors that
// point at blocks inside op are remapped the same way.
func Clone(op *Operation) *Operation {
	return CloneWithMapping(op, make(map[Value]Value))
}

// CloneWithMapping is like Clone but first reads operands through mapping,
// letting callers substitute outside values. Every value defined inside op
// is added to mapping.
func CloneWithMapping(op *Operation, mapping map[Value]Value) *Operation {
	c := &cloner{values: mapping, blocks: make(map[*Block]*Block)}
	clone := c.op(op)
	c.resolve()
	return clone
}

type cloner struct {
	values map[Value]Value
	blocks map[*Block]*Block

	// forward references: operands and successors seen before their
	// definition was cloned
	operands   []pendingOperand
	successors []pendingSuccessor
}

type pendingOperand struct {
	op    *Operation
	index int
	orig  Value
}

type pendingSuccessor struct {
	op    *Operation
	index int
	orig  *Block
}

func (c *cloner) op(op *Operation) *Operation {
	n := &Operation{
		name:       op.name,
		attrs:      maps.Clone(op.attrs),
		operands:   make([]Value, len(op.operands)),
		successors: make([]*Block, len(op.successors)),
	}
	for i, v := range op.operands {
		mapped, ok := c.values[v]
		if !ok {
			mapped = v
			c.operands = append(c.operands, pendingOperand{op: n, index: i, orig: v})
		}
		n.operands[i] = mapped
		mapped.base().addUse(Use{Op: n, Index: i})
	}
	n.results = make([]*OpResult, len(op.results))
	for i, r := range op.results {
		n.results[i] = &OpResult{valueBase: valueBase{typ: r.typ}, op: n, index: i}
		c.values[r] = n.results[i]
	}
	for i, s := range op.successors {
		mapped, ok := c.blocks[s]
		if !ok {
			mapped = s
			c.successors = append(c.successors, pendingSuccessor{op: n, index: i, orig: s})
		}
		n.successors[i] = mapped
	}

	for _, r := range op.regions {
		nr := &Region{parent: n}
		// Blocks first so branches to later blocks resolve directly.
		for _, b := range r.blocks {
			nb := &Block{parent: nr}
			for _, a := range b.args {
				c.values[a] = nb.AddArgument(a.typ)
			}
			c.blocks[b] = nb
			nr.blocks = append(nr.blocks, nb)
		}
		for _, b := range r.blocks {
			nb := c.blocks[b]
			for inner := range b.Ops() {
				nb.linkBack(c.op(inner))
			}
		}
		n.regions = append(n.regions, nr)
	}
	return n
}

func (c *cloner) resolve() {
	for _, p := range c.operands {
		if mapped, ok := c.values[p.orig]; ok {
			p.op.setOperand(p.index, mapped)
		}
	}
	for _, p := range c.successors {
		if mapped, ok := c.blocks[p.orig]; ok {
			p.op.successors[p.index] = mapped
		}
	}
}
