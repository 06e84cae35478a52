package ir

import (
	"fmt"
	"maps"
	"slices"
)

// Operation is a named node in the graph.
//
// It owns its results and nested regions, holds operand references into
// other values' use-lists, and belongs to at most one Block. Operations are
// built detached with Create and attached with Append, InsertBefore or
// InsertAfter.
type Operation struct {
	name       string
	operands   []Value
	results    []*OpResult
	attrs      map[string]Attribute
	successors []*Block
	regions    []*Region

	parent     *Block
	prev, next *Operation
	erased     bool
}

// State describes an operation to build with Create.
type State struct {
	// Name is the operation kind, conventionally "dialect.op".
	Name string

	// Operands are read in order; each gets a Use on the referenced value.
	Operands []Value

	// ResultTypes declares one result per entry.
	ResultTypes []Type

	// Attributes are copied; the map is not retained.
	Attributes map[string]Attribute

	// Successors are control-flow targets for terminators.
	Successors []*Block

	// Regions must be unowned; the new operation takes ownership.
	Regions []*Region
}

// Create builds a detached operation from s.
//
// Returns an *Error with ErrCodeInvalidOperation if the name is empty, an
// operand or result type is nil, or a region already has a parent, and
// ErrCodeDetachedOperand if an operand belongs to an erased operation.
func Create(s State) (*Operation, error) {
	if s.Name == "" {
		return nil, newError(ErrCodeInvalidOperation, nil, "operation name is empty")
	}
	for i, v := range s.Operands {
		if v == nil {
			return nil, newError(ErrCodeInvalidOperation, nil, fmt.Sprintf("%s: operand %d is nil", s.Name, i))
		}
		if isDead(v) {
			return nil, newError(ErrCodeDetachedOperand, nil, fmt.Sprintf("%s: operand %d refers to an erased operation", s.Name, i))
		}
	}
	for i, t := range s.ResultTypes {
		if t == nil {
			return nil, newError(ErrCodeInvalidOperation, nil, fmt.Sprintf("%s: result type %d is nil", s.Name, i))
		}
	}
	for i, r := range s.Regions {
		if r == nil || r.parent != nil {
			return nil, newError(ErrCodeInvalidOperation, nil, fmt.Sprintf("%s: region %d is nil or already owned", s.Name, i))
		}
	}
	for i, b := range s.Successors {
		if b == nil {
			return nil, newError(ErrCodeInvalidOperation, nil, fmt.Sprintf("%s: successor %d is nil", s.Name, i))
		}
	}

	op := &Operation{
		name:       s.Name,
		operands:   slices.Clone(s.Operands),
		attrs:      maps.Clone(s.Attributes),
		successors: slices.Clone(s.Successors),
		regions:    slices.Clone(s.Regions),
	}
	if op.attrs == nil {
		op.attrs = make(map[string]Attribute)
	}
	for i, v := range op.operands {
		v.base().addUse(Use{Op: op, Index: i})
	}
	op.results = make([]*OpResult, len(s.ResultTypes))
	for i, t := range s.ResultTypes {
		op.results[i] = &OpResult{valueBase: valueBase{typ: t}, op: op, index: i}
	}
	for _, r := range op.regions {
		r.parent = op
	}
	return op, nil
}

// MustCreate is like Create but panics on error.
// Use only in tests, builders and workloads with known-good input.
func MustCreate(s State) *Operation {
	op, err := Create(s)
	if err != nil {
		panic(err)
	}
	return op
}

// Name returns the operation kind. Safe on a nil receiver.
func (op *Operation) Name() string {
	if op == nil {
		return ""
	}
	return op.name
}

// Operands returns a copy of the operand list.
func (op *Operation) Operands() []Value { return slices.Clone(op.operands) }

// Operand returns operand i.
func (op *Operation) Operand(i int) Value { return op.operands[i] }

// NumOperands returns the operand count.
func (op *Operation) NumOperands() int { return len(op.operands) }

// Results returns a copy of the result list.
func (op *Operation) Results() []*OpResult { return slices.Clone(op.results) }

// ResultValues returns the results as Values, for passing to ReplaceOp.
func (op *Operation) ResultValues() []Value {
	vals := make([]Value, len(op.results))
	for i, r := range op.results {
		vals[i] = r
	}
	return vals
}

// Result returns result i.
func (op *Operation) Result(i int) *OpResult { return op.results[i] }

// NumResults returns the result count.
func (op *Operation) NumResults() int { return len(op.results) }

// Attr returns the named attribute.
func (op *Operation) Attr(name string) (Attribute, bool) {
	a, ok := op.attrs[name]
	return a, ok
}

// Attrs returns a copy of the attribute dictionary.
func (op *Operation) Attrs() DictAttr { return DictAttr(maps.Clone(op.attrs)) }

// SetAttr installs an attribute under name, replacing any previous one.
func (op *Operation) SetAttr(name string, a Attribute) { op.attrs[name] = a }

// RemoveAttr deletes the named attribute.
func (op *Operation) RemoveAttr(name string) { delete(op.attrs, name) }

// Successors returns a copy of the successor list.
func (op *Operation) Successors() []*Block { return slices.Clone(op.successors) }

// Regions returns a copy of the region list.
func (op *Operation) Regions() []*Region { return slices.Clone(op.regions) }

// Region returns region i.
func (op *Operation) Region(i int) *Region { return op.regions[i] }

// NumRegions returns the region count.
func (op *Operation) NumRegions() int { return len(op.regions) }

// AddRegion transfers ownership of an unowned region to op.
func (op *Operation) AddRegion(r *Region) error {
	if r == nil || r.parent != nil {
		return newError(ErrCodeInvalidOperation, op, "region is nil or already owned")
	}
	if r.isAncestorOfOp(op) {
		return newError(ErrCodeInvalidOperation, op, "region would contain its own parent")
	}
	r.parent = op
	op.regions = append(op.regions, r)
	return nil
}

// Parent returns the containing block, or nil if op is detached.
func (op *Operation) Parent() *Block { return op.parent }

// ParentRegion returns the region of the containing block, or nil.
func (op *Operation) ParentRegion() *Region {
	if op.parent == nil {
		return nil
	}
	return op.parent.parent
}

// ParentOp returns the operation owning the containing region, or nil.
func (op *Operation) ParentOp() *Operation {
	if r := op.ParentRegion(); r != nil {
		return r.parent
	}
	return nil
}

// Next returns the following operation in the block.
func (op *Operation) Next() *Operation { return op.next }

// Prev returns the preceding operation in the block.
func (op *Operation) Prev() *Operation { return op.prev }

// Erased reports whether op was destroyed by Erase.
func (op *Operation) Erased() bool { return op.erased }

// IsAncestor reports whether op contains other (or is other).
func (op *Operation) IsAncestor(other *Operation) bool {
	for cur := other; cur != nil; cur = cur.ParentOp() {
		if cur == op {
			return true
		}
	}
	return false
}

// String returns a short debugging form such as "arith.addi(2 -> 1)".
func (op *Operation) String() string {
	if op == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%d -> %d)", op.name, len(op.operands), len(op.results))
}

// setOperand rewires slot i without any validation.
func (op *Operation) setOperand(i int, v Value) {
	u := Use{Op: op, Index: i}
	op.operands[i].base().removeUse(u)
	op.operands[i] = v
	v.base().addUse(u)
}

// dropOperands removes every use op holds on other values.
func (op *Operation) dropOperands() {
	for i, v := range op.operands {
		v.base().removeUse(Use{Op: op, Index: i})
	}
	op.operands = nil
}
