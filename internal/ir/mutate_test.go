package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceOperand(t *testing.T) {
	mod, body := newModule(t)
	a := constant(t, body, 1)
	b := constant(t, body, 2)
	s := sink(t, body, a.Result(0), a.Result(0))

	require.NoError(t, ReplaceOperand(s, 1, b.Result(0)))

	assert.Equal(t, []Use{{Op: s, Index: 0}}, a.Result(0).Uses())
	assert.Equal(t, []Use{{Op: s, Index: 1}}, b.Result(0).Uses())
	assert.Same(t, b.Result(0), s.Operand(1))
	assertUseLists(t, mod)
}

func TestReplaceOperand_Errors(t *testing.T) {
	_, body := newModule(t)
	a := constant(t, body, 1)
	s := sink(t, body, a.Result(0))

	wide := MustCreate(State{Name: "test.wide", ResultTypes: []Type{I64}})
	require.NoError(t, InsertBefore(s, wide))

	dead := newConstant(9)
	require.NoError(t, Erase(dead))

	_, otherBody := newModule(t)
	foreign := constant(t, otherBody, 5)

	assert.True(t, IsInvalidOperation(ReplaceOperand(s, 3, a.Result(0))))
	assert.True(t, IsInvalidOperation(ReplaceOperand(s, 0, nil)))
	assert.True(t, IsDetachedOperand(ReplaceOperand(s, 0, dead.Result(0))))
	assert.True(t, IsDetachedOperand(ReplaceOperand(s, 0, foreign.Result(0))))
	assert.True(t, IsTypeMismatch(ReplaceOperand(s, 0, wide.Result(0), RequireSameType())))

	// Without the type requirement only use-lists are enforced.
	require.NoError(t, ReplaceOperand(s, 0, wide.Result(0)))
	assert.False(t, a.Result(0).HasUses())
}

func TestReplaceAllUsesWith(t *testing.T) {
	mod, body := newModule(t)
	a := constant(t, body, 1)
	b := constant(t, body, 2)
	s1 := sink(t, body, a.Result(0), b.Result(0))
	s2 := sink(t, body, a.Result(0))

	require.NoError(t, ReplaceAllUsesWith(a.Result(0), b.Result(0)))

	assert.False(t, a.Result(0).HasUses())
	assert.Equal(t, []Use{{Op: s1, Index: 1}, {Op: s1, Index: 0}, {Op: s2, Index: 0}}, b.Result(0).Uses())
	assert.Same(t, b.Result(0), s2.Operand(0))
	assertUseLists(t, mod)

	// Replacing a value with itself is a no-op.
	require.NoError(t, ReplaceAllUsesWith(b.Result(0), b.Result(0)))
	assert.Equal(t, 3, b.Result(0).NumUses())
}

func TestReplaceAllUsesWith_AllOrNothing(t *testing.T) {
	// inner region reads the outer constant; the replacement lives in the
	// inner block, so it is invisible to the outer user.
	mod, body := newModule(t)
	a := constant(t, body, 1)
	innerBody := NewBlock()
	nest := MustCreate(State{Name: "test.nest", Regions: []*Region{NewRegion(innerBody)}})
	require.NoError(t, Append(body, nest))
	innerUser := sink(t, innerBody, a.Result(0))
	outerUser := sink(t, body, a.Result(0))
	inner := constant(t, innerBody, 2)

	before := MustSnapshot(mod)
	err := ReplaceAllUsesWith(a.Result(0), inner.Result(0))
	assert.True(t, IsDetachedOperand(err))
	assert.Same(t, outerUser, err.(*Error).Op)
	assert.Equal(t, string(before), string(MustSnapshot(mod)))
	assert.Equal(t, []Use{{Op: innerUser, Index: 0}, {Op: outerUser, Index: 0}}, a.Result(0).Uses())
}

func TestInsertBefore_RejectsInvisibleOperand(t *testing.T) {
	_, body := newModule(t)
	anchor := constant(t, body, 1)

	_, otherBody := newModule(t)
	foreign := constant(t, otherBody, 2)

	op := MustCreate(State{Name: "test.sink", Operands: []Value{foreign.Result(0)}})
	err := InsertBefore(anchor, op)
	assert.True(t, IsDetachedOperand(err))
	assert.Nil(t, op.Parent())
	assert.Equal(t, 1, body.Len())

	detachedResult := MustCreate(State{Name: "test.sink", Operands: []Value{newConstant(3).Result(0)}})
	assert.True(t, IsDetachedOperand(InsertAfter(anchor, detachedResult)))
}

func TestInsert_Rejects(t *testing.T) {
	_, body := newModule(t)
	anchor := constant(t, body, 1)

	assert.True(t, IsInvalidOperation(InsertBefore(anchor, anchor)))
	assert.True(t, IsInvalidOperation(InsertBefore(newConstant(1), newConstant(2))))
	assert.True(t, IsInvalidOperation(Append(nil, newConstant(2))))

	// An op cannot be inserted into a block it contains.
	innerBody := NewBlock()
	nest := MustCreate(State{Name: "test.nest", Regions: []*Region{NewRegion(innerBody)}})
	assert.True(t, IsInvalidOperation(Append(innerBody, nest)))
}

func TestInsert_NestedReadsOuterValue(t *testing.T) {
	mod, body := newModule(t)
	a := constant(t, body, 1)

	innerBody := NewBlock(I32)
	sink(t, innerBody, innerBody.Argument(0))
	nest := MustCreate(State{Name: "test.nest", Regions: []*Region{NewRegion(innerBody)}})
	require.NoError(t, Append(body, nest))

	// Once attached, the nested block sees values of the enclosing block.
	sink(t, innerBody, a.Result(0))
	assert.True(t, IsVisible(a.Result(0), innerBody))
	assert.False(t, IsVisible(innerBody.Argument(0), body))
	assertUseLists(t, mod)

	// A copy moved into another module carries an invisible nested operand.
	_, otherBody := newModule(t)
	moved := Clone(nest)
	err := Append(otherBody, moved)
	assert.True(t, IsDetachedOperand(err))
	assert.Equal(t, "test.sink", err.(*Error).Op.Name())
	require.NoError(t, Erase(moved))

	require.NoError(t, InsertAfter(nest, Clone(nest)))
	assertUseLists(t, mod)
}

func TestErase_HasRemainingUses(t *testing.T) {
	mod, body := newModule(t)
	a := constant(t, body, 1)
	sink(t, body, a.Result(0))

	before := MustSnapshot(mod)
	err := Erase(a)

	require.Error(t, err)
	assert.True(t, IsHasRemainingUses(err))
	assert.False(t, a.Erased())
	assert.Same(t, body, a.Parent())
	assert.Equal(t, string(before), string(MustSnapshot(mod)))
	assertUseLists(t, mod)
}

func TestErase_DropsOperandUses(t *testing.T) {
	mod, body := newModule(t)
	a := constant(t, body, 1)
	b := constant(t, body, 2)
	sum := add(t, body, a.Result(0), b.Result(0))

	require.NoError(t, Erase(sum))

	assert.True(t, sum.Erased())
	assert.Nil(t, sum.Parent())
	assert.False(t, a.Result(0).HasUses())
	assert.False(t, b.Result(0).HasUses())
	assert.Equal(t, 2, body.Len())
	assertUseLists(t, mod)

	assert.True(t, IsInvalidOperation(Erase(sum)))
}

func TestErase_NestedValuesUsedOutside(t *testing.T) {
	_, body := newModule(t)
	innerBody := NewBlock()
	nest := MustCreate(State{Name: "test.nest", Regions: []*Region{NewRegion(innerBody)}})
	require.NoError(t, Append(body, nest))
	inner := constant(t, innerBody, 1)

	// Force an outside reader through a detached op; visibility is only
	// checked on insertion.
	reader := MustCreate(State{Name: "test.sink", Operands: []Value{inner.Result(0)}})

	assert.True(t, IsHasRemainingUses(Erase(nest)))
	require.NoError(t, Erase(reader))
	require.NoError(t, Erase(nest))
	assert.True(t, inner.Erased())
}

func TestErase_InternalUsesAllowed(t *testing.T) {
	mod, body := newModule(t)
	outer := constant(t, body, 1)
	innerBody := NewBlock()
	nest := MustCreate(State{Name: "test.nest", Regions: []*Region{NewRegion(innerBody)}})
	require.NoError(t, Append(body, nest))
	inner := constant(t, innerBody, 2)
	sink(t, innerBody, inner.Result(0), outer.Result(0))

	require.NoError(t, Erase(nest))
	assert.False(t, outer.Result(0).HasUses())
	assertUseLists(t, mod)
}

func TestEraseBlock(t *testing.T) {
	mod, body := newModule(t)
	b1 := NewBlock(I32)
	b2 := NewBlock()
	holder := MustCreate(State{Name: "test.cfg", Regions: []*Region{NewRegion(b1, b2)}})
	require.NoError(t, Append(body, holder))
	c := constant(t, b2, 1)
	user := sink(t, b1, c.Result(0), b1.Argument(0))

	assert.True(t, IsHasRemainingUses(EraseBlock(b2)))

	require.NoError(t, Erase(user))
	require.NoError(t, EraseBlock(b2))
	assert.True(t, c.Erased())
	assert.Equal(t, 1, holder.Region(0).NumBlocks())
	assert.Nil(t, b2.Parent())
	assertUseLists(t, mod)
}

func TestEraseBlock_StillASuccessor(t *testing.T) {
	mod, body := newModule(t)
	b1 := NewBlock()
	b2 := NewBlock()
	holder := MustCreate(State{Name: "test.cfg", Regions: []*Region{NewRegion(b1, b2)}})
	require.NoError(t, Append(body, holder))
	br := MustCreate(State{Name: "test.br", Successors: []*Block{b2}})
	require.NoError(t, Append(b1, br))
	constant(t, b2, 1)
	before := MustSnapshot(mod)

	err := EraseBlock(b2)
	require.Error(t, err)
	assert.True(t, IsHasRemainingUses(err))
	assert.Equal(t, string(before), string(MustSnapshot(mod)))
	assert.Equal(t, 2, holder.Region(0).NumBlocks())

	require.NoError(t, Erase(br))
	require.NoError(t, EraseBlock(b2))
	assert.Equal(t, 1, holder.Region(0).NumBlocks())
	assertUseLists(t, mod)
}

func TestEraseBlock_SelfLoopAllowed(t *testing.T) {
	mod, body := newModule(t)
	b1 := NewBlock()
	b2 := NewBlock()
	holder := MustCreate(State{Name: "test.cfg", Regions: []*Region{NewRegion(b1, b2)}})
	require.NoError(t, Append(body, holder))
	require.NoError(t, Append(b2, MustCreate(State{Name: "test.br", Successors: []*Block{b2}})))

	require.NoError(t, EraseBlock(b2))
	assert.Equal(t, 1, holder.Region(0).NumBlocks())
	assertUseLists(t, mod)
}

func TestSwapOperands(t *testing.T) {
	mod, body := newModule(t)
	a := constant(t, body, 1)
	b := constant(t, body, 2)
	sum := add(t, body, a.Result(0), b.Result(0))

	require.NoError(t, SwapOperands(sum, 0, 1))
	assert.Equal(t, Value(b.Result(0)), sum.Operand(0))
	assert.Equal(t, Value(a.Result(0)), sum.Operand(1))
	assert.Equal(t, []Use{{Op: sum, Index: 1}}, a.Result(0).Uses())
	assert.Equal(t, []Use{{Op: sum, Index: 0}}, b.Result(0).Uses())
	assertUseLists(t, mod)

	before := MustSnapshot(mod)
	err := SwapOperands(sum, 0, 2)
	assert.True(t, IsInvalidOperation(err))
	assert.Equal(t, string(before), string(MustSnapshot(mod)))

	require.NoError(t, SwapOperands(sum, 1, 1))
	assert.Equal(t, string(before), string(MustSnapshot(mod)))
}

func TestSwapOperands_SameValue(t *testing.T) {
	mod, body := newModule(t)
	a := constant(t, body, 1)
	sq := add(t, body, a.Result(0), a.Result(0))

	require.NoError(t, SwapOperands(sq, 0, 1))
	assert.Equal(t, 2, a.Result(0).NumUses())
	assertUseLists(t, mod)
}

func TestReplaceOp(t *testing.T) {
	mod, body := newModule(t)
	a := constant(t, body, 3)
	b := constant(t, body, 4)
	sum := add(t, body, a.Result(0), b.Result(0))
	s := sink(t, body, sum.Result(0))

	folded := newConstant(7)
	require.NoError(t, ReplaceOp(sum, []*Operation{folded}, folded.ResultValues(), RequireSameType()))

	assert.True(t, sum.Erased())
	assert.Same(t, folded.Result(0), s.Operand(0))
	assert.Equal(t, []*Operation{a, b, folded, s}, body.OpList())
	assert.False(t, a.Result(0).HasUses())
	assertUseLists(t, mod)
}

func TestReplaceOp_WithExistingValue(t *testing.T) {
	mod, body := newModule(t)
	a := constant(t, body, 3)
	copyOp := MustCreate(State{Name: "test.copy", Operands: []Value{a.Result(0)}, ResultTypes: []Type{I32}})
	require.NoError(t, Append(body, copyOp))
	s := sink(t, body, copyOp.Result(0))

	require.NoError(t, ReplaceOp(copyOp, nil, []Value{a.Result(0)}))
	assert.Same(t, a.Result(0), s.Operand(0))
	assert.Equal(t, []Use{{Op: s, Index: 0}}, a.Result(0).Uses())
	assertUseLists(t, mod)
}

func TestReplaceOp_AtomicOnError(t *testing.T) {
	_, body := newModule(t)
	a := constant(t, body, 3)
	sum := add(t, body, a.Result(0), a.Result(0))
	sink(t, body, sum.Result(0))

	wide := MustCreate(State{Name: "test.wide", ResultTypes: []Type{I64}})
	readsOld := MustCreate(State{Name: "test.copy", Operands: []Value{sum.Result(0)}, ResultTypes: []Type{I32}})
	_, otherBody := newModule(t)
	foreign := constant(t, otherBody, 1)

	tests := []struct {
		name    string
		newOps  []*Operation
		results []Value
		opts    []ReplaceOption
		check   func(error) bool
	}{
		{"result count", []*Operation{newConstant(1)}, nil, nil, IsInvalidOperation},
		{"type mismatch", []*Operation{wide}, []Value{wide.Result(0)}, []ReplaceOption{RequireSameType()}, IsTypeMismatch},
		{"reads replaced results", []*Operation{readsOld}, []Value{readsOld.Result(0)}, nil, IsInvalidOperation},
		{"invisible result", nil, []Value{foreign.Result(0)}, nil, IsDetachedOperand},
		{"own result", nil, []Value{sum.Result(0)}, nil, IsInvalidOperation},
		{"attached new op", []*Operation{a}, []Value{a.Result(0)}, nil, IsInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := body.OpList()
			uses := sum.Result(0).Uses()
			err := ReplaceOp(sum, tt.newOps, tt.results, tt.opts...)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Equal(t, before, body.OpList())
			assert.False(t, sum.Erased())
			assert.Equal(t, uses, sum.Result(0).Uses())
		})
	}
}

func TestReplaceOp_ChainedNewOps(t *testing.T) {
	mod, body := newModule(t)
	a := constant(t, body, 3)
	old := add(t, body, a.Result(0), a.Result(0))
	s := sink(t, body, old.Result(0))

	first := newConstant(2)
	second := MustCreate(State{Name: "test.add", Operands: []Value{first.Result(0), a.Result(0)}, ResultTypes: []Type{I32}})
	require.NoError(t, ReplaceOp(old, []*Operation{first, second}, second.ResultValues()))

	assert.Equal(t, []*Operation{a, first, second, s}, body.OpList())
	assert.Same(t, second.Result(0), s.Operand(0))
	assertUseLists(t, mod)
}

func TestUseListConsistency_MutationSequence(t *testing.T) {
	mod, body := newModule(t)
	var consts []*Operation
	for i := range 4 {
		consts = append(consts, constant(t, body, int64(i)))
	}
	x := add(t, body, consts[0].Result(0), consts[1].Result(0))
	y := add(t, body, x.Result(0), consts[2].Result(0))
	s := sink(t, body, y.Result(0), x.Result(0), consts[3].Result(0))
	assertUseLists(t, mod)

	require.NoError(t, ReplaceOperand(y, 0, consts[3].Result(0)))
	assertUseLists(t, mod)
	require.NoError(t, ReplaceAllUsesWith(consts[3].Result(0), consts[0].Result(0)))
	assertUseLists(t, mod)
	require.NoError(t, ReplaceOperand(s, 1, consts[1].Result(0)))
	assertUseLists(t, mod)
	require.NoError(t, Erase(x))
	assertUseLists(t, mod)
	clone := Clone(y)
	require.NoError(t, InsertAfter(y, clone))
	assertUseLists(t, mod)
	require.NoError(t, ReplaceOp(y, nil, clone.ResultValues()))
	assertUseLists(t, mod)
	require.NoError(t, Erase(consts[3]))
	assertUseLists(t, mod)

	assert.Equal(t, 2, consts[0].Result(0).NumUses())
}
