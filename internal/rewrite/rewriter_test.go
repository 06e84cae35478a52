package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irx/internal/ir"
)

func TestRewriter_RecordsReplaceOp(t *testing.T) {
	_, body := newModule()
	c1 := appendOp(t, body, newConst(1))
	c2 := appendOp(t, body, newConst(2))
	sum := appendOp(t, body, addOp(c1.Result(0), c2.Result(0)))
	s := appendOp(t, body, sinkOp(sum.Result(0)))

	rw := newRewriter(sum)
	folded := newConst(3)
	require.NoError(t, rw.ReplaceMatchedOp([]*ir.Operation{folded}, folded.ResultValues()))

	assert.True(t, rw.Changed())
	assert.Equal(t, []*ir.Operation{folded}, rw.inserted)
	assert.Equal(t, []*ir.Operation{s}, rw.modified)
	assert.Equal(t, []ir.Value{c1.Result(0), c2.Result(0)}, rw.formerOperands)
}

func TestRewriter_FailedCallsRecordNothing(t *testing.T) {
	_, body := newModule()
	c1 := appendOp(t, body, newConst(1))
	appendOp(t, body, sinkOp(c1.Result(0)))

	rw := newRewriter(c1)
	err := rw.Erase(c1)
	assert.True(t, ir.IsHasRemainingUses(err))
	assert.False(t, rw.Changed())
	assert.Empty(t, rw.formerOperands)

	assert.Error(t, rw.InsertBefore(c1, c1))
	assert.Error(t, rw.ReplaceOperand(c1, 0, c1.Result(0)))
	assert.False(t, rw.Changed())
	assert.Same(t, c1, rw.MatchedOp())
}

func TestRewriter_ReplaceOperandAndUses(t *testing.T) {
	_, body := newModule()
	c1 := appendOp(t, body, newConst(1))
	c2 := appendOp(t, body, newConst(2))
	s := appendOp(t, body, sinkOp(c1.Result(0)))

	rw := newRewriter(s)
	require.NoError(t, rw.ReplaceOperand(s, 0, c2.Result(0)))
	require.NoError(t, rw.ReplaceAllUsesWith(c2.Result(0), c1.Result(0)))

	assert.Equal(t, []*ir.Operation{s, s}, rw.modified)
	assert.Equal(t, []ir.Value{c1.Result(0)}, rw.formerOperands)
	assert.Same(t, c1.Result(0), s.Operand(0))
}

func TestRewriter_SwapOperands(t *testing.T) {
	_, body := newModule()
	c1 := appendOp(t, body, newConst(1))
	c2 := appendOp(t, body, newConst(2))
	sum := appendOp(t, body, addOp(c1.Result(0), c2.Result(0)))

	rw := newRewriter(sum)
	assert.Error(t, rw.SwapOperands(sum, 0, 5))
	assert.False(t, rw.Changed())
	assert.Equal(t, ir.Value(c1.Result(0)), sum.Operand(0))

	require.NoError(t, rw.SwapOperands(sum, 0, 1))
	assert.True(t, rw.Changed())
	assert.Equal(t, []*ir.Operation{sum}, rw.modified)
	assert.Equal(t, ir.Value(c2.Result(0)), sum.Operand(0))
	assert.Equal(t, ir.Value(c1.Result(0)), sum.Operand(1))
}
