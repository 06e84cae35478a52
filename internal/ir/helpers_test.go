package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newModule returns a container op with one empty block.
func newModule(t *testing.T) (*Operation, *Block) {
	t.Helper()
	body := NewBlock()
	mod := MustCreate(State{Name: "test.module", Regions: []*Region{NewRegion(body)}})
	return mod, body
}

func newConstant(v int64) *Operation {
	return MustCreate(State{
		Name:        "test.const",
		ResultTypes: []Type{I32},
		Attributes:  map[string]Attribute{"value": IntegerAttr{Value: v, Type: I32}},
	})
}

func constant(t *testing.T, b *Block, v int64) *Operation {
	t.Helper()
	op := newConstant(v)
	require.NoError(t, Append(b, op))
	return op
}

func add(t *testing.T, b *Block, x, y Value) *Operation {
	t.Helper()
	op := MustCreate(State{Name: "test.add", Operands: []Value{x, y}, ResultTypes: []Type{I32}})
	require.NoError(t, Append(b, op))
	return op
}

func sink(t *testing.T, b *Block, vals ...Value) *Operation {
	t.Helper()
	op := MustCreate(State{Name: "test.sink", Operands: vals})
	require.NoError(t, Append(b, op))
	return op
}

// assertUseLists checks that every value defined under root records exactly
// the operand slots that read it, and that no operand reads an erased value.
func assertUseLists(t *testing.T, root *Operation) {
	t.Helper()
	want := make(map[Value][]Use)
	var defs []Value
	Walk(root, PreOrder, func(op *Operation) {
		assert.False(t, op.Erased(), "attached op %s is erased", op.Name())
		for i, v := range op.Operands() {
			assert.False(t, isDead(v), "%s operand %d reads an erased value", op.Name(), i)
			want[v] = append(want[v], Use{Op: op, Index: i})
		}
		for _, r := range op.Results() {
			defs = append(defs, r)
		}
		for _, reg := range op.Regions() {
			for _, b := range reg.Blocks() {
				for _, a := range b.Arguments() {
					defs = append(defs, a)
				}
			}
		}
	})
	for _, v := range defs {
		assert.ElementsMatch(t, want[v], v.Uses())
	}
}
