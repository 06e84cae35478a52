package rewrite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/traits"
)

func testTraits(t *testing.T) *traits.Registry {
	t.Helper()
	reg := traits.NewRegistry()
	require.NoError(t, reg.Register("t.module", traits.NoTerminator))
	require.NoError(t, reg.Register("t.const", traits.Pure, traits.ConstantLike))
	require.NoError(t, reg.Register("t.add", traits.Pure, traits.Commutative))
	require.NoError(t, reg.Register("t.ret", traits.Pure, traits.IsTerminator))
	return reg
}

func newModule() (*ir.Operation, *ir.Block) {
	body := ir.NewBlock()
	return ir.MustCreate(ir.State{Name: "t.module", Regions: []*ir.Region{ir.NewRegion(body)}}), body
}

func newConst(v int64) *ir.Operation {
	return ir.MustCreate(ir.State{
		Name:        "t.const",
		ResultTypes: []ir.Type{ir.I32},
		Attributes:  map[string]ir.Attribute{"value": ir.IntegerAttr{Value: v, Type: ir.I32}},
	})
}

func appendOp(t *testing.T, b *ir.Block, op *ir.Operation) *ir.Operation {
	t.Helper()
	require.NoError(t, ir.Append(b, op))
	return op
}

func addOp(x, y ir.Value) *ir.Operation {
	return ir.MustCreate(ir.State{Name: "t.add", Operands: []ir.Value{x, y}, ResultTypes: []ir.Type{ir.I32}})
}

func sinkOp(vals ...ir.Value) *ir.Operation {
	return ir.MustCreate(ir.State{Name: "t.sink", Operands: vals})
}

// foldAdd folds t.add of two t.const producers into a single t.const.
var foldAdd = NewPattern("fold-add", func(op *ir.Operation, rw *Rewriter) (bool, error) {
	if op.Name() != "t.add" {
		return false, nil
	}
	producers, ok := OperandProducers(op, func(d *ir.Operation) bool { return d.Name() == "t.const" })
	if !ok {
		return false, nil
	}
	var sum int64
	for _, p := range producers {
		a, _ := p.Attr("value")
		sum += a.(ir.IntegerAttr).Value
	}
	c := newConst(sum)
	return true, rw.ReplaceMatchedOp([]*ir.Operation{c}, c.ResultValues())
})

// chain builds ((1 + 2) + 3) feeding a sink.
func chain(t *testing.T) *ir.Operation {
	mod, body := newModule()
	c1 := appendOp(t, body, newConst(1))
	c2 := appendOp(t, body, newConst(2))
	a1 := appendOp(t, body, addOp(c1.Result(0), c2.Result(0)))
	c3 := appendOp(t, body, newConst(3))
	a2 := appendOp(t, body, addOp(a1.Result(0), c3.Result(0)))
	appendOp(t, body, sinkOp(a2.Result(0)))
	return mod
}

func opNames(b *ir.Block) []string {
	var names []string
	for op := range b.Ops() {
		names = append(names, op.Name())
	}
	return names
}
