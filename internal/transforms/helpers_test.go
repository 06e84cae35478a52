package transforms

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/dialect/arith"
	"github.com/roach88/irx/internal/dialect/builtin"
	"github.com/roach88/irx/internal/interp"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/rewrite"
	"github.com/roach88/irx/internal/traits"
)

// testDialect adds kinds the arith dialect does not cover.
func testDialect() *dialect.Dialect {
	return &dialect.Dialect{
		Name: "t",
		Ops: []dialect.OpDef{
			{Name: "t.pair", Traits: []traits.Marker{traits.Pure}},
			{Name: "t.opaque", Traits: []traits.Marker{traits.Pure}},
			{Name: "t.ret", Traits: []traits.Marker{traits.Pure, traits.IsTerminator}},
			{Name: "t.func"},
		},
		Functions: interp.Functions{
			"t.pair": func(_ *interp.Interpreter, _ *ir.Operation, args []interp.Value) ([]interp.Value, error) {
				return []interp.Value{args[0], args[0]}, nil
			},
		},
	}
}

func newContext(t *testing.T) *dialect.Context {
	t.Helper()
	dctx := dialect.NewContext(dialect.WithAllowUnregistered())
	require.NoError(t, dctx.Load(builtin.Dialect()))
	require.NoError(t, dctx.Load(arith.Dialect()))
	require.NoError(t, dctx.Load(testDialect()))
	return dctx
}

func appendOp(t *testing.T, b *ir.Block, op *ir.Operation) *ir.Operation {
	t.Helper()
	require.NoError(t, ir.Append(b, op))
	return op
}

func sink(vals ...ir.Value) *ir.Operation {
	return ir.MustCreate(ir.State{Name: "test.op", Operands: vals})
}

// addScenario builds const(3), const(4), addi, and a test.op reading the sum.
func addScenario(t *testing.T) (*ir.Operation, *ir.Block) {
	t.Helper()
	mod := builtin.NewModule()
	body := builtin.Body(mod)
	c3 := appendOp(t, body, arith.Constant(3, ir.I32))
	c4 := appendOp(t, body, arith.Constant(4, ir.I32))
	sum := appendOp(t, body, arith.AddI(c3.Result(0), c4.Result(0)))
	appendOp(t, body, sink(sum.Result(0)))
	return mod, body
}

// funcWithArg builds a t.func inside a module whose body block has one i32
// argument, and returns that block.
func funcWithArg(t *testing.T) (*ir.Operation, *ir.Block) {
	t.Helper()
	mod := builtin.NewModule()
	inner := ir.NewBlock(ir.I32)
	fn := ir.MustCreate(ir.State{Name: "t.func", Regions: []*ir.Region{ir.NewRegion(inner)}})
	appendOp(t, builtin.Body(mod), fn)
	return mod, inner
}

func opNames(b *ir.Block) []string {
	var names []string
	for op := range b.Ops() {
		names = append(names, op.Name())
	}
	return names
}

func fixedRunIDs() rewrite.Option {
	return rewrite.WithRunIDGenerator(rewrite.NewFixedGenerator("run-1"))
}
