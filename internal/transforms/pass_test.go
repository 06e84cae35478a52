package transforms

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irx/internal/dialect/arith"
	"github.com/roach88/irx/internal/dialect/builtin"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/rewrite"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"canonicalize", "constant-fold-interp", "dce"}, Names())
	for _, name := range Names() {
		p, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("inline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown pass "inline"`)
	assert.Contains(t, err.Error(), "canonicalize, constant-fold-interp, dce")
}

func TestPass_NilContext(t *testing.T) {
	p, err := Lookup("dce")
	require.NoError(t, err)
	_, err = p.Run(context.Background(), nil, builtin.NewModule())
	assert.Error(t, err)
}

func TestDCE_ErasesUnusedPureOps(t *testing.T) {
	mod := builtin.NewModule()
	body := builtin.Body(mod)
	c1 := appendOp(t, body, arith.Constant(1, ir.I32))
	c2 := appendOp(t, body, arith.Constant(2, ir.I32))
	appendOp(t, body, arith.AddI(c1.Result(0), c2.Result(0)))
	c3 := appendOp(t, body, arith.Constant(3, ir.I32))
	appendOp(t, body, sink(c3.Result(0)))
	appendOp(t, body, ir.MustCreate(ir.State{Name: "t.ret"}))

	p, err := Lookup("dce")
	require.NoError(t, err)
	res, err := p.Run(context.Background(), newContext(t), mod)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rewrites)
	assert.Zero(t, res.Erased)
	assert.Equal(t, []string{arith.ConstantOp, "test.op", "t.ret"}, opNames(body))
	assert.Equal(t, 1, c3.Result(0).NumUses())
}

func TestCanonicalize_MovesConstantRight(t *testing.T) {
	mod, inner := funcWithArg(t)
	arg := inner.Argument(0)
	c := appendOp(t, inner, arith.Constant(5, ir.I32))
	add := appendOp(t, inner, arith.AddI(c.Result(0), arg))
	sub := appendOp(t, inner, arith.SubI(c.Result(0), arg))
	appendOp(t, inner, sink(add.Result(0), sub.Result(0)))

	p, err := Lookup("canonicalize")
	require.NoError(t, err)
	res, err := p.Run(context.Background(), newContext(t), mod)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Rewrites)
	assert.Equal(t, arg, add.Operand(0))
	assert.Equal(t, c.Result(0), add.Operand(1))
	// subi is not commutative.
	assert.Equal(t, c.Result(0), sub.Operand(0))
}

func TestCanonicalize_AddScenario(t *testing.T) {
	mod, _ := addScenario(t)
	p, err := Lookup("canonicalize")
	require.NoError(t, err)
	_, err = p.Run(context.Background(), newContext(t), mod)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "fold_add_scenario", ir.MustSnapshot(mod))
}

func TestPass_OptionsOverride(t *testing.T) {
	mod, _ := addScenario(t)
	p, err := Lookup("constant-fold-interp")
	require.NoError(t, err)

	_, err = p.Run(context.Background(), newContext(t), mod, rewrite.WithMaxRewrites(0))
	require.Error(t, err)
	assert.True(t, rewrite.IsNonConvergence(err))
	assert.Contains(t, err.Error(), "pass constant-fold-interp")
}

func TestPass_Deterministic(t *testing.T) {
	run := func() ([]rewrite.Event, string) {
		mod, _ := addScenario(t)
		var events []rewrite.Event
		p, err := Lookup("canonicalize")
		require.NoError(t, err)
		_, err = p.Run(context.Background(), newContext(t), mod,
			fixedRunIDs(),
			rewrite.WithObserver(func(ev rewrite.Event) { events = append(events, ev) }),
		)
		require.NoError(t, err)
		return events, string(ir.MustSnapshot(mod))
	}
	e1, s1 := run()
	e2, s2 := run()
	assert.Equal(t, e1, e2)
	assert.Equal(t, s1, s2)
	require.Len(t, e1, 3)
	assert.Equal(t, rewrite.EventRewrite, e1[0].Kind)
	assert.Equal(t, "constant-fold-interp", e1[0].Pattern)
}
