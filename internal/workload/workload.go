// Package workload builds synthetic modules used to exercise passes.
package workload

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/roach88/irx/internal/dialect/arith"
	"github.com/roach88/irx/internal/dialect/builtin"
	"github.com/roach88/irx/internal/ir"
)

// SinkOp is the unregistered kind that keeps a workload's final value alive.
const SinkOp = "test.op"

// Workload kinds accepted by Build.
const (
	KindEmpty           = "empty"
	KindConstantFolding = "constant-folding"
)

// DefaultSize is the constant-folding chain length used when none is given.
const DefaultSize = 100

// Build creates a fresh module for the named workload.
func Build(kind string, size int, seed uint64) (*ir.Operation, error) {
	switch kind {
	case KindEmpty:
		return Empty(), nil
	case KindConstantFolding:
		if size < 0 {
			return nil, fmt.Errorf("workload %s: size must not be negative, got %d", kind, size)
		}
		return ConstantFolding(size, seed), nil
	default:
		return nil, fmt.Errorf("unknown workload %q (available: %s)", kind, strings.Join(Kinds(), ", "))
	}
}

// Kinds returns the workload kinds, sorted.
func Kinds() []string {
	kinds := []string{KindEmpty, KindConstantFolding}
	slices.Sort(kinds)
	return kinds
}

// Empty returns a module with an empty body.
func Empty() *ir.Operation {
	return builtin.NewModule()
}

// ConstantFolding returns a module computing an i32 chain of size+1 values:
//
//	%0 = arith.constant
//	%i = arith.addi(%i-1, %i-2)   for even i
//	%i = arith.constant           for odd i
//	test.op(%size)
//
// Constants are drawn from [1, 1000] by a PCG source seeded with seed, so
// equal seeds give identical modules.
func ConstantFolding(size int, seed uint64) *ir.Operation {
	rng := rand.New(rand.NewPCG(seed, seed))
	literal := func() int64 { return int64(rng.IntN(1000) + 1) }

	mod := builtin.NewModule()
	body := builtin.Body(mod)
	values := make([]ir.Value, 0, size+1)
	push := func(op *ir.Operation) {
		if err := ir.Append(body, op); err != nil {
			panic(fmt.Sprintf("workload: append %s: %v", op.Name(), err))
		}
		values = append(values, op.Result(0))
	}

	push(arith.Constant(literal(), ir.I32))
	for i := 1; i <= size; i++ {
		if i%2 == 0 {
			push(arith.AddI(values[i-1], values[i-2]))
		} else {
			push(arith.Constant(literal(), ir.I32))
		}
	}
	if err := ir.Append(body, ir.MustCreate(ir.State{Name: SinkOp, Operands: []ir.Value{values[size]}})); err != nil {
		panic(fmt.Sprintf("workload: append sink: %v", err))
	}
	return mod
}
