// Package arith is a small integer arithmetic dialect: constants and the
// four basic binary operations with two's complement wrapping at the result
// type's bit width.
package arith

import (
	"errors"
	"fmt"

	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/interp"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/traits"
)

// Operation kinds.
const (
	ConstantOp = "arith.constant"
	AddIOp     = "arith.addi"
	SubIOp     = "arith.subi"
	MulIOp     = "arith.muli"
	DivSIOp    = "arith.divsi"
)

// ErrDivisionByZero is returned when evaluating divsi with a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

// Dialect returns the arith dialect definition.
func Dialect() *dialect.Dialect {
	return &dialect.Dialect{
		Name: "arith",
		Ops: []dialect.OpDef{
			{Name: ConstantOp, Traits: []traits.Marker{traits.Pure, traits.ConstantLike}},
			{Name: AddIOp, Traits: []traits.Marker{traits.Pure, traits.Commutative}},
			{Name: SubIOp, Traits: []traits.Marker{traits.Pure}},
			{Name: MulIOp, Traits: []traits.Marker{traits.Pure, traits.Commutative}},
			{Name: DivSIOp, Traits: []traits.Marker{traits.Pure}},
		},
		Functions: Functions(),
		Materialize: func(v interp.Value, t ir.Type) (*ir.Operation, bool) {
			return MaterializeConstant(v, t)
		},
	}
}

// Constant builds a detached arith.constant of type t. value is wrapped to
// the width of t.
func Constant(value int64, t ir.Type) *ir.Operation {
	if w, ok := ir.IntegerWidth(t); ok {
		value = Wrap(value, w)
	}
	return ir.MustCreate(ir.State{
		Name:        ConstantOp,
		ResultTypes: []ir.Type{t},
		Attributes:  map[string]ir.Attribute{"value": ir.IntegerAttr{Value: value, Type: t}},
	})
}

// AddI builds a detached arith.addi; the result type is x's type.
func AddI(x, y ir.Value) *ir.Operation { return binary(AddIOp, x, y) }

// SubI builds a detached arith.subi.
func SubI(x, y ir.Value) *ir.Operation { return binary(SubIOp, x, y) }

// MulI builds a detached arith.muli.
func MulI(x, y ir.Value) *ir.Operation { return binary(MulIOp, x, y) }

// DivSI builds a detached arith.divsi.
func DivSI(x, y ir.Value) *ir.Operation { return binary(DivSIOp, x, y) }

func binary(kind string, x, y ir.Value) *ir.Operation {
	return ir.MustCreate(ir.State{
		Name:        kind,
		Operands:    []ir.Value{x, y},
		ResultTypes: []ir.Type{x.Type()},
	})
}

// ConstantValue returns the literal of an arith.constant.
func ConstantValue(op *ir.Operation) (int64, bool) {
	if op.Name() != ConstantOp {
		return 0, false
	}
	a, ok := op.Attr("value")
	if !ok {
		return 0, false
	}
	ia, ok := a.(ir.IntegerAttr)
	if !ok {
		return 0, false
	}
	return ia.Value, true
}

// MaterializeConstant builds an arith.constant for an integer value of an
// integer or index type. Any other pairing has no rule.
func MaterializeConstant(v interp.Value, t ir.Type) (*ir.Operation, bool) {
	if _, ok := ir.IntegerWidth(t); !ok {
		return nil, false
	}
	switch n := v.(type) {
	case int64:
		return Constant(n, t), true
	case int:
		return Constant(int64(n), t), true
	default:
		return nil, false
	}
}

// Wrap truncates v to width bits and sign-extends it back to int64.
func Wrap(v int64, width int) int64 {
	if width <= 0 || width >= 64 {
		return v
	}
	shift := uint(64 - width)
	return (v << shift) >> shift
}

// Functions returns the interpreter functions of the dialect.
func Functions() interp.Functions {
	return interp.Functions{
		ConstantOp: runConstant,
		AddIOp:     binaryFunc(func(x, y int64) (int64, error) { return x + y, nil }),
		SubIOp:     binaryFunc(func(x, y int64) (int64, error) { return x - y, nil }),
		MulIOp:     binaryFunc(func(x, y int64) (int64, error) { return x * y, nil }),
		DivSIOp: binaryFunc(func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, ErrDivisionByZero
			}
			return x / y, nil
		}),
	}
}

func runConstant(_ *interp.Interpreter, op *ir.Operation, _ []interp.Value) ([]interp.Value, error) {
	if op.NumResults() != 1 {
		return nil, fmt.Errorf("constant must have 1 result, got %d", op.NumResults())
	}
	v, ok := ConstantValue(op)
	if !ok {
		return nil, fmt.Errorf("missing integer value attribute")
	}
	return []interp.Value{v}, nil
}

func binaryFunc(fn func(x, y int64) (int64, error)) interp.Func {
	return func(_ *interp.Interpreter, op *ir.Operation, args []interp.Value) ([]interp.Value, error) {
		if len(args) != 2 || op.NumResults() != 1 {
			return nil, fmt.Errorf("want 2 operands and 1 result, got %d and %d", len(args), op.NumResults())
		}
		x, xok := args[0].(int64)
		y, yok := args[1].(int64)
		if !xok || !yok {
			return nil, fmt.Errorf("operands must be integers, got %T and %T", args[0], args[1])
		}
		width, ok := ir.IntegerWidth(op.Result(0).Type())
		if !ok {
			return nil, fmt.Errorf("result type %s is not an integer", op.Result(0).Type())
		}
		r, err := fn(x, y)
		if err != nil {
			return nil, err
		}
		return []interp.Value{Wrap(r, width)}, nil
	}
}
