package interp

import (
	"errors"
	"fmt"

	"github.com/roach88/irx/internal/ir"
)

// Interpreter evaluates single operations using a Registry.
type Interpreter struct {
	registry *Registry
}

// New creates an interpreter over registry.
func New(registry *Registry) *Interpreter {
	return &Interpreter{registry: registry}
}

// Registry returns the registry the interpreter dispatches through.
func (in *Interpreter) Registry() *Registry { return in.registry }

// RunOp evaluates op over args.
//
// Returns *UnimplementedError if no function is registered for op's kind,
// and *EvalError if the function fails or returns the wrong number of
// values. args must hold one value per operand.
func (in *Interpreter) RunOp(op *ir.Operation, args []Value) ([]Value, error) {
	fn, ok := in.registry.Lookup(op.Name())
	if !ok {
		return nil, &UnimplementedError{Kind: op.Name()}
	}
	if len(args) != op.NumOperands() {
		return nil, &EvalError{Kind: op.Name(), Err: fmt.Errorf("got %d arguments for %d operands", len(args), op.NumOperands())}
	}
	results, err := fn(in, op, args)
	if err != nil {
		var ue *UnimplementedError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, &EvalError{Kind: op.Name(), Err: err}
	}
	if len(results) != op.NumResults() {
		return nil, &EvalError{Kind: op.Name(), Err: fmt.Errorf("got %d values for %d results", len(results), op.NumResults())}
	}
	return results, nil
}

// UnimplementedError reports an operation kind without an evaluation function.
type UnimplementedError struct {
	Kind string
}

// Error implements the error interface.
func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("no interpretation registered for %s", e.Kind)
}

// EvalError wraps a failure raised while evaluating an operation.
type EvalError struct {
	Kind string
	Err  error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvalError) Unwrap() error { return e.Err }

// IsUnimplemented reports whether err is an *UnimplementedError.
// Uses errors.As to handle wrapped errors.
func IsUnimplemented(err error) bool {
	var ue *UnimplementedError
	return errors.As(err, &ue)
}

// IsEvalError reports whether err is an *EvalError.
func IsEvalError(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee)
}
