package interp

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/irx/internal/ir"
)

// Value is an abstract runtime value. Integer semantics use int64.
type Value = any

// Func evaluates op over args and returns one value per result.
type Func func(in *Interpreter, op *ir.Operation, args []Value) ([]Value, error)

// Functions is a set of evaluation functions keyed by operation kind.
type Functions map[string]Func

// ErrConflictingKind is returned by Install when a kind already has a function.
var ErrConflictingKind = errors.New("kind already has an evaluation function")

// Registry maps operation kinds to evaluation functions.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register installs a single function.
func (r *Registry) Register(kind string, fn Func) error {
	return r.Install(Functions{kind: fn})
}

// Install adds every function in fns. Nothing is installed if any kind is
// empty, has a nil function or is already present.
func (r *Registry) Install(fns Functions) error {
	kinds := make([]string, 0, len(fns))
	for k := range fns {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	for _, k := range kinds {
		if k == "" {
			return fmt.Errorf("install: kind name is empty")
		}
		if fns[k] == nil {
			return fmt.Errorf("install %q: function is nil", k)
		}
		if _, exists := r.funcs[k]; exists {
			return fmt.Errorf("install %q: %w", k, ErrConflictingKind)
		}
	}
	for _, k := range kinds {
		r.funcs[k] = fns[k]
	}
	return nil
}

// Lookup returns the function for kind.
func (r *Registry) Lookup(kind string) (Func, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.funcs[kind]
	return fn, ok
}

// Kinds returns every kind with a function, sorted.
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	kinds := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
