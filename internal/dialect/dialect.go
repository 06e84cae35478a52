// Package dialect groups operation kinds into loadable catalogs.
//
// A Dialect declares its operation kinds with their trait markers, the
// optional interpreter functions that give them semantics, and an optional
// rule for building constant operations from evaluated values. Loading a
// dialect into a Context registers all three; nothing in the core hard-codes
// a dialect's kind names.
package dialect

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/irx/internal/interp"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/traits"
)

// OpDef declares one operation kind.
type OpDef struct {
	// Name is the full kind, "<dialect>.<op>".
	Name string

	// Traits are the capability markers of the kind.
	Traits []traits.Marker
}

// ConstantMaterializer builds a detached constant-like operation producing
// value with type t. It returns false when it has no rule for the pairing.
type ConstantMaterializer func(value interp.Value, t ir.Type) (*ir.Operation, bool)

// Dialect is a named catalog of operation kinds.
type Dialect struct {
	Name        string
	Ops         []OpDef
	Functions   interp.Functions
	Materialize ConstantMaterializer
}

// validate checks d in isolation: names, prefixes, duplicates, and that
// every interpreter function belongs to a declared kind.
func (d *Dialect) validate() error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("dialect name is empty")
	}
	if strings.Contains(d.Name, ".") {
		return fmt.Errorf("dialect %q: name must not contain '.'", d.Name)
	}
	prefix := d.Name + "."
	declared := make(map[string]bool, len(d.Ops))
	for _, op := range d.Ops {
		if !strings.HasPrefix(op.Name, prefix) || len(op.Name) == len(prefix) {
			return fmt.Errorf("dialect %q: op %q must be named %s<op>", d.Name, op.Name, prefix)
		}
		if declared[op.Name] {
			return fmt.Errorf("dialect %q: op %q declared twice", d.Name, op.Name)
		}
		declared[op.Name] = true
	}
	kinds := make([]string, 0, len(d.Functions))
	for k := range d.Functions {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		if !declared[k] {
			return fmt.Errorf("dialect %q: function for undeclared op %q", d.Name, k)
		}
	}
	return nil
}
