// Package traits maps operation kinds to the capability markers they carry.
//
// Markers are declared once per kind when a dialect is loaded and never
// change afterwards. Queries never fail: a kind nobody registered simply has
// no markers, which is how unregistered operations pass through passes
// untouched.
package traits

import (
	"errors"
	"fmt"
	"slices"
)

// Marker names a capability such as "has no side effects".
type Marker string

// Built-in markers understood by the rewrite driver, the verifier and the
// constant folder. Dialects may declare additional markers of their own.
const (
	// Pure operations have no side effects; unused ones may be erased.
	Pure Marker = "Pure"

	// ConstantLike operations produce a value known without inputs.
	ConstantLike Marker = "ConstantLike"

	// IsTerminator operations must be the last operation of their block.
	IsTerminator Marker = "IsTerminator"

	// NoTerminator operations have blocks that may end without a terminator.
	NoTerminator Marker = "NoTerminator"

	// Commutative operations give the same result for any operand order.
	Commutative Marker = "Commutative"
)

// ErrDuplicateKind is returned when a kind is registered twice.
var ErrDuplicateKind = errors.New("kind already registered")

// Kinded is anything with an operation kind name; *ir.Operation satisfies it.
type Kinded interface {
	Name() string
}

// Registry holds the marker set of each registered kind.
// The zero value is not usable; a nil *Registry reports no markers.
type Registry struct {
	kinds map[string]map[Marker]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]map[Marker]struct{})}
}

// Register declares kind with the given markers. A kind may be registered
// with no markers at all, which still makes it "registered".
func (r *Registry) Register(kind string, markers ...Marker) error {
	if kind == "" {
		return fmt.Errorf("register: kind name is empty")
	}
	if _, exists := r.kinds[kind]; exists {
		return fmt.Errorf("register %q: %w", kind, ErrDuplicateKind)
	}
	set := make(map[Marker]struct{}, len(markers))
	for _, m := range markers {
		if m == "" {
			return fmt.Errorf("register %q: empty marker", kind)
		}
		set[m] = struct{}{}
	}
	r.kinds[kind] = set
	return nil
}

// Has reports whether op's kind carries marker m.
func (r *Registry) Has(op Kinded, m Marker) bool {
	if op == nil {
		return false
	}
	return r.HasKind(op.Name(), m)
}

// HasKind reports whether kind carries marker m.
func (r *Registry) HasKind(kind string, m Marker) bool {
	if r == nil {
		return false
	}
	_, ok := r.kinds[kind][m]
	return ok
}

// Registered reports whether kind was declared.
func (r *Registry) Registered(kind string) bool {
	if r == nil {
		return false
	}
	_, ok := r.kinds[kind]
	return ok
}

// Markers returns kind's markers sorted by name, or nil if unregistered.
func (r *Registry) Markers(kind string) []Marker {
	if r == nil {
		return nil
	}
	set, ok := r.kinds[kind]
	if !ok {
		return nil
	}
	out := make([]Marker, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// Kinds returns every registered kind, sorted.
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
