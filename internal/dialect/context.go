package dialect

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/irx/internal/interp"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/traits"
)

// Context owns the registries that loaded dialects populate.
type Context struct {
	// Traits holds the marker sets of every loaded op kind.
	Traits *traits.Registry

	// Interp holds the evaluation functions of every loaded op kind.
	Interp *interp.Registry

	// AllowUnregistered permits operations whose kind no dialect declares.
	// Such operations have no traits and cannot be interpreted.
	AllowUnregistered bool

	dialects      map[string]*Dialect
	order         []string
	materializers []ConstantMaterializer
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithAllowUnregistered lets the verifier accept unknown operation kinds.
func WithAllowUnregistered() ContextOption {
	return func(c *Context) {
		c.AllowUnregistered = true
	}
}

// NewContext creates a context with empty registries.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		Traits:   traits.NewRegistry(),
		Interp:   interp.NewRegistry(),
		dialects: make(map[string]*Dialect),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load registers d's op kinds, traits, functions and materializer.
// Loading the same dialect name twice is an error.
func (c *Context) Load(d *Dialect) error {
	if err := d.validate(); err != nil {
		return fmt.Errorf("load dialect: %w", err)
	}
	if _, exists := c.dialects[d.Name]; exists {
		return fmt.Errorf("load dialect %q: already loaded", d.Name)
	}
	for _, op := range d.Ops {
		if c.Traits.Registered(op.Name) {
			return fmt.Errorf("load dialect %q: op %q already registered", d.Name, op.Name)
		}
	}

	for _, op := range d.Ops {
		if err := c.Traits.Register(op.Name, op.Traits...); err != nil {
			return fmt.Errorf("load dialect %q: %w", d.Name, err)
		}
	}
	if len(d.Functions) > 0 {
		if err := c.Interp.Install(d.Functions); err != nil {
			return fmt.Errorf("load dialect %q: %w", d.Name, err)
		}
	}
	if d.Materialize != nil {
		c.materializers = append(c.materializers, d.Materialize)
	}
	c.dialects[d.Name] = d
	c.order = append(c.order, d.Name)

	slog.Debug("dialect loaded",
		"dialect", d.Name,
		"ops", len(d.Ops),
		"functions", len(d.Functions),
	)
	return nil
}

// MustLoad loads each dialect and panics on error.
// Use only for built-in dialects known to be valid.
func (c *Context) MustLoad(ds ...*Dialect) *Context {
	for _, d := range ds {
		if err := c.Load(d); err != nil {
			panic(err)
		}
	}
	return c
}

// Loaded returns loaded dialect names in load order.
func (c *Context) Loaded() []string {
	return slices.Clone(c.order)
}

// Dialect returns a loaded dialect by name.
func (c *Context) Dialect(name string) (*Dialect, bool) {
	d, ok := c.dialects[name]
	return d, ok
}

// IsRegistered reports whether a loaded dialect declares kind.
func (c *Context) IsRegistered(kind string) bool {
	return c.Traits.Registered(kind)
}

// Interpreter returns an interpreter over the loaded functions.
func (c *Context) Interpreter() *interp.Interpreter {
	return interp.New(c.Interp)
}

// MaterializeConstant asks each loaded dialect, in load order, to build a
// constant for value of type t. Returns false if none has a rule.
func (c *Context) MaterializeConstant(value interp.Value, t ir.Type) (*ir.Operation, bool) {
	for _, m := range c.materializers {
		if op, ok := m(value, t); ok && op != nil {
			return op, true
		}
	}
	return nil, false
}
