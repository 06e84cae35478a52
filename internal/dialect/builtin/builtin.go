// Package builtin provides the module container every graph is rooted at.
package builtin

import (
	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/traits"
)

// ModuleOp is the kind of the top-level container.
const ModuleOp = "builtin.module"

// Dialect returns the builtin dialect definition.
func Dialect() *dialect.Dialect {
	return &dialect.Dialect{
		Name: "builtin",
		Ops: []dialect.OpDef{
			{Name: ModuleOp, Traits: []traits.Marker{traits.NoTerminator}},
		},
	}
}

// NewModule creates a detached module with a single empty body block.
func NewModule() *ir.Operation {
	return ir.MustCreate(ir.State{
		Name:    ModuleOp,
		Regions: []*ir.Region{ir.NewRegion(ir.NewBlock())},
	})
}

// Body returns the module's body block, or nil if m is not a module.
func Body(m *ir.Operation) *ir.Block {
	if m == nil || m.Name() != ModuleOp || m.NumRegions() != 1 {
		return nil
	}
	return m.Region(0).Entry()
}
