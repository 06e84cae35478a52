package rewrite

import (
	"fmt"

	"github.com/roach88/irx/internal/ir"
)

// Pattern matches a single operation and, on a match, rewrites the graph
// through rw. It returns true only if it changed the graph. A pattern must
// not mutate anything unless it is going to report success.
type Pattern interface {
	MatchAndRewrite(op *ir.Operation, rw *Rewriter) (bool, error)
}

// Named is implemented by patterns that report a stable name for logs,
// events and journals.
type Named interface {
	PatternName() string
}

// PatternName returns p's name, falling back to its Go type.
func PatternName(p Pattern) string {
	if n, ok := p.(Named); ok {
		return n.PatternName()
	}
	return fmt.Sprintf("%T", p)
}

// NewPattern wraps fn as a named Pattern.
func NewPattern(name string, fn func(op *ir.Operation, rw *Rewriter) (bool, error)) Pattern {
	return &funcPattern{name: name, fn: fn}
}

type funcPattern struct {
	name string
	fn   func(op *ir.Operation, rw *Rewriter) (bool, error)
}

func (p *funcPattern) MatchAndRewrite(op *ir.Operation, rw *Rewriter) (bool, error) {
	return p.fn(op, rw)
}

func (p *funcPattern) PatternName() string { return p.name }
