package transforms

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/rewrite"
)

// Pass is a named transformation over everything nested under a root.
type Pass interface {
	Name() string
	Run(ctx context.Context, dctx *dialect.Context, root *ir.Operation, opts ...rewrite.Option) (rewrite.Result, error)
}

// patternPass runs one driver over a fixed pattern list.
type patternPass struct {
	name     string
	patterns func(dctx *dialect.Context) []rewrite.Pattern
	dce      bool
}

func (p *patternPass) Name() string { return p.name }

// Run applies the pass's patterns to a fixpoint. opts are applied after the
// pass's own options and may override them.
func (p *patternPass) Run(ctx context.Context, dctx *dialect.Context, root *ir.Operation, opts ...rewrite.Option) (rewrite.Result, error) {
	if dctx == nil {
		return rewrite.Result{}, fmt.Errorf("pass %s: dialect context is nil", p.name)
	}
	base := []rewrite.Option{rewrite.WithTraits(dctx.Traits)}
	if p.dce {
		base = append(base, rewrite.WithDeadCodeElimination())
	}
	driver := rewrite.New(p.patterns(dctx), append(base, opts...)...)

	slog.Debug("pass starting",
		"pass", p.name,
		"patterns", strings.Join(driver.PatternNames(), ","),
	)
	res, err := driver.Apply(ctx, root)
	if err != nil {
		return res, fmt.Errorf("pass %s: %w", p.name, err)
	}
	return res, nil
}

var passes = map[string]Pass{
	"constant-fold-interp": &patternPass{
		name: "constant-fold-interp",
		patterns: func(dctx *dialect.Context) []rewrite.Pattern {
			return []rewrite.Pattern{NewConstantFoldInterp(dctx)}
		},
		dce: true,
	},
	"dce": &patternPass{
		name: "dce",
		patterns: func(dctx *dialect.Context) []rewrite.Pattern {
			return []rewrite.Pattern{NewDeadCodeElimination(dctx)}
		},
	},
	"canonicalize": &patternPass{
		name: "canonicalize",
		patterns: func(dctx *dialect.Context) []rewrite.Pattern {
			return []rewrite.Pattern{
				NewConstantOperandsRight(dctx),
				NewConstantFoldInterp(dctx),
			}
		},
		dce: true,
	},
}

// Lookup returns the pass registered under name.
func Lookup(name string) (Pass, error) {
	p, ok := passes[name]
	if !ok {
		return nil, fmt.Errorf("unknown pass %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns the registered pass names, sorted.
func Names() []string {
	names := make([]string, 0, len(passes))
	for name := range passes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
