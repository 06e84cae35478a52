// Package catalog compiles declarative trait catalogs written in CUE into
// dialect definitions.
//
// A catalog declares operation kinds and their trait markers:
//
//	dialect: shape: {
//		ops: {
//			reshape: traits: ["Pure"]
//			yield:   traits: ["IsTerminator"]
//		}
//	}
//
// Catalog dialects carry no interpreter functions; their operations take
// part in trait-driven rewrites such as dead-code elimination but are
// never folded.
package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/traits"
)

var markerPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// CompileAll compiles every dialect under the top-level "dialect" field of v,
// in declaration order.
func CompileAll(v cue.Value) ([]*dialect.Dialect, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	dv := v.LookupPath(cue.ParsePath("dialect"))
	if !dv.Exists() {
		return nil, &CompileError{
			Field:   "dialect",
			Message: "no dialects declared",
			Pos:     v.Pos(),
		}
	}
	iter, err := dv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []*dialect.Dialect
	for iter.Next() {
		d, err := Compile(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Compile parses one dialect struct. The dialect name is the struct's label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`dialect: shape: ops: reshape: traits: ["Pure"]`)
//	d, err := Compile(v.LookupPath(cue.ParsePath("dialect.shape")))
func Compile(v cue.Value) (*dialect.Dialect, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	d := &dialect.Dialect{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		d.Name = labels[len(labels)-1].String()
	}
	if d.Name == "" || strings.Contains(d.Name, ".") {
		return nil, &CompileError{
			Field:   "dialect",
			Message: fmt.Sprintf("invalid dialect name %q", d.Name),
			Pos:     v.Pos(),
		}
	}

	opsVal := v.LookupPath(cue.ParsePath("ops"))
	if !opsVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("dialect.%s.ops", d.Name),
			Message: "ops are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := opsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		op, err := compileOp(d.Name, iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		d.Ops = append(d.Ops, op)
	}
	if len(d.Ops) == 0 {
		return nil, &CompileError{
			Field:   fmt.Sprintf("dialect.%s.ops", d.Name),
			Message: "at least one op is required",
			Pos:     opsVal.Pos(),
		}
	}
	return d, nil
}

func compileOp(dialectName, label string, v cue.Value) (dialect.OpDef, error) {
	field := fmt.Sprintf("dialect.%s.ops.%s", dialectName, label)
	def := dialect.OpDef{Name: dialectName + "." + label}
	if strings.Contains(label, ".") {
		return def, &CompileError{Field: field, Message: "op name must not contain '.'", Pos: v.Pos()}
	}

	fields, err := v.Fields()
	if err != nil {
		return def, formatCUEError(err)
	}
	for fields.Next() {
		if fields.Label() != "traits" {
			return def, &CompileError{
				Field:   field + "." + fields.Label(),
				Message: "unknown field",
				Pos:     fields.Value().Pos(),
			}
		}
	}

	traitsVal := v.LookupPath(cue.ParsePath("traits"))
	if !traitsVal.Exists() {
		return def, nil
	}
	list, err := traitsVal.List()
	if err != nil {
		return def, &CompileError{Field: field + ".traits", Message: "traits must be a list of strings", Pos: traitsVal.Pos()}
	}
	seen := make(map[string]bool)
	for list.Next() {
		s, err := list.Value().String()
		if err != nil {
			return def, &CompileError{Field: field + ".traits", Message: "trait must be a string", Pos: list.Value().Pos()}
		}
		if !markerPattern.MatchString(s) {
			return def, &CompileError{Field: field + ".traits", Message: fmt.Sprintf("invalid trait %q", s), Pos: list.Value().Pos()}
		}
		if seen[s] {
			return def, &CompileError{Field: field + ".traits", Message: fmt.Sprintf("trait %q listed twice", s), Pos: list.Value().Pos()}
		}
		seen[s] = true
		def.Traits = append(def.Traits, traits.Marker(s))
	}
	return def, nil
}

// CompileError is a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
