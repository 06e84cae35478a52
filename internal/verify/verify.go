// Package verify checks the structural invariants of an operation tree.
//
// Verify is read-only and reports every violation it finds instead of
// stopping at the first one.
package verify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/traits"
)

// Violation codes (V200-V299)
const (
	// Ownership (V200-V209)
	ErrParentMismatch = "V200" // child does not point back at its container
	ErrErasedInTree   = "V201" // erased operation still linked into a block
	ErrBrokenOpList   = "V202" // prev/next links or block length disagree

	// Use-lists (V210-V219)
	ErrMissingUse  = "V210" // operand slot has no matching Use entry
	ErrStaleUse    = "V211" // Use entry points at a slot that reads something else
	ErrNilOperand  = "V212" // operand slot holds no value
	ErrErasedValue = "V213" // operand reads a result of an erased operation

	// Visibility (V220-V229)
	ErrNotVisible     = "V220" // operand defined outside the reader's scope
	ErrForeignSuccess = "V221" // successor block is not in the same region

	// Terminators (V230-V239)
	ErrTerminatorNotLast = "V230" // IsTerminator op followed by another op
	ErrMissingTerminator = "V231" // block lacks a terminator and parent lacks NoTerminator

	// Registration (V240-V249)
	ErrUnregistered = "V240" // operation kind is in no loaded dialect
)

// Violation is one broken invariant.
type Violation struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Path    string        `json:"path"` // region.block.op indices from the root, "" for the root
	Op      *ir.Operation `json:"-"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	name := "<nil>"
	if v.Op != nil {
		name = v.Op.Name()
	}
	if v.Path == "" {
		return fmt.Sprintf("[%s] %s: %s", v.Code, name, v.Message)
	}
	return fmt.Sprintf("[%s] %s at %s: %s", v.Code, name, v.Path, v.Message)
}

// Option configures Verify.
type Option func(*config)

type config struct {
	allowUnregistered bool
}

// AllowUnregistered sets whether operation kinds missing from the registry
// are accepted. The default is true.
func AllowUnregistered(allow bool) Option {
	return func(c *config) {
		c.allowUnregistered = allow
	}
}

// Verify checks root and everything nested in it against reg.
// Returns nil when the tree is well formed.
func Verify(root *ir.Operation, reg *traits.Registry, opts ...Option) []Violation {
	cfg := config{allowUnregistered: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if root == nil {
		return []Violation{{Code: ErrParentMismatch, Message: "root operation is nil"}}
	}
	v := &verifier{reg: reg, cfg: cfg}
	v.op(root, "")
	return v.out
}

type verifier struct {
	reg *traits.Registry
	cfg config
	out []Violation
}

func (v *verifier) report(op *ir.Operation, path, code, format string, args ...any) {
	v.out = append(v.out, Violation{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
		Op:      op,
	})
}

func (v *verifier) op(op *ir.Operation, path string) {
	if op.Erased() {
		v.report(op, path, ErrErasedInTree, "operation is erased")
		return
	}
	if !v.cfg.allowUnregistered && !v.reg.Registered(op.Name()) {
		v.report(op, path, ErrUnregistered, "kind %q is not registered", op.Name())
	}
	v.operands(op, path)
	v.results(op, path)
	v.successors(op, path)

	for ri, r := range op.Regions() {
		if r.Parent() != op {
			v.report(op, path, ErrParentMismatch, "region %d has a different parent", ri)
		}
		for bi, b := range r.Blocks() {
			bpath := join(path, ri, bi)
			if b.Parent() != r {
				v.report(op, path, ErrParentMismatch, "block %d of region %d has a different parent", bi, ri)
			}
			v.block(op, b, bpath)
		}
	}
}

func (v *verifier) block(parent *ir.Operation, b *ir.Block, path string) {
	for _, a := range b.Arguments() {
		v.uses(parent, path, a, fmt.Sprintf("block argument %d", a.Index()))
	}

	var prev *ir.Operation
	n := 0
	for inner := range b.Ops() {
		ipath := path + "." + strconv.Itoa(n)
		if inner.Parent() != b {
			v.report(inner, ipath, ErrParentMismatch, "operation does not point back at its block")
		}
		if inner.Prev() != prev {
			v.report(inner, ipath, ErrBrokenOpList, "previous link is inconsistent")
		}
		if inner != b.Last() && v.reg.Has(inner, traits.IsTerminator) {
			v.report(inner, ipath, ErrTerminatorNotLast, "terminator is not the last operation in its block")
		}
		v.op(inner, ipath)
		prev = inner
		n++
	}
	if n != b.Len() {
		v.report(parent, path, ErrBrokenOpList, "block holds %d operations but records %d", n, b.Len())
	}

	// Unregistered parents carry no traits and are given the benefit of the doubt.
	if !v.reg.Registered(parent.Name()) || v.reg.Has(parent, traits.NoTerminator) {
		return
	}
	if last := b.Last(); last == nil || !v.reg.Has(last, traits.IsTerminator) {
		v.report(parent, path, ErrMissingTerminator, "block does not end with a terminator")
	}
}

func (v *verifier) operands(op *ir.Operation, path string) {
	for i, val := range op.Operands() {
		if val == nil {
			v.report(op, path, ErrNilOperand, "operand %d is nil", i)
			continue
		}
		if def := ir.DefiningOp(val); def != nil && def.Erased() {
			v.report(op, path, ErrErasedValue, "operand %d reads a result of erased %s", i, def.Name())
			continue
		}
		matches := 0
		for _, u := range val.Uses() {
			if u.Op == op && u.Index == i {
				matches++
			}
		}
		if matches != 1 {
			v.report(op, path, ErrMissingUse, "operand %d has %d matching uses, want 1", i, matches)
		}
		if op.Parent() != nil && !ir.IsVisible(val, op.Parent()) {
			v.report(op, path, ErrNotVisible, "operand %d is not visible in this block", i)
		}
	}
}

func (v *verifier) results(op *ir.Operation, path string) {
	for _, r := range op.Results() {
		v.uses(op, path, r, fmt.Sprintf("result %d", r.Index()))
	}
}

// uses checks that every recorded Use of val is mirrored by an operand slot.
func (v *verifier) uses(owner *ir.Operation, path string, val ir.Value, what string) {
	for _, u := range val.Uses() {
		switch {
		case u.Op == nil || u.Op.Erased():
			v.report(owner, path, ErrStaleUse, "%s has a use by an erased operation", what)
		case u.Index < 0 || u.Index >= u.Op.NumOperands() || u.Op.Operand(u.Index) != val:
			v.report(owner, path, ErrStaleUse, "%s has a use by %s slot %d that reads another value", what, u.Op.Name(), u.Index)
		}
	}
}

func (v *verifier) successors(op *ir.Operation, path string) {
	for i, s := range op.Successors() {
		if s == nil || op.Parent() == nil || s.Parent() != op.ParentRegion() {
			v.report(op, path, ErrForeignSuccess, "successor %d is not a block of the enclosing region", i)
		}
	}
}

func join(path string, region, block int) string {
	parts := []string{strconv.Itoa(region), strconv.Itoa(block)}
	if path != "" {
		parts = append([]string{path}, parts...)
	}
	return strings.Join(parts, ".")
}
