package rewrite

import "github.com/roach88/irx/internal/ir"

// worklist is a LIFO stack of operations awaiting a visit.
//
// Pushing an operation that is already waiting is a no-op, so an operation
// is visited at most once per time it is scheduled. Erased operations are
// dropped when popped rather than searched for on erase.
//
// Not safe for concurrent use; the driver loop is its only caller.
type worklist struct {
	ops     []*ir.Operation
	pending map[*ir.Operation]struct{}
}

func newWorklist() *worklist {
	return &worklist{
		ops:     make([]*ir.Operation, 0, 64),
		pending: make(map[*ir.Operation]struct{}),
	}
}

// push schedules op. Returns false if op was already waiting or is erased.
func (w *worklist) push(op *ir.Operation) bool {
	if op == nil || op.Erased() {
		return false
	}
	if _, ok := w.pending[op]; ok {
		return false
	}
	w.pending[op] = struct{}{}
	w.ops = append(w.ops, op)
	return true
}

// pop removes and returns the most recently pushed live operation.
// Returns (nil, false) once no live operation is left.
func (w *worklist) pop() (*ir.Operation, bool) {
	for len(w.ops) > 0 {
		last := len(w.ops) - 1
		op := w.ops[last]
		w.ops[last] = nil
		w.ops = w.ops[:last]
		delete(w.pending, op)
		if !op.Erased() {
			return op, true
		}
	}
	return nil, false
}

// len returns the number of scheduled operations, erased ones included.
func (w *worklist) len() int {
	return len(w.ops)
}
