package ir

// Order selects when Walk visits an operation relative to its nested ones.
type Order int

const (
	// PreOrder visits an operation before anything nested in it.
	PreOrder Order = iota
	// PostOrder visits an operation after everything nested in it.
	PostOrder
)

// Walk calls fn for root and every operation nested in its regions, in
// region, block and operation order. fn must not erase operations that have
// not been visited yet; collect first with Collect when mutating.
func Walk(root *Operation, order Order, fn func(*Operation)) {
	if root == nil {
		return
	}
	if order == PreOrder {
		fn(root)
	}
	for _, r := range root.regions {
		for _, b := range r.blocks {
			for op := range b.Ops() {
				Walk(op, order, fn)
			}
		}
	}
	if order == PostOrder {
		fn(root)
	}
}

// Collect returns root and every operation nested in it in the given order.
func Collect(root *Operation, order Order) []*Operation {
	var ops []*Operation
	Walk(root, order, func(op *Operation) {
		ops = append(ops, op)
	})
	return ops
}
