// Package ir is the in-memory program representation shared by every other
// irx package.
//
// The graph is a strict ownership tree: a Region owns Blocks, a Block owns
// Operations and BlockArguments, an Operation owns its result Values and
// nested Regions. Operand references are the only edges that cross the tree;
// each one is mirrored by a Use on the referenced Value.
//
// Construction goes through Create, NewBlock and NewRegion. Once attached,
// operations are changed only through the mutation functions in mutate.go
// (ReplaceOperand, ReplaceAllUsesWith, InsertBefore, InsertAfter, Append,
// Erase, ReplaceOp), which keep operand and use edges consistent and refuse
// changes that would leave a dangling reference.
//
// Key constraints:
//   - ir imports nothing internal; all other internal packages import ir
//   - the graph is not safe for concurrent use
//   - attributes are immutable and compared structurally via canonical JSON
//   - no floats anywhere; integer payloads are int64
package ir
