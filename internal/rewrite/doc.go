// Package rewrite implements the pattern-driven fixpoint rewrite driver.
//
// ARCHITECTURE:
//
// Worklist Loop:
// Driver.Apply seeds a LIFO worklist with every operation nested under the
// root so that they pop in post-order (producers before their consumers).
// Each popped operation is offered to the patterns in registration order;
// the first one that reports a rewrite wins and the rest are skipped for
// that visit. After a rewrite the driver re-enqueues exactly the operations
// the rewrite touched:
//   - the operation itself, if it survived
//   - operations the pattern inserted (and everything nested in them)
//   - operations whose operands the pattern changed
//   - producers and remaining users of the rewritten operation's former operands
//
// The loop ends when the worklist drains (fixpoint) or the rewrite quota is
// exhausted, which yields *NonConvergenceError instead of looping forever.
//
// Mutation:
// Patterns change the graph only through the *Rewriter they are handed. It
// forwards to the ir mutation functions and records what changed so the
// driver can schedule follow-up work. A pattern that mutates the graph must
// report a rewrite; reporting "no match" after a mutation is an error.
//
// Dead code:
// With WithDeadCodeElimination, a popped operation that is Pure, not a
// terminator and has no used results is erased before any pattern runs.
//
// Determinism:
// Given the same starting graph and the same pattern order, two runs apply
// the same rewrites in the same order. Events carry a logical sequence
// number, never wall-clock time.
package rewrite
