// Package interp gives operations executable semantics through a registry
// of evaluation functions keyed by operation kind.
//
// Operation definitions know nothing about evaluation: a dialect installs a
// Functions table into a Registry, and an Interpreter runs single operations
// over abstract values. Looking up a kind nobody installed yields an
// *UnimplementedError rather than a panic, so callers such as the constant
// folder can treat it as an ordinary "cannot evaluate" outcome.
package interp
