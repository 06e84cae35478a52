// Package transforms holds the rewrite patterns and named passes built on
// the rewrite driver.
//
// Patterns consult only the trait and interpreter registries of a
// dialect.Context; none of them names a concrete operation kind. A Pass
// bundles an ordered pattern list with driver options and is looked up by
// name:
//
//	constant-fold-interp  fold Pure ops over ConstantLike operands, drop dead ops
//	dce                   erase Pure, non-terminator ops with unused results
//	canonicalize          constant operands to the right of Commutative ops,
//	                      then folding and dead-op removal in one run
package transforms
