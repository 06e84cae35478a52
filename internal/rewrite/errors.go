package rewrite

import (
	"errors"
	"fmt"
)

// NonConvergenceError is returned when Apply exhausts its rewrite quota
// before reaching a fixpoint. The graph is left valid but only partially
// rewritten; the driver does not retry.
type NonConvergenceError struct {
	RunID    string // Apply run that gave up
	Rewrites int    // changes attempted, including the one over the limit
	Limit    int    // configured maximum
}

// Error implements the error interface.
func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("run %s did not converge: %d rewrites > %d limit",
		e.RunID, e.Rewrites, e.Limit)
}

// IsNonConvergence reports whether err is a *NonConvergenceError.
// Uses errors.As to handle wrapped errors.
func IsNonConvergence(err error) bool {
	var ne *NonConvergenceError
	return errors.As(err, &ne)
}

// PatternError wraps an error returned by a pattern, or a contract breach
// such as mutating the graph without reporting a rewrite. It aborts Apply.
type PatternError struct {
	Pattern string
	OpName  string
	Err     error
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %s on %s: %v", e.Pattern, e.OpName, e.Err)
}

// Unwrap returns the underlying error.
func (e *PatternError) Unwrap() error { return e.Err }

// IsPatternError reports whether err is a *PatternError.
func IsPatternError(err error) bool {
	var pe *PatternError
	return errors.As(err, &pe)
}

// errSilentMutation marks a pattern that changed the graph but returned false.
var errSilentMutation = errors.New("graph mutated without reporting a rewrite")
