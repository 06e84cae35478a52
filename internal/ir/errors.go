package ir

import (
	"errors"
	"fmt"
)

// Error is returned by construction and mutation functions when a change
// would break a graph invariant. These are programming errors in the caller
// (typically a rewrite pattern); the graph is left unchanged when one is
// returned.
type Error struct {
	// Code identifies the violated invariant.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Op is the operation the call was made on, if any.
	Op *Operation

	// Details carries extra context such as use counts.
	Details map[string]string
}

// ErrorCode categorizes graph errors.
type ErrorCode string

const (
	// ErrCodeHasRemainingUses indicates an erase of a value that is still read.
	ErrCodeHasRemainingUses ErrorCode = "HAS_REMAINING_USES"

	// ErrCodeDetachedOperand indicates an operand that is erased or not
	// visible at the insertion point.
	ErrCodeDetachedOperand ErrorCode = "DETACHED_OPERAND"

	// ErrCodeTypeMismatch indicates a replacement value of a different type
	// where the caller required equal types.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeInvalidOperation indicates a malformed call: nil arguments,
	// out-of-range slots, already attached or erased operations, or an
	// ownership cycle.
	ErrCodeInvalidOperation ErrorCode = "INVALID_OPERATION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != nil {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op.Name())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, op *Operation, msg string) *Error {
	return &Error{Code: code, Message: msg, Op: op}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsHasRemainingUses reports whether err is an erase refused because of live uses.
func IsHasRemainingUses(err error) bool { return hasCode(err, ErrCodeHasRemainingUses) }

// IsDetachedOperand reports whether err is an erased or invisible operand.
func IsDetachedOperand(err error) bool { return hasCode(err, ErrCodeDetachedOperand) }

// IsTypeMismatch reports whether err is a replacement type mismatch.
func IsTypeMismatch(err error) bool { return hasCode(err, ErrCodeTypeMismatch) }

// IsInvalidOperation reports whether err is a malformed mutation call.
func IsInvalidOperation(err error) bool { return hasCode(err, ErrCodeInvalidOperation) }
