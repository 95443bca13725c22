// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package consensus

import "fmt"

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrUnknownParent indicates that a block's parent or one of its
	// referenced blocks is not yet known. The block is buffered in the
	// pending pool and the error never crosses the ingestion boundary.
	ErrUnknownParent ErrorCode = iota

	// ErrDuplicateBlock indicates a block with the same hash has already
	// been processed, either into the DAG or into the pending pool.
	ErrDuplicateBlock

	// ErrMalformedDagState indicates an internal consistency invariant of
	// the DAG was violated, such as a weight aggregate that disagrees
	// with its children or a pivot entry outside the chain. This is fatal:
	// it means a bug or storage corruption, and consensus processing must
	// halt rather than continue from inconsistent state.
	ErrMalformedDagState

	// ErrReorgInProgress indicates a query arrived while a pivot chain
	// reorganization is being delivered. The state it asks about is in
	// flux. Callers should retry after a bounded delay.
	ErrReorgInProgress

	// ErrNotInDAG indicates the requested block is not in the DAG.
	ErrNotInDAG
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrUnknownParent:     "ErrUnknownParent",
	ErrDuplicateBlock:    "ErrDuplicateBlock",
	ErrMalformedDagState: "ErrMalformedDagState",
	ErrReorgInProgress:   "ErrReorgInProgress",
	ErrNotInDAG:          "ErrNotInDAG",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block failed due to one of the consensus rules or that a
// query cannot be answered in the current DAG state. The caller can use type
// assertions against the ErrorCode field to distinguish recoverable
// conditions from fatal ones.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
