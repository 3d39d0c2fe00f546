package hyperway

import (
	"errors"
	"fmt"
)

// ErrWireContract indicates that a wire returned a value that is not a
// *Pack. Wires are Pack-to-Pack transforms; anything else is a
// programming error in the wire, surfaced immediately and aborting the
// current step. Use errors.Is to detect it; errors.As(*WireError) names
// the offending edge and value.
var ErrWireContract = errors.New("wire returned a non-Pack value")

// EngineError is a structured error for construction and validation
// faults: bad vertex arguments, misconfigured units, store failures.
//
// Callable failures are NOT wrapped in EngineError; they propagate to the
// caller of Step unchanged.
type EngineError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable code for programmatic handling, e.g.
	// NOT_CALLABLE, NO_CALLABLE, STORE_ERROR.
	Code string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// WireError carries the context of a wire contract violation: which edge
// misbehaved and what it returned. It unwraps to ErrWireContract.
type WireError struct {
	// EdgeID identifies the edge whose wire violated the contract.
	EdgeID string

	// EdgeName is the user-facing edge name, if one was set.
	EdgeName string

	// Value is the offending return value.
	Value any
}

// Error implements the error interface.
func (e *WireError) Error() string {
	name := e.EdgeName
	if name == "" {
		name = e.EdgeID
	}
	return fmt.Sprintf("edge %s: wire returned %T, want *Pack", name, e.Value)
}

// Unwrap returns ErrWireContract so errors.Is works across the wrapper.
func (e *WireError) Unwrap() error { return ErrWireContract }
