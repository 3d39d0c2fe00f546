// Package emit provides event emission and observability for stepper runs.
package emit

// Event is an observability record emitted while a stepper drives a
// graph. Events cover step boundaries, unit invocations, edge transfers,
// merge folds, leaf stashes and cancellation.
//
// Events flow to an Emitter which can log them, convert them to
// OpenTelemetry spans, buffer them for inspection, or drop them.
type Event struct {
	// RunID identifies the stepper run that emitted this event.
	RunID string

	// Step is the step number during which the event occurred
	// (1-indexed). For run_cancelled it is the number of steps executed
	// before the cancellation was observed (zero if none ran).
	Step int

	// UnitID identifies the unit the event concerns. Empty for step- and
	// run-level events.
	UnitID string

	// Msg names the event kind. Emitted values:
	//   step_start, step_end, unit_invoke, edge_transfer, merge_fold,
	//   leaf_stash, leaf_discard, run_cancelled
	Msg string

	// Meta carries additional structured data. Common keys:
	//   "rows"        number of rows entering or leaving a step
	//   "edge_id"     edge involved in a transfer
	//   "wire"        whether the edge carried a wire
	//   "folded"      rows folded into a merge invocation
	//   "duration_ms" step duration in milliseconds
	//   "error"       error details
	Meta map[string]interface{}
}

// Event message names emitted by the stepper.
const (
	MsgStepStart    = "step_start"
	MsgStepEnd      = "step_end"
	MsgUnitInvoke   = "unit_invoke"
	MsgEdgeTransfer = "edge_transfer"
	MsgMergeFold    = "merge_fold"
	MsgLeafStash    = "leaf_stash"
	MsgLeafDiscard  = "leaf_discard"
	MsgRunCancelled = "run_cancelled"
)
