package emit

import "context"

// Emitter receives and processes observability events from stepper runs.
//
// Emitters enable pluggable observability backends:
// - Logging: stdout, files, syslog.
// - Distributed tracing: OpenTelemetry, Jaeger, Zipkin.
// - In-memory capture for tests and dashboards.
//
// Implementations should be:
// - Non-blocking: avoid slowing down step execution.
// - Thread-safe: a stepper in parallel-invoke mode may emit concurrently.
// - Resilient: handle backend failures without crashing the run.
type Emitter interface {
	// Emit sends a single observability event to the backend.
	//
	// Emit must not panic, and should not block the stepper. Errors are
	// handled internally (logged or dropped).
	Emit(event Event)

	// EmitBatch sends multiple events in one operation, preserving order.
	//
	// Batching amortizes backend round-trips for high-volume runs.
	// Individual event failures should be logged, not returned; the error
	// return is reserved for catastrophic failures.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush ensures buffered events have reached the backend.
	//
	// Call before shutdown or after a run completes. Must be safe to call
	// repeatedly. Implementations without internal buffering return nil.
	Flush(ctx context.Context) error
}
