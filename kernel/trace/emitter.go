package trace

import "context"

// Emitter is a pluggable observability backend for the kernel's
// Inspector Hook. Implementations must not block the drain loop for
// long and must never panic — a broken emitter should drop events
// rather than take the kernel down with it.
type Emitter interface {
	// Emit records one node activation. Called synchronously from the
	// default inspector installed by New; keep it cheap.
	Emit(event Event)

	// EmitBatch is a bulk variant for backends that benefit from
	// batching (SQL inserts, network exporters). Order matches
	// emission order.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events have been handed to the
	// backend, or ctx expires.
	Flush(ctx context.Context) error
}
