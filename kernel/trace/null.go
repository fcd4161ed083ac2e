package trace

import "context"

// NullEmitter discards every event and costs nothing beyond an
// interface call. It is the fallback NewLogDiagnosticSink uses for a
// nil Emitter; a Kernel built without WithEmitter installs no emitter
// at all.
type NullEmitter struct{}

// NewNullEmitter returns a NullEmitter.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

func (NullEmitter) Emit(Event) {}

func (NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

func (NullEmitter) Flush(context.Context) error { return nil }
