package trace

import (
	"context"
	"testing"
)

type recordingEmitter struct{ events []Event }

func (r *recordingEmitter) Emit(e Event) { r.events = append(r.events, e) }
func (r *recordingEmitter) EmitBatch(_ context.Context, events []Event) error {
	r.events = append(r.events, events...)
	return nil
}
func (r *recordingEmitter) Flush(_ context.Context) error { return nil }

func TestEmitter_InterfaceContract(t *testing.T) {
	var _ Emitter = (*recordingEmitter)(nil)
}

func TestEmitter_Emit(t *testing.T) {
	e := &recordingEmitter{}
	e.Emit(Event{RunID: "r1", NodeID: "n1", Msg: "activated"})
	if len(e.events) != 1 || e.events[0].NodeID != "n1" {
		t.Fatalf("unexpected events: %+v", e.events)
	}
}

func TestEmitter_EmitBatch(t *testing.T) {
	e := &recordingEmitter{}
	if err := e.EmitBatch(context.Background(), []Event{{NodeID: "a"}, {NodeID: "b"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(e.events))
	}
}
