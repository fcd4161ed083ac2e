package trace

import (
	"context"
	"testing"
)

func TestNullEmitter_DiscardsEvents(t *testing.T) {
	e := NewNullEmitter()
	e.Emit(Event{RunID: "r1", NodeID: "n1"})
	if err := e.EmitBatch(context.Background(), []Event{{NodeID: "n2"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNullEmitter_InterfaceContract(t *testing.T) {
	var _ Emitter = NewNullEmitter()
}
