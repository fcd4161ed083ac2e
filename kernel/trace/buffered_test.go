package trace

import "testing"

func TestBufferedEmitter_IsolatesByRunID(t *testing.T) {
	b := NewBufferedEmitter()
	b.Emit(Event{RunID: "r1", Msg: "a"})
	b.Emit(Event{RunID: "r2", Msg: "b"})
	b.Emit(Event{RunID: "r1", Msg: "c"})

	if got := b.GetHistory("r1"); len(got) != 2 {
		t.Fatalf("expected 2 events for r1, got %d", len(got))
	}
	if got := b.GetHistory("r2"); len(got) != 1 {
		t.Fatalf("expected 1 event for r2, got %d", len(got))
	}
	if got := b.GetHistory("unknown"); len(got) != 0 {
		t.Fatalf("expected empty slice for unknown run, got %v", got)
	}
}

func TestBufferedEmitter_FilterByNodeAndStep(t *testing.T) {
	b := NewBufferedEmitter()
	b.Emit(Event{RunID: "r1", NodeID: "n1", Step: 1, Msg: "start"})
	b.Emit(Event{RunID: "r1", NodeID: "n2", Step: 1, Msg: "start"})
	b.Emit(Event{RunID: "r1", NodeID: "n1", Step: 2, Msg: "start"})

	min, max := 1, 1
	got := b.GetHistoryWithFilter("r1", HistoryFilter{NodeID: "n1", MinStep: &min, MaxStep: &max})
	if len(got) != 1 || got[0].Step != 1 {
		t.Fatalf("unexpected filtered history: %+v", got)
	}
}

func TestBufferedEmitter_Clear(t *testing.T) {
	b := NewBufferedEmitter()
	b.Emit(Event{RunID: "r1", Msg: "a"})
	b.Emit(Event{RunID: "r2", Msg: "b"})

	b.Clear("r1")
	if len(b.GetHistory("r1")) != 0 {
		t.Fatal("expected r1 cleared")
	}
	if len(b.GetHistory("r2")) != 1 {
		t.Fatal("expected r2 untouched")
	}

	b.Clear("")
	if len(b.GetHistory("r2")) != 0 {
		t.Fatal("expected all events cleared")
	}
}

func TestBufferedEmitter_InterfaceContract(t *testing.T) {
	var _ Emitter = NewBufferedEmitter()
}
