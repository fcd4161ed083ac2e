package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes one line per Event to an io.Writer, either as
// key=value text or as JSON Lines. No third-party logging library is
// used here; io.Writer + encoding/json is the teacher's own idiom for
// this concern.
type LogEmitter struct {
	w    io.Writer
	json bool
}

// NewLogEmitter returns a LogEmitter writing to w (os.Stdout if nil).
// jsonMode selects JSONL output over the default text format.
func NewLogEmitter(w io.Writer, jsonMode bool) *LogEmitter {
	if w == nil {
		w = os.Stdout
	}
	return &LogEmitter{w: w, json: jsonMode}
}

func (l *LogEmitter) Emit(e Event) {
	if l.json {
		l.emitJSON(e)
		return
	}
	l.emitText(e)
}

func (l *LogEmitter) emitJSON(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(l.w, `{"error":"marshal event: %v"}`+"\n", err)
		return
	}
	l.w.Write(append(data, '\n'))
}

func (l *LogEmitter) emitText(e Event) {
	fmt.Fprintf(l.w, "[%s] run=%s step=%d node=%s priority=%s", e.Msg, e.RunID, e.Step, e.NodeID, e.Priority)
	if len(e.Meta) > 0 {
		if metaJSON, err := json.Marshal(e.Meta); err == nil {
			fmt.Fprintf(l.w, " meta=%s", metaJSON)
		}
	}
	fmt.Fprint(l.w, "\n")
}

// EmitBatch writes every event in order; it never returns early on a
// single bad event (marshal failures degrade to an inline error line).
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		l.Emit(e)
	}
	return nil
}

// Flush is a no-op: LogEmitter never buffers past a single Write call.
func (l *LogEmitter) Flush(context.Context) error { return nil }
