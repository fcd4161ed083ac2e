package kernel

import (
	"context"

	"github.com/movpushmov/effector/kernel/trace"
)

// DiagnosticSink receives user-function exceptions captured by the
// step interpreter's tryRun. Reporting is always best-effort: a
// sink's own failure never propagates back to the launcher.
type DiagnosticSink interface {
	ReportFailure(ctx context.Context, f Failure)
}

// Failure describes one failed node activation: an unsafe compute step
// whose user function panicked, or a step sequence that ran past the
// WithMaxSteps ceiling.
type Failure struct {
	RunID     string
	NodeID    string
	StepIndex int
	Err       error
	Value     any
}

// LogDiagnosticSink is the stock DiagnosticSink: it turns a Failure
// into a trace.Event and forwards it to the configured Emitter. New
// does not install it; a Kernel uses it only when it is passed to
// WithDiagnosticSink.
type LogDiagnosticSink struct {
	Emitter trace.Emitter
}

// NewLogDiagnosticSink returns a LogDiagnosticSink writing through e.
// A nil e is replaced with trace.NewNullEmitter().
func NewLogDiagnosticSink(e trace.Emitter) *LogDiagnosticSink {
	if e == nil {
		e = trace.NewNullEmitter()
	}
	return &LogDiagnosticSink{Emitter: e}
}

func (s *LogDiagnosticSink) ReportFailure(_ context.Context, f Failure) {
	s.Emitter.Emit(trace.Event{
		RunID:  f.RunID,
		Step:   f.StepIndex,
		NodeID: f.NodeID,
		Msg:    "node_failure",
		Meta: map[string]any{
			"error": f.Err.Error(),
			"value": f.Value,
		},
	})
}
