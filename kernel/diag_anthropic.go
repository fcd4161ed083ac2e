package kernel

import (
	"context"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicMessenger is the single Anthropic SDK call AnthropicSink
// depends on. Narrowed to an interface so tests can inject a mock
// instead of hitting the live API.
type anthropicMessenger interface {
	New(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// AnthropicSink decorates another DiagnosticSink: on ReportFailure it
// fires a best-effort, non-blocking request asking the model for a
// one-paragraph likely-cause explanation, then forwards the (possibly
// enriched) Failure to the wrapped sink. API errors never promote to a
// kernel-level failure — this is strictly observability enrichment.
type AnthropicSink struct {
	client anthropicMessenger
	model  anthropic.Model
	next   DiagnosticSink
}

// NewAnthropicSink wraps next with Claude-generated failure
// explanations. An empty modelName defaults to Claude Sonnet.
func NewAnthropicSink(apiKey, modelName string, next DiagnosticSink) *AnthropicSink {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicSink{
		client: &client.Messages,
		model:  anthropic.Model(modelName),
		next:   next,
	}
}

// ReportFailure never blocks the caller: the explanation request runs
// on its own goroutine, and the wrapped sink only sees the failure
// once that request settles (or fails silently).
func (s *AnthropicSink) ReportFailure(ctx context.Context, f Failure) {
	if s.next == nil {
		return
	}
	go func() {
		s.next.ReportFailure(ctx, s.explain(ctx, f))
	}()
}

// explain asks Claude for a one-paragraph likely-cause diagnosis and
// wraps it onto f.Err; any API error is swallowed and the original
// Failure is returned unchanged. f.Value (the in-flight activation
// value at the time of failure) is never touched.
func (s *AnthropicSink) explain(ctx context.Context, f Failure) Failure {
	prompt := fmt.Sprintf(
		"A node named %q in a reactive dataflow kernel failed at step %d with error: %s. "+
			"In one paragraph, what is the likely cause?",
		f.NodeID, f.StepIndex, f.Err,
	)

	resp, err := s.client.New(ctx, anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return f
	}

	var explanation string
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			explanation += text.Text
		}
	}
	if explanation == "" {
		return f
	}

	f.Err = fmt.Errorf("%w (likely cause: %s)", f.Err, explanation)
	return f
}
