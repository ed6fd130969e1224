package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/torqline/shoptalk/agent/contract"
	promptx "github.com/torqline/shoptalk/agent/prompt"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func newTestCompleter(t *testing.T, decision, synthesis *fakeToolCallingModel) *Completer {
	t.Helper()
	completer, err := newCompleter(
		context.Background(),
		decision,
		synthesis,
		promptx.PromptSet{Decision: "decision prompt", Synthesis: "synthesis prompt"},
		5*time.Second,
	)
	if err != nil {
		t.Fatalf("newCompleter() error = %v", err)
	}
	return completer
}

func TestCompleteDecisionDirectAnswer(t *testing.T) {
	t.Parallel()

	decision := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"answer":"Squealing brakes usually mean worn pads."}`},
		},
	}
	completer := newTestCompleter(t, decision, &fakeToolCallingModel{})

	out, err := completer.Complete(context.Background(), contractx.CompletionRequest{
		UserText: "my brakes squeal",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out.WantsTool() {
		t.Fatalf("direct answer should not request the tool: %+v", out)
	}
	if out.Answer != "Squealing brakes usually mean worn pads." {
		t.Fatalf("unexpected answer: %q", out.Answer)
	}
}

func TestCompleteDecisionToolQueryWins(t *testing.T) {
	t.Parallel()

	decision := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"answer":"let me check","tool_query":"brake pad price 2019 civic"}`},
		},
	}
	completer := newTestCompleter(t, decision, &fakeToolCallingModel{})

	out, err := completer.Complete(context.Background(), contractx.CompletionRequest{
		UserText: "how much are brake pads?",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !out.WantsTool() {
		t.Fatalf("expected tool request, got %+v", out)
	}
	if out.ToolQuery != "brake pad price 2019 civic" {
		t.Fatalf("unexpected tool query: %q", out.ToolQuery)
	}
	if out.Answer != "" {
		t.Fatalf("stray answer should be dropped on a tool turn: %q", out.Answer)
	}
}

func TestCompleteDecisionSchemaFailure(t *testing.T) {
	t.Parallel()

	decision := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{}`},
		},
	}
	completer := newTestCompleter(t, decision, &fakeToolCallingModel{})

	_, err := completer.Complete(context.Background(), contractx.CompletionRequest{
		UserText: "my brakes squeal",
	})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
	if !errors.Is(err, contractx.ErrAgentUnavailable) {
		t.Fatalf("expected ErrAgentUnavailable, got %v", err)
	}
}

func TestCompleteDecisionModelFailure(t *testing.T) {
	t.Parallel()

	decision := &fakeToolCallingModel{err: errors.New("upstream 503")}
	completer := newTestCompleter(t, decision, &fakeToolCallingModel{})

	_, err := completer.Complete(context.Background(), contractx.CompletionRequest{
		UserText: "my brakes squeal",
	})
	if !errors.Is(err, contractx.ErrAgentUnavailable) {
		t.Fatalf("expected ErrAgentUnavailable, got %v", err)
	}
}

func TestCompleteSynthesisUsesToolResult(t *testing.T) {
	t.Parallel()

	synthesis := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"reply":"Pads for your Civic run about $150-200."}`},
		},
	}
	completer := newTestCompleter(t, &fakeToolCallingModel{}, synthesis)

	out, err := completer.Complete(context.Background(), contractx.CompletionRequest{
		UserText: "how much are brake pads?",
		Tool: &contractx.ToolResult{
			Query:   "brake pad price 2019 civic",
			Payload: "Civic brake pad replacement $150-200",
			Source:  contractx.ToolSourceLive,
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out.Answer != "Pads for your Civic run about $150-200." {
		t.Fatalf("unexpected reply: %q", out.Answer)
	}
	if out.WantsTool() {
		t.Fatalf("synthesis must not request another tool call: %+v", out)
	}
}

func TestCompleteSynthesisEmptyReply(t *testing.T) {
	t.Parallel()

	synthesis := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"reply":"   "}`},
		},
	}
	completer := newTestCompleter(t, &fakeToolCallingModel{}, synthesis)

	_, err := completer.Complete(context.Background(), contractx.CompletionRequest{
		UserText: "how much are brake pads?",
		Tool:     &contractx.ToolResult{Source: contractx.ToolSourceFallback},
	})
	if !errors.Is(err, contractx.ErrAgentUnavailable) {
		t.Fatalf("expected ErrAgentUnavailable, got %v", err)
	}
}

func TestCompleteRejectsEmptyUserText(t *testing.T) {
	t.Parallel()

	completer := newTestCompleter(t, &fakeToolCallingModel{}, &fakeToolCallingModel{})

	_, err := completer.Complete(context.Background(), contractx.CompletionRequest{UserText: "   "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
