package nodes

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

// Synthesize produces the final response. A direct answer from the decision
// call passes through; a tool turn makes the second completer call with the
// tool result attached, fallback or not.
func Synthesize(
	ctx context.Context,
	in *GraphState,
	completer contractx.Completer,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	text := strings.TrimSpace(in.Decision.Answer)
	source := contractx.ToolSourceNone

	if in.ToolResult != nil {
		completion, err := completer.Complete(ctx, contractx.CompletionRequest{
			Bundle:   in.Bundle,
			UserText: in.Text,
			Tool:     in.ToolResult,
		})
		if err != nil {
			return nil, err
		}
		text = strings.TrimSpace(completion.Answer)
		source = in.ToolResult.Source
	}

	if text == "" {
		return nil, fmt.Errorf("%w: synthesis produced empty text", contractx.ErrAgentUnavailable)
	}

	in.Response = contractx.AgentResponse{
		ConversationID: in.ConversationID,
		Text:           text,
		UsedTool:       in.ToolResult != nil,
		ToolSource:     source,
		CreatedAt:      in.Now,
	}
	return in, nil
}
