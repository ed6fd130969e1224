package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

// InvokeTool runs the search gateway when the decision asked for it. The
// gateway never fails; fallback results flow on to synthesis as data.
func InvokeTool(
	ctx context.Context,
	in *GraphState,
	tools contractx.ToolGateway,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if !in.Decision.WantsTool() {
		return in, nil
	}

	result := tools.Invoke(ctx, in.Decision.ToolQuery, in.Bundle)
	log.Debug().
		Str("conversation_id", in.ConversationID).
		Str("source", string(result.Source)).
		Msg("tool invocation resolved")

	in.ToolResult = &result
	return in, nil
}
