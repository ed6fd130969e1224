package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

// PersistTurn appends both halves of the turn and refreshes the conversation
// record. It runs only once a response exists, so a failed turn never leaves
// a dangling user message behind. Store errors are logged, not fatal: the
// response has already been produced and losing one history entry is cheaper
// than failing the turn.
func PersistTurn(
	ctx context.Context,
	in *GraphState,
	store contractx.ConversationStore,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	userMsg := contractx.NewMessage(in.ConversationID, contractx.RoleUser, in.Text, in.Now)
	agentMsg := contractx.NewMessage(in.ConversationID, contractx.RoleAgent, in.Response.Text, in.Now)
	if in.ToolResult != nil {
		agentMsg.Tool = &contractx.ToolInvocation{
			Query:  in.ToolResult.Query,
			Source: in.ToolResult.Source,
		}
	}

	if err := store.AppendMessage(ctx, userMsg); err != nil {
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("append user message failed")
		return in, nil
	}
	if err := store.AppendMessage(ctx, agentMsg); err != nil {
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("append agent message failed")
		return in, nil
	}
	if err := store.TouchConversation(ctx, in.ConversationID); err != nil {
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("touch conversation failed")
	}
	return in, nil
}
