package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

// PublishReply hands the response to the real-time transport. Delivery
// failures are the transport's to retry; the core only logs them.
func PublishReply(
	ctx context.Context,
	in *GraphState,
	publisher contractx.Publisher,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if err := publisher.Publish(ctx, in.ConversationID, in.Response); err != nil {
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("publish response failed")
	}
	return in, nil
}
