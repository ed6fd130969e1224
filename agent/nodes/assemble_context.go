package nodes

import (
	"context"
	"fmt"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

// AssembleContext loads the bounded context bundle. A degraded bundle is
// fine; only ErrContextUnavailable aborts the turn.
func AssembleContext(
	ctx context.Context,
	in *GraphState,
	assembler contractx.ContextAssembler,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	bundle, err := assembler.Assemble(ctx, in.ConversationID, in.UserID)
	if err != nil {
		return nil, err
	}
	in.Bundle = bundle
	return in, nil
}
