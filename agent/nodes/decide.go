package nodes

import (
	"context"
	"fmt"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

// Decide asks the language model whether the turn needs the search tool or
// can be answered directly. The decision is final for this turn; it is never
// retried.
func Decide(
	ctx context.Context,
	in *GraphState,
	completer contractx.Completer,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	decision, err := completer.Complete(ctx, contractx.CompletionRequest{
		Bundle:   in.Bundle,
		UserText: in.Text,
	})
	if err != nil {
		return nil, err
	}

	in.Decision = decision
	return in, nil
}
