package nodes

import (
	"fmt"
	"strings"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if strings.TrimSpace(in.Response.Text) == "" {
		return GraphOutput{}, fmt.Errorf("%w: response text is empty", contractx.ErrValidation)
	}
	return GraphOutput{Response: in.Response}, nil
}
