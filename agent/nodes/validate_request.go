// Package nodes holds the graph node functions of the agent turn pipeline
// and the state threaded between them.
package nodes

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

var (
	ErrInvalidMessage      = errors.New("message is empty")
	ErrInvalidConversation = errors.New("conversation id is empty")
)

type GraphInput struct {
	ConversationID string
	UserID         string
	Text           string
}

type GraphOutput struct {
	Response contractx.AgentResponse
}

// GraphState carries one turn through the pipeline. Turns never share state;
// the only cross-turn state in the process is the tool gateway cache.
type GraphState struct {
	ConversationID string
	UserID         string
	Text           string
	Now            time.Time

	Bundle     contractx.ContextBundle
	Decision   contractx.Completion
	ToolResult *contractx.ToolResult

	Response contractx.AgentResponse
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	conversationID := strings.TrimSpace(in.ConversationID)
	if conversationID == "" {
		return nil, ErrInvalidConversation
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		ConversationID: conversationID,
		UserID:         strings.TrimSpace(in.UserID),
		Text:           text,
		Now:            nowFn().UTC(),
	}, nil
}
