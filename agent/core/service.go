// Package core orchestrates one conversation turn: assemble context, decide
// on tool use, invoke the search gateway, synthesize, persist and publish.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/torqline/shoptalk/agent/contract"
	nodex "github.com/torqline/shoptalk/agent/nodes"
)

var (
	ErrInvalidMessage      = nodex.ErrInvalidMessage
	ErrInvalidConversation = nodex.ErrInvalidConversation
)

type Agent struct {
	assembler contractx.ContextAssembler
	completer contractx.Completer
	tools     contractx.ToolGateway
	store     contractx.ConversationStore
	publisher contractx.Publisher

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	assembler contractx.ContextAssembler,
	completer contractx.Completer,
	tools contractx.ToolGateway,
	store contractx.ConversationStore,
	publisher contractx.Publisher,
) (*Agent, error) {
	if assembler == nil {
		return nil, errors.New("context assembler is required")
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if store == nil {
		return nil, errors.New("conversation store is required")
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}

	a := &Agent{
		assembler: assembler,
		completer: completer,
		tools:     tools,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}

	graphRunner, err := a.compileRespondGraph(context.Background())
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner

	return a, nil
}

// Respond runs one full turn. Turns for different conversations are fully
// independent and may run concurrently.
func (a *Agent) Respond(ctx context.Context, conversationID, userID, text string) (contractx.AgentResponse, error) {
	out, err := a.graphRunner.Invoke(ctx, nodex.GraphInput{
		ConversationID: conversationID,
		UserID:         userID,
		Text:           text,
	})
	if err != nil {
		return contractx.AgentResponse{}, err
	}
	return out.Response, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, contractx.AgentResponse) error {
	return nil
}
