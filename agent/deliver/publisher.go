// Package deliver adapts the real-time transport to the agent's publisher
// contract. Delivery retries and receipts belong to the transport; the agent
// only hands the response over.
package deliver

import (
	"context"
	"errors"
	"strings"

	contractx "github.com/torqline/shoptalk/agent/contract"
	ablyx "github.com/torqline/shoptalk/pkg/ably"
)

const (
	defaultChannelPrefix = "conversation:"
	responseEventName    = "agent.response"
)

type Option func(*AblyPublisher)

func WithChannelPrefix(prefix string) Option {
	return func(p *AblyPublisher) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			p.prefix = trimmed
		}
	}
}

type AblyPublisher struct {
	client *ablyx.Client
	prefix string
}

var _ contractx.Publisher = (*AblyPublisher)(nil)

func NewAblyPublisher(client *ablyx.Client, opts ...Option) (*AblyPublisher, error) {
	if client == nil {
		return nil, errors.New("ably client is required")
	}
	p := &AblyPublisher{
		client: client,
		prefix: defaultChannelPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

func (p *AblyPublisher) Publish(ctx context.Context, conversationID string, resp contractx.AgentResponse) error {
	return p.client.Publish(ctx, p.prefix+conversationID, responseEventName, resp)
}
