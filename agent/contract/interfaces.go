package contract

import "context"

// ConversationStore is the durable key-value boundary for conversations and
// messages. Implementations own record expiry; the core only sets TTLs.
type ConversationStore interface {
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
	AppendMessage(ctx context.Context, msg Message) error
	TouchConversation(ctx context.Context, conversationID string) error
}

// ProfileStore reads vehicle profiles maintained by an out-of-band pipeline.
type ProfileStore interface {
	GetVehicleProfile(ctx context.Context, userID string) (*VehicleProfile, error)
}

// ContextAssembler builds the bounded per-turn context bundle.
type ContextAssembler interface {
	Assemble(ctx context.Context, conversationID, userID string) (ContextBundle, error)
}

// Completer is the language-understanding capability. Any failure must wrap
// ErrAgentUnavailable; it is the only fatal dependency of a turn.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// Searcher is the external search capability wrapped by the tool gateway.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// ToolGateway resolves a search query to a ToolResult. It never fails: cache
// misses, timeouts and malformed responses all come back as fallback results.
type ToolGateway interface {
	Invoke(ctx context.Context, query string, bundle ContextBundle) ToolResult
}

// Publisher emits the finalized response on the real-time transport. Delivery
// retries are owned by the transport, not the core.
type Publisher interface {
	Publish(ctx context.Context, conversationID string, resp AgentResponse) error
}
