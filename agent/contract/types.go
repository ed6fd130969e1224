package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ContextWindow caps the number of messages carried into a single turn.
const ContextWindow = 10

// UnknownSummary is the sentinel for a diagnostic summary that could not be
// retrieved in time for the current turn.
const UnknownSummary = "unknown"

// Conversation is the durable per-dialogue record. Expiry is enforced by the
// store's TTL mechanism; the core only refreshes it.
type Conversation struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	TTLSeconds   int64     `json:"ttl_seconds,omitempty"`
}

// Message is one half of a dialogue turn. Append-only: never mutated once written.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           Role            `json:"role"`
	Text           string          `json:"text"`
	CreatedAt      time.Time       `json:"created_at"`
	Tool           *ToolInvocation `json:"tool,omitempty"`
}

// ToolInvocation records that a tool call backed the message it is attached to.
type ToolInvocation struct {
	Query  string     `json:"query"`
	Source ToolSource `json:"source"`
}

func NewMessage(conversationID string, role Role, text string, now time.Time) Message {
	return Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Text:           strings.TrimSpace(text),
		CreatedAt:      now.UTC(),
	}
}

// VehicleProfile is maintained out-of-band; the core only ever reads it.
type VehicleProfile struct {
	UserID            string `json:"user_id"`
	Make              string `json:"make"`
	Model             string `json:"model"`
	Year              int    `json:"year"`
	DiagnosticSummary string `json:"diagnostic_summary,omitempty"`
}

// UnknownVehicleProfile is the sentinel used when the profile lookup degrades.
func UnknownVehicleProfile() VehicleProfile {
	return VehicleProfile{Make: UnknownSummary, Model: UnknownSummary}
}

func (p VehicleProfile) IsUnknown() bool {
	return p.Make == UnknownSummary && p.Model == UnknownSummary
}

func (p VehicleProfile) Describe() string {
	if p.IsUnknown() {
		return "unknown vehicle"
	}
	return fmt.Sprintf("%d %s %s", p.Year, p.Make, p.Model)
}

// ContextBundle is assembled fresh for every turn and never persisted. It
// holds at most ContextWindow messages (oldest first), one profile and one
// diagnostic summary.
type ContextBundle struct {
	ConversationID string
	Messages       []Message
	Profile        VehicleProfile
	Summary        string
	Degraded       bool
}

// VehicleTag is the coarse context component of a tool cache fingerprint.
func (b ContextBundle) VehicleTag() string {
	if b.Profile.IsUnknown() {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(b.Profile.Make + " " + b.Profile.Model))
}

type ToolSource string

const (
	ToolSourceLive     ToolSource = "live"
	ToolSourceCached   ToolSource = "cached"
	ToolSourceFallback ToolSource = "fallback"
	ToolSourceNone     ToolSource = "none"
)

// ToolResult carries the outcome of a search invocation. Failure is always
// represented as a fallback-tagged result, never as an error.
type ToolResult struct {
	Query     string     `json:"query"`
	Payload   string     `json:"payload"`
	Source    ToolSource `json:"source"`
	FetchedAt time.Time  `json:"fetched_at"`
}

func (r ToolResult) IsFallback() bool {
	return r.Source == ToolSourceFallback
}

// CompletionRequest is the input to the language-understanding capability.
// Tool is nil on the decision call and set on the synthesis call.
type CompletionRequest struct {
	Bundle   ContextBundle
	UserText string
	Tool     *ToolResult
}

// Completion is the model's structured verdict: either a final answer or a
// request to run the search tool, never both.
type Completion struct {
	Answer    string `json:"answer,omitempty"`
	ToolQuery string `json:"tool_query,omitempty"`
}

func (c Completion) WantsTool() bool {
	return strings.TrimSpace(c.ToolQuery) != ""
}

// AgentResponse is the finalized output of one turn.
type AgentResponse struct {
	ConversationID string     `json:"conversation_id"`
	Text           string     `json:"text"`
	UsedTool       bool       `json:"used_tool"`
	ToolSource     ToolSource `json:"tool_source"`
	CreatedAt      time.Time  `json:"created_at"`
}
