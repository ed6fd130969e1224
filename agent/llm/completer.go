// Package llm implements the language-understanding capability on top of
// OpenRouter chat models. The decision call returns either a direct answer or
// a structured search request; the synthesis call turns context plus an
// optional tool result into the final reply. Every failure on either path
// wraps contract.ErrAgentUnavailable: it is the one dependency a turn cannot
// degrade around.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/torqline/shoptalk/agent/contract"
	promptx "github.com/torqline/shoptalk/agent/prompt"
)

type decisionLLMOutput struct {
	Answer    string `json:"answer,omitempty"`
	ToolQuery string `json:"tool_query,omitempty"`
}

type synthesisLLMOutput struct {
	Reply string `json:"reply"`
}

type Completer struct {
	decisionRunner  compose.Runnable[map[string]any, decisionLLMOutput]
	synthesisRunner compose.Runnable[map[string]any, synthesisLLMOutput]
	timeout         time.Duration
}

var _ contractx.Completer = (*Completer)(nil)

func NewCompleter(ctx context.Context, cfg Config) (*Completer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	decisionCfg := cfg.OpenRouterFor(PhaseDecision)
	decisionModel, err := decisionCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create decision model: %v", contractx.ErrAgentUnavailable, err)
	}
	synthesisCfg := cfg.OpenRouterFor(PhaseSynthesis)
	synthesisModel, err := synthesisCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create synthesis model: %v", contractx.ErrAgentUnavailable, err)
	}

	return newCompleter(ctx, decisionModel, synthesisModel, promptx.LoadPromptSet(), cfg.Timeout)
}

func newCompleter(
	ctx context.Context,
	decisionModel einomodel.BaseChatModel,
	synthesisModel einomodel.BaseChatModel,
	prompts promptx.PromptSet,
	timeout time.Duration,
) (*Completer, error) {
	decisionRunner, err := compileStructuredLLMGraph[decisionLLMOutput](ctx, decisionModel, prompts.Decision, "completer.decision_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile decision graph: %v", contractx.ErrAgentUnavailable, err)
	}
	synthesisRunner, err := compileStructuredLLMGraph[synthesisLLMOutput](ctx, synthesisModel, prompts.Synthesis, "completer.synthesis_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile synthesis graph: %v", contractx.ErrAgentUnavailable, err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Completer{
		decisionRunner:  decisionRunner,
		synthesisRunner: synthesisRunner,
		timeout:         timeout,
	}, nil
}

// Complete dispatches on the request shape: no tool result means the decision
// call, a tool result means synthesis.
func (c *Completer) Complete(ctx context.Context, req contractx.CompletionRequest) (contractx.Completion, error) {
	if strings.TrimSpace(req.UserText) == "" {
		return contractx.Completion{}, fmt.Errorf("%w: user text is empty", contractx.ErrValidation)
	}

	payload := map[string]any{
		"user_message":       req.UserText,
		"vehicle":            summarizeProfile(req.Bundle.Profile),
		"diagnostic_summary": req.Bundle.Summary,
		"history":            summarizeHistory(req.Bundle.Messages),
		"context_degraded":   req.Bundle.Degraded,
	}
	if req.Tool != nil {
		payload["tool_result"] = map[string]any{
			"query":     req.Tool.Query,
			"payload":   req.Tool.Payload,
			"source":    req.Tool.Source,
			"available": !req.Tool.IsFallback(),
		}
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.Completion{}, fmt.Errorf("%w: marshal completion payload: %v", contractx.ErrValidation, err)
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if req.Tool == nil {
		out, err := c.decisionRunner.Invoke(cctx, map[string]any{"input": string(input)})
		if err != nil {
			return contractx.Completion{}, fmt.Errorf("%w: decision invoke: %v", contractx.ErrAgentUnavailable, err)
		}
		answer := strings.TrimSpace(out.Answer)
		toolQuery := strings.TrimSpace(out.ToolQuery)
		if answer == "" && toolQuery == "" {
			return contractx.Completion{}, fmt.Errorf("%w: %w: decision returned neither answer nor tool query",
				contractx.ErrAgentUnavailable, contractx.ErrSchemaViolation)
		}
		if toolQuery != "" {
			// Exactly one outcome per decision: a tool request wins over any
			// stray answer text.
			return contractx.Completion{ToolQuery: toolQuery}, nil
		}
		return contractx.Completion{Answer: answer}, nil
	}

	out, err := c.synthesisRunner.Invoke(cctx, map[string]any{"input": string(input)})
	if err != nil {
		return contractx.Completion{}, fmt.Errorf("%w: synthesis invoke: %v", contractx.ErrAgentUnavailable, err)
	}
	reply := strings.TrimSpace(out.Reply)
	if reply == "" {
		return contractx.Completion{}, fmt.Errorf("%w: synthesis returned empty reply", contractx.ErrAgentUnavailable)
	}
	return contractx.Completion{Answer: reply}, nil
}

func summarizeProfile(p contractx.VehicleProfile) map[string]any {
	return map[string]any{
		"known":       !p.IsUnknown(),
		"description": p.Describe(),
		"make":        p.Make,
		"model":       p.Model,
		"year":        p.Year,
	}
}

func summarizeHistory(messages []contractx.Message) []map[string]any {
	history := make([]map[string]any, 0, len(messages))
	for _, msg := range messages {
		history = append(history, map[string]any{
			"role": msg.Role,
			"text": msg.Text,
		})
	}
	return history
}
