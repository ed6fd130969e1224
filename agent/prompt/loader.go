package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/decision.txt
	decisionRaw string

	//go:embed template/synthesis.txt
	synthesisRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Decision  string
	Synthesis string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Decision:  strings.TrimSpace(decisionRaw),
		Synthesis: strings.TrimSpace(synthesisRaw),
	}
}
