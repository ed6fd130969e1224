package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/torqline/shoptalk/agent/contract"
	openrouterx "github.com/torqline/shoptalk/pkg/openrouter"
)

// Phase selects which model configuration a completer call uses. The decision
// phase benefits from a cheaper, lower-temperature model; synthesis can run a
// stronger one.
type Phase string

const (
	PhaseDecision  Phase = "decision"
	PhaseSynthesis Phase = "synthesis"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	DecisionModel        string  `envconfig:"DECISION_MODEL" split_words:"true"`
	SynthesisModel       string  `envconfig:"SYNTHESIS_MODEL" split_words:"true"`
	DecisionTemperature  float32 `envconfig:"DECISION_TEMPERATURE" split_words:"true" default:"-1"`
	SynthesisTemperature float32 `envconfig:"SYNTHESIS_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouterFor(phase Phase) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch phase {
	case PhaseDecision:
		if v := strings.TrimSpace(c.DecisionModel); v != "" {
			modelName = v
		}
		if c.DecisionTemperature >= 0 {
			temp = c.DecisionTemperature
		}
	case PhaseSynthesis:
		if v := strings.TrimSpace(c.SynthesisModel); v != "" {
			modelName = v
		}
		if c.SynthesisTemperature >= 0 {
			temp = c.SynthesisTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
