// Package oracle talks to the LLM that decides how fresh articles map onto
// tracked events. The model is an external black box; this package owns the
// transport, the prompt, and the strict parsing of its decisions.
package oracle

import (
	"context"
	"fmt"

	"newsdesk/internal/config"
)

// Completion knobs shared by every provider. Classification wants a terse,
// reproducible JSON array back, so the temperature stays low; the token budget
// fits a full decision batch for the largest active set.
const (
	completionMaxTokens   = 2048
	completionTemperature = 0.3
)

// Client is the interface for classification providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (*Response, error)
}

// Response holds the result of an LLM completion.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

// NewClient creates a classification client based on the config provider setting.
func NewClient(cfg config.OracleConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY or config")
		}
		model := cfg.Model
		if model == "" {
			model = "gpt-4o"
		}
		return NewOpenAI(cfg.OpenAIKey, model), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY or config")
		}
		model := cfg.Model
		if model == "" {
			model = "gemini-2.5-flash"
		}
		return NewGemini(cfg.GeminiKey, model), nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY or config")
		}
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return NewAnthropic(cfg.AnthropicKey, model), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %q", cfg.Provider)
	}
}
