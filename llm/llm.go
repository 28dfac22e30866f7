package llm

import (
	"context"
	"fmt"

	"github.com/singlebitxyz/botrag/config"
)

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Result carries the generated text plus the token accounting the query
// log records per answered question.
type Result struct {
	Text     string
	Usage    Usage
	Provider string
}

type Client interface {
	Generate(ctx context.Context, prompt string) (Result, error)
}

func NewClient(cfg config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIClient(cfg.LLM.Model, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider selected but GEMINI_API_KEY not set")
		}
		return NewGeminiClient(cfg.LLM.Model, cfg.GeminiAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}
