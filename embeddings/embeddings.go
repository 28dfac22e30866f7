package embeddings

import (
	"context"
	"fmt"

	"github.com/singlebitxyz/botrag/config"
)

// Provider computes embedding vectors for batches of text. Implementations
// must return exactly one vector per input, in input order, and classify
// every failure as either a FatalError or a TransientError.
type Provider interface {
	Name() string
	Model() string
	Dimension() int
	EmbedTexts(ctx context.Context, texts []string, user string) ([][]float32, error)
}

// NewProviders builds the ordered provider list, preferred provider first.
// Both backends are always configured; the preference only decides which
// one is tried before the other falls back.
func NewProviders(cfg config.Config) ([]Provider, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	openAI := NewOpenAIProvider(cfg.Embeddings.OpenAIModel, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	gemini := NewGeminiProvider(cfg.Embeddings.GeminiModel, cfg.GeminiAPIKey, cfg.Embeddings.Dimension)

	switch cfg.Embeddings.Preferred {
	case config.ProviderGemini:
		return []Provider{gemini, openAI}, nil
	case config.ProviderOpenAI:
		return []Provider{openAI, gemini}, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embeddings.Preferred)
	}
}
