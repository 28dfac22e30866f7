package embeddings_test

import (
	"testing"

	"github.com/singlebitxyz/botrag/config"
	"github.com/singlebitxyz/botrag/embeddings"
)

func testConfig() config.Config {
	return config.Config{
		OpenAIAPIKey: "sk-test",
		GeminiAPIKey: "gm-test",
		Embeddings: config.EmbeddingConfig{
			Preferred:   config.ProviderOpenAI,
			OpenAIModel: "text-embedding-3-small",
			GeminiModel: "text-embedding-004",
			Dimension:   1536,
			BatchSize:   64,
		},
	}
}

func TestNewProvidersPreferredFirst(t *testing.T) {
	cfg := testConfig()

	providers, err := embeddings.NewProviders(cfg)
	if err != nil {
		t.Fatalf("expected providers, got error: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(providers))
	}
	if providers[0].Name() != "openai" || providers[1].Name() != "gemini" {
		t.Fatalf("unexpected order: %s, %s", providers[0].Name(), providers[1].Name())
	}

	cfg.Embeddings.Preferred = config.ProviderGemini
	providers, err = embeddings.NewProviders(cfg)
	if err != nil {
		t.Fatalf("expected providers, got error: %v", err)
	}
	if providers[0].Name() != "gemini" || providers[1].Name() != "openai" {
		t.Fatalf("unexpected order: %s, %s", providers[0].Name(), providers[1].Name())
	}
}

func TestNewProvidersRequiresKeys(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	if _, err := embeddings.NewProviders(cfg); err == nil {
		t.Fatal("expected error for missing OPENAI_API_KEY")
	}

	cfg = testConfig()
	cfg.GeminiAPIKey = ""
	if _, err := embeddings.NewProviders(cfg); err == nil {
		t.Fatal("expected error for missing GEMINI_API_KEY")
	}
}

func TestNewProvidersUnknownPreference(t *testing.T) {
	cfg := testConfig()
	cfg.Embeddings.Preferred = "abacus"
	if _, err := embeddings.NewProviders(cfg); err == nil {
		t.Fatal("expected error for unknown preference")
	}
}

func TestProviderDimensionsTrackModel(t *testing.T) {
	cases := []struct {
		provider embeddings.Provider
		want     int
	}{
		{embeddings.NewOpenAIProvider("text-embedding-3-small", "sk-test", ""), 1536},
		{embeddings.NewOpenAIProvider("text-embedding-3-large", "sk-test", ""), 3072},
		{embeddings.NewGeminiProvider("text-embedding-004", "gm-test", 1536), 768},
		{embeddings.NewGeminiProvider("gemini-embedding-001", "gm-test", 1536), 3072},
	}
	for _, tc := range cases {
		if got := tc.provider.Dimension(); got != tc.want {
			t.Errorf("%s %s: expected dimension %d, got %d",
				tc.provider.Name(), tc.provider.Model(), tc.want, got)
		}
	}
}
