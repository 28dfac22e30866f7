package config_test

import (
	"testing"

	"github.com/singlebitxyz/botrag/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"EMBEDDING_PREFERRED", "EMBEDDING_DIMENSION", "EMBEDDING_BATCH_SIZE",
		"RETRIEVAL_TOP_K", "RETRIEVAL_MIN_SCORE", "LLM_PROVIDER",
	} {
		t.Setenv(key, "")
	}

	cfg := config.Load()

	if cfg.Embeddings.Preferred != config.ProviderOpenAI {
		t.Fatalf("unexpected preferred provider: %q", cfg.Embeddings.Preferred)
	}
	if cfg.Embeddings.Dimension != 1536 {
		t.Fatalf("unexpected default dimension: %d", cfg.Embeddings.Dimension)
	}
	if cfg.Embeddings.BatchSize != 64 {
		t.Fatalf("unexpected default batch size: %d", cfg.Embeddings.BatchSize)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Fatalf("unexpected default top_k: %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.MinScore != 0.25 {
		t.Fatalf("unexpected default min_score: %v", cfg.Retrieval.MinScore)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_PREFERRED", "gemini")
	t.Setenv("EMBEDDING_DIMENSION", "768")
	t.Setenv("EMBEDDING_BATCH_SIZE", "16")
	t.Setenv("RETRIEVAL_MIN_SCORE", "0.5")

	cfg := config.Load()

	if cfg.Embeddings.Preferred != config.ProviderGemini {
		t.Fatalf("override ignored: %q", cfg.Embeddings.Preferred)
	}
	if cfg.Embeddings.Dimension != 768 {
		t.Fatalf("override ignored: %d", cfg.Embeddings.Dimension)
	}
	if cfg.Embeddings.BatchSize != 16 {
		t.Fatalf("override ignored: %d", cfg.Embeddings.BatchSize)
	}
	if cfg.Retrieval.MinScore != 0.5 {
		t.Fatalf("override ignored: %v", cfg.Retrieval.MinScore)
	}
}

func TestLoadMalformedNumberFallsBack(t *testing.T) {
	t.Setenv("EMBEDDING_DIMENSION", "not-a-number")

	cfg := config.Load()
	if cfg.Embeddings.Dimension != 1536 {
		t.Fatalf("malformed value should fall back to default, got %d", cfg.Embeddings.Dimension)
	}
}
