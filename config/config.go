package config

import (
	"os"
	"strconv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	PostgresDSN string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string

	Embeddings EmbeddingConfig
	LLM        LLMConfig
	Retrieval  RetrievalConfig
}

type EmbeddingConfig struct {
	// Preferred selects which provider is tried first; the other becomes
	// the fallback.
	Preferred   string
	OpenAIModel string
	GeminiModel string
	Dimension   int
	BatchSize   int
}

type LLMConfig struct {
	Provider string
	Model    string
}

type RetrievalConfig struct {
	TopK     int
	MinScore float64
}

func Load() Config {
	return Config{
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/botrag?sslmode=disable"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", "")),

		Embeddings: EmbeddingConfig{
			Preferred:   getEnv("EMBEDDING_PREFERRED", ProviderOpenAI),
			OpenAIModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			GeminiModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
			Dimension:   getEnvInt("EMBEDDING_DIMENSION", 1536),
			BatchSize:   getEnvInt("EMBEDDING_BATCH_SIZE", 64),
		},
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", ProviderOpenAI),
			Model:    getEnv("LLM_MODEL", "gpt-4o-mini"),
		},
		Retrieval: RetrievalConfig{
			TopK:     getEnvInt("RETRIEVAL_TOP_K", 5),
			MinScore: getEnvFloat("RETRIEVAL_MIN_SCORE", 0.25),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
