package embeddings

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

type openAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(model, apiKey, baseURL string) Provider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &openAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Model() string { return p.model }

func (p *openAIProvider) Dimension() int {
	// text-embedding-3-large outputs 3072 dims, -small outputs 1536.
	if p.model == "text-embedding-3-large" {
		return 3072
	}
	return 1536
}

func (p *openAIProvider) EmbedTexts(ctx context.Context, texts []string, user string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
		User:  user,
	})
	if err != nil {
		return nil, p.classify(err)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, datum := range resp.Data {
		vectors[i] = datum.Embedding
	}
	return vectors, nil
}

func (p *openAIProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(p.Name(), apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(p.Name(), reqErr.HTTPStatusCode, err)
	}
	return classifyMessage(p.Name(), err)
}

var _ Provider = (*openAIProvider)(nil)
