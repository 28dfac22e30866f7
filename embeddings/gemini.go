package embeddings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

type geminiProvider struct {
	model     string
	apiKey    string
	targetDim int

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// NewGeminiProvider creates the Gemini embedding backend. targetDim is
// passed through as the requested output dimensionality so the API returns
// vectors already sized for the tenant configuration where the model
// supports it; the orchestrator still conforms whatever comes back.
func NewGeminiProvider(model, apiKey string, targetDim int) Provider {
	return &geminiProvider{
		model:     model,
		apiKey:    apiKey,
		targetDim: targetDim,
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Model() string { return p.model }

func (p *geminiProvider) Dimension() int {
	// gemini-embedding-001 outputs 3072 dims, text-embedding-004 outputs 768.
	if p.model == "gemini-embedding-001" {
		return 3072
	}
	return 768
}

func (p *geminiProvider) init(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		p.client, p.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if p.clientErr != nil {
		return nil, &FatalError{Provider: p.Name(), Err: p.clientErr}
	}
	return p.client, nil
}

func (p *geminiProvider) EmbedTexts(ctx context.Context, texts []string, user string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	client, err := p.init(ctx)
	if err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	dim := int32(p.targetDim)
	resp, err := client.Models.EmbedContent(ctx, p.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, p.classify(err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, &TransientError{
			Provider: p.Name(),
			Err:      fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, embedding := range resp.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, &TransientError{
				Provider: p.Name(),
				Err:      fmt.Errorf("empty embedding at index %d", i),
			}
		}
		vectors[i] = embedding.Values
	}
	return vectors, nil
}

func (p *geminiProvider) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(p.Name(), apiErr.Code, err)
	}
	return classifyMessage(p.Name(), err)
}

var _ Provider = (*geminiProvider)(nil)
