package llm

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

type geminiClient struct {
	model  string
	apiKey string

	once      sync.Once
	client    *genai.Client
	clientErr error
}

func NewGeminiClient(model, apiKey string) Client {
	return &geminiClient{
		model:  model,
		apiKey: apiKey,
	}
}

func (c *geminiClient) init(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		c.client, c.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if c.clientErr != nil {
		return nil, fmt.Errorf("create gemini client: %w", c.clientErr)
	}
	return c.client, nil
}

func (c *geminiClient) Generate(ctx context.Context, prompt string) (Result, error) {
	client, err := c.init(ctx)
	if err != nil {
		return Result{}, err
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return Result{}, fmt.Errorf("generate gemini content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return Result{}, fmt.Errorf("gemini returned no content")
	}

	result := Result{Text: text, Provider: "gemini"}
	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}

var _ Client = (*geminiClient)(nil)
