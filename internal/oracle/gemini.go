package oracle

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Completer and Embedder on the Gemini API.
type GeminiClient struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	embedModel *genai.EmbeddingModel
}

// NewGeminiClient reads GEMINI_API_KEY from the environment.
func NewGeminiClient(ctx context.Context) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	modelName := os.Getenv("GEMINI_MODEL")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	embedName := os.Getenv("GEMINI_EMBED_MODEL")
	if embedName == "" {
		embedName = "text-embedding-004"
	}
	model := client.GenerativeModel(modelName)
	// Decisions must be reproducible across retries.
	var temp float32
	model.Temperature = &temp
	return &GeminiClient{
		client:     client,
		model:      model,
		embedModel: client.EmbeddingModel(embedName),
	}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Complete sends one prompt and returns the raw model text.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("error generating content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini model")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected part type in Gemini response")
	}
	return string(text), nil
}

// Embed returns the embedding vector for a short text.
func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := g.embedModel.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("error embedding content with Gemini: %w", err)
	}
	if res.Embedding == nil {
		return nil, fmt.Errorf("empty embedding from Gemini")
	}
	return res.Embedding.Values, nil
}
