package vision

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"katha/internal/gemini"
	"katha/internal/usage"
)

// GeminiGenerator draws illustrations with a Gemini image model.
type GeminiGenerator struct {
	client *gemini.Client
	model  string
}

func NewGeminiGenerator(client *gemini.Client, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (*Image, error) {
	model := g.client.Model(g.model)
	resp, err := g.client.Generate(ctx, model, usage.KindImage, genai.Text(StylePrompt(prompt)))
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	blob, ok := gemini.FirstBlob(resp)
	if !ok {
		return nil, ErrNoImage
	}
	return &Image{MIMEType: blob.MIMEType, Data: blob.Data}, nil
}
