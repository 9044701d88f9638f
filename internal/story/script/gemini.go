package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"katha/internal/domain/story"
	"katha/internal/gemini"
	"katha/internal/usage"
)

var errEmptyResponse = errors.New("empty script response")

// GeminiGenerator asks a Gemini text model for a JSON dialogue script.
type GeminiGenerator struct {
	client      *gemini.Client
	model       string
	temperature float32
}

func NewGeminiGenerator(client *gemini.Client, model string, temperature float32) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model, temperature: temperature}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) ([]story.Segment, error) {
	model := g.client.Model(g.model)
	model.SetTemperature(g.temperature)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction(req.Language)))
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = responseSchema()

	resp, err := g.client.Generate(ctx, model, usage.KindText, genai.Text(userPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}
	return decodeSegments(gemini.Text(resp))
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"speaker": {
					Type:   genai.TypeString,
					Format: "enum",
					Enum:   []string{string(story.NarratorA), string(story.NarratorB)},
				},
				"text":              {Type: genai.TypeString},
				"visualDescription": {Type: genai.TypeString},
			},
			Required: []string{"speaker", "text", "visualDescription"},
		},
	}
}

func decodeSegments(raw string) ([]story.Segment, error) {
	if raw == "" {
		return nil, errEmptyResponse
	}
	var segments []story.Segment
	if err := json.Unmarshal([]byte(raw), &segments); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	return segments, nil
}
