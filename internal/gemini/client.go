package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"katha/internal/usage"
)

var ErrMissingAPIKey = errors.New("gemini api key is missing")

// Client wraps a genai client and records usage for every call.
type Client struct {
	client *genai.Client
	ledger *usage.Ledger
}

func NewClient(ctx context.Context, apiKey string, ledger *usage.Ledger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: client, ledger: ledger}, nil
}

// Model is a configured generative model together with its id.
type Model struct {
	*genai.GenerativeModel
	ID string
}

func (c *Client) Model(id string) *Model {
	return &Model{GenerativeModel: c.client.GenerativeModel(id), ID: id}
}

// Generate issues one generateContent call and records its token usage.
func (c *Client) Generate(ctx context.Context, model *Model, kind usage.Kind, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, err
	}
	c.record(model.ID, kind, resp)
	return resp, nil
}

func (c *Client) record(model string, kind usage.Kind, resp *genai.GenerateContentResponse) {
	if resp.UsageMetadata != nil {
		c.ledger.Record(model, kind, int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount))
		return
	}
	if kind == usage.KindImage {
		c.ledger.Record(model, kind, 0, 0)
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Text concatenates every text part of the first candidate.
func Text(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// FirstBlob returns the first inline data part of the first candidate.
func FirstBlob(resp *genai.GenerateContentResponse) (genai.Blob, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return genai.Blob{}, false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if b, ok := part.(genai.Blob); ok && len(b.Data) > 0 {
			return b, true
		}
	}
	logrus.WithField("component", "gemini").Debug("response carried no inline data")
	return genai.Blob{}, false
}
