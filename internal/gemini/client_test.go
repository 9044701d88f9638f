package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func response(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestText(t *testing.T) {
	resp := response(genai.Text(`[{"speaker":`), genai.Blob{MIMEType: "image/png", Data: []byte{1}}, genai.Text(`"Brahma"}]`))
	if got, want := Text(resp), `[{"speaker":"Brahma"}]`; got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
	if Text(nil) != "" || Text(&genai.GenerateContentResponse{}) != "" {
		t.Fatal("empty responses should yield empty text")
	}
}

func TestFirstBlob(t *testing.T) {
	resp := response(genai.Text("caption"), genai.Blob{MIMEType: "image/png"}, genai.Blob{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}})
	b, ok := FirstBlob(resp)
	if !ok || b.MIMEType != "image/jpeg" {
		t.Fatalf("FirstBlob() = %+v, %v", b, ok)
	}
	if _, ok := FirstBlob(response(genai.Text("only text"))); ok {
		t.Fatal("text-only response should not yield a blob")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "  ", nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("got %v, want ErrMissingAPIKey", err)
	}
}
