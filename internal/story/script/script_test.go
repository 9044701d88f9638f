package script

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"katha/internal/domain/story"
)

type fakeGenerator struct {
	segments []story.Segment
	err      error
	got      Request
}

func (f *fakeGenerator) Generate(_ context.Context, req Request) ([]story.Segment, error) {
	f.got = req
	return f.segments, f.err
}

func TestRequestReturnsSanitizedScript(t *testing.T) {
	gen := &fakeGenerator{segments: []story.Segment{
		{Speaker: story.NarratorA, Text: "  In the beginning...  ", VisualHint: "cosmic ocean"},
		{Speaker: "Narada", Text: "An unknown voice", VisualHint: "sage"},
		{Speaker: story.NarratorB, Text: "   "},
		{Speaker: story.NarratorB, Text: "She descended.", VisualHint: ""},
	}}
	r := NewRequester(gen)

	got := r.Request(context.Background(), "Ganga", story.Language("xx"), "  origin  ")

	want := []story.Segment{
		{Speaker: story.NarratorA, Text: "In the beginning...", VisualHint: "cosmic ocean"},
		{Speaker: story.NarratorA, Text: "An unknown voice", VisualHint: "sage"},
		{Speaker: story.NarratorB, Text: "She descended."},
	}
	if diff := cmp.Diff(want, got.Segments()); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
	wantReq := Request{Subject: "Ganga", Language: story.English, Topic: "origin"}
	if diff := cmp.Diff(wantReq, gen.got); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestFallsBackNeverEmpty(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "transport error", gen: &fakeGenerator{err: errors.New("deadline exceeded")}},
		{name: "empty response", gen: &fakeGenerator{}},
		{name: "only blank segments", gen: &fakeGenerator{segments: []story.Segment{{Text: " "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRequester(tt.gen).Request(context.Background(), "Yamuna", story.Hindi, "")
			if got.Len() < 1 {
				t.Fatal("fallback script must never be empty")
			}
			if diff := cmp.Diff(Fallback().Segments(), got.Segments()); diff != "" {
				t.Fatalf("fallback mismatch (-want +got):\n%s", diff)
			}
			seg, _ := got.At(0)
			if seg.Speaker != story.NarratorA {
				t.Fatalf("fallback speaker = %s", seg.Speaker)
			}
		})
	}
}

func TestDecodeSegments(t *testing.T) {
	raw := `[{"speaker":"Brahma","text":"Listen.","visualDescription":"lotus"},{"speaker":"Sarasvati","text":"Yes.","visualDescription":"veena"}]`
	got, err := decodeSegments(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []story.Segment{
		{Speaker: story.NarratorA, Text: "Listen.", VisualHint: "lotus"},
		{Speaker: story.NarratorB, Text: "Yes.", VisualHint: "veena"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := decodeSegments(""); !errors.Is(err, errEmptyResponse) {
		t.Fatalf("empty: got %v", err)
	}
	if _, err := decodeSegments("```json\n[]```"); err == nil {
		t.Fatal("markdown-wrapped output should fail to decode")
	}
}

func TestPrompts(t *testing.T) {
	if got := userPrompt(Request{Subject: "Ganga"}); got != "Tell the divine legend of the holy river Ganga." {
		t.Fatalf("default prompt = %q", got)
	}
	topic := userPrompt(Request{Subject: "Ganga", Topic: "Tell me about its origin"})
	if !strings.Contains(topic, `"Tell me about its origin"`) || !strings.Contains(topic, "river Ganga") {
		t.Fatalf("topic prompt = %q", topic)
	}
	if !strings.Contains(systemInstruction(story.Tamil), "**Tamil**") {
		t.Fatal("system instruction should name the language")
	}
}
