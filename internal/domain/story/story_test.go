package story

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSpeaker(t *testing.T) {
	tests := map[string]Speaker{
		"Brahma":    NarratorA,
		"Sarasvati": NarratorB,
		"sarasvati": NarratorA,
		"":          NarratorA,
		"Narrator":  NarratorA,
	}
	for in, want := range tests {
		if got := ParseSpeaker(in); got != want {
			t.Errorf("ParseSpeaker(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScriptResolve(t *testing.T) {
	script := NewScript([]Segment{
		{Speaker: NarratorA, Text: "one"},
		{Speaker: NarratorB, Text: "two"},
	})

	ready, err := script.Resolve(0, []byte{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	failed, err := ready.Resolve(1, nil)
	if err != nil {
		t.Fatal(err)
	}

	var states []AudioState
	for _, seg := range failed.Segments() {
		states = append(states, seg.AudioState())
	}
	if diff := cmp.Diff([]AudioState{AudioReady, AudioFailed}, states); diff != "" {
		t.Fatalf("audio states (-want +got):\n%s", diff)
	}
	if seg, _ := script.At(0); seg.AudioState() != AudioPending {
		t.Fatal("resolving changed the original script")
	}

	if _, err := failed.Resolve(0, []byte{3, 4}); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("second resolve of a ready segment: %v", err)
	}
	if _, err := failed.Resolve(1, []byte{3, 4}); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("second resolve of a failed segment: %v", err)
	}
	if _, err := failed.Resolve(2, nil); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("resolve past the end: %v", err)
	}
}

func TestScriptWithSegmentBounds(t *testing.T) {
	script := NewScript([]Segment{{Text: "only"}})
	for _, i := range []int{-1, 1, 5} {
		if _, err := script.WithSegment(i, Segment{}); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("WithSegment(%d) error = %v, want ErrIndexOutOfRange", i, err)
		}
	}

	next, err := script.WithSegment(0, Segment{Text: "replaced"})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := next.At(0); got.Text != "replaced" {
		t.Fatalf("replaced text = %q", got.Text)
	}
	if got, _ := script.At(0); got.Text != "only" {
		t.Fatalf("original changed to %q", got.Text)
	}
}

func TestNewScriptCopiesInput(t *testing.T) {
	segs := []Segment{{Text: "a"}}
	script := NewScript(segs)
	segs[0].Text = "mutated"
	if got, _ := script.At(0); got.Text != "a" {
		t.Fatalf("script shares the caller's slice: %q", got.Text)
	}
	if (Script{}).Len() != 0 || !(Script{}).Empty() {
		t.Fatal("zero script should be empty")
	}
}

func TestSegmentPrompt(t *testing.T) {
	if got := (Segment{Text: "text", VisualHint: "hint"}).Prompt(); got != "hint" {
		t.Errorf("Prompt() = %q, want the hint", got)
	}
	if got := (Segment{Text: "text"}).Prompt(); got != "text" {
		t.Errorf("Prompt() = %q, want the text", got)
	}
}

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{"hi": Hindi, "ml": Malayalam, "xx": English, "": English}
	for code, want := range tests {
		if got := ParseLanguage(code); got != want {
			t.Errorf("ParseLanguage(%q) = %q, want %q", code, got, want)
		}
		if Language(code).Valid() != (code == string(want)) {
			t.Errorf("Language(%q).Valid() = %v", code, Language(code).Valid())
		}
	}
}
