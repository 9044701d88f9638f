package prefetch

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"katha/internal/domain/story"
)

type fakeSpeech struct {
	mu     sync.Mutex
	texts  []string
	fail   map[string]bool
	before func(text string)
}

func (f *fakeSpeech) Request(_ context.Context, text string, _ story.Speaker) []byte {
	if f.before != nil {
		f.before(text)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.fail[text] {
		return nil
	}
	return []byte(text)
}

type merge struct {
	Gen    uint64
	Length int
	Index  int
	Audio  string
}

type fakeTarget struct {
	mu     sync.Mutex
	gen    uint64
	merges []merge
}

func (f *fakeTarget) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

func (f *fakeTarget) bump() {
	f.mu.Lock()
	f.gen++
	f.mu.Unlock()
}

func (f *fakeTarget) MergeAudio(gen uint64, length, index int, audio []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return false
	}
	f.merges = append(f.merges, merge{gen, length, index, string(audio)})
	return true
}

func script(texts ...string) story.Script {
	segs := make([]story.Segment, len(texts))
	for i, t := range texts {
		segs[i] = story.Segment{Speaker: story.NarratorA, Text: t}
	}
	return story.NewScript(segs)
}

func TestRunRequestsInOrder(t *testing.T) {
	speech := &fakeSpeech{fail: map[string]bool{"b": true}}
	target := &fakeTarget{gen: 3}

	n := NewScheduler(speech, target).Run(context.Background(), script("a", "b", "c"), 3)

	if n != 3 {
		t.Fatalf("merged %d, want 3", n)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, speech.texts); diff != "" {
		t.Fatalf("request order (-want +got):\n%s", diff)
	}
	want := []merge{
		{3, 3, 0, "a"},
		{3, 3, 1, ""},
		{3, 3, 2, "c"},
	}
	if diff := cmp.Diff(want, target.merges); diff != "" {
		t.Fatalf("merges (-want +got):\n%s", diff)
	}
}

func TestRunSkipsResolvedSegments(t *testing.T) {
	s, err := script("a", "b").Resolve(0, []byte("cached"))
	if err != nil {
		t.Fatal(err)
	}
	speech := &fakeSpeech{}
	NewScheduler(speech, &fakeTarget{gen: 1}).Run(context.Background(), s, 1)

	if diff := cmp.Diff([]string{"b"}, speech.texts); diff != "" {
		t.Fatalf("requests (-want +got):\n%s", diff)
	}
}

func TestRunAbandonsWhenSuperseded(t *testing.T) {
	target := &fakeTarget{gen: 1}
	speech := &fakeSpeech{}
	speech.before = func(text string) {
		if text == "b" {
			target.bump()
		}
	}

	n := NewScheduler(speech, target).Run(context.Background(), script("a", "b", "c"), 1)

	if n != 1 {
		t.Fatalf("merged %d, want 1", n)
	}
	if diff := cmp.Diff([]string{"a", "b"}, speech.texts); diff != "" {
		t.Fatalf("requests (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]merge{{1, 3, 0, "a"}}, target.merges); diff != "" {
		t.Fatalf("merges (-want +got):\n%s", diff)
	}
}

func TestRunStaleBeforeStart(t *testing.T) {
	speech := &fakeSpeech{}
	n := NewScheduler(speech, &fakeTarget{gen: 2}).Run(context.Background(), script("a"), 1)
	if n != 0 || len(speech.texts) != 0 {
		t.Fatalf("stale run made %d requests", len(speech.texts))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	speech := &fakeSpeech{}
	speech.before = func(string) { cancel() }

	n := NewScheduler(speech, &fakeTarget{gen: 1}).Run(ctx, script("a", "b"), 1)
	if n != 0 {
		t.Fatalf("merged %d after cancel", n)
	}
}
