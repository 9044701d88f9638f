package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"katha/internal/domain/story"
	"katha/internal/usage"
)

type fakeSynth struct {
	pcm    []byte
	err    error
	calls  int
	voices []string
}

func (f *fakeSynth) Synthesize(_ context.Context, _ string, voice string) ([]byte, error) {
	f.calls++
	f.voices = append(f.voices, voice)
	return f.pcm, f.err
}

func (f *fakeSynth) GetAvailableVoices(context.Context) ([]string, error) { return f.voices, nil }
func (f *fakeSynth) Close() error { return nil }

func TestRequesterMapsSpeakersToVoices(t *testing.T) {
	synth := &fakeSynth{pcm: []byte{1, 0}}
	ledger := usage.NewLedger()
	r := NewRequester(synth, "voice-a", "voice-b", ledger)

	r.Request(context.Background(), "नमस्ते", story.NarratorA)
	r.Request(context.Background(), "hello", story.NarratorB)

	if diff := cmp.Diff([]string{"voice-a", "voice-b"}, synth.voices); diff != "" {
		t.Fatalf("voices (-want +got):\n%s", diff)
	}
	recs := ledger.Snapshot()
	if len(recs) != 2 || recs[0].Kind != usage.KindAudio || recs[0].InputTokens != 6 {
		t.Fatalf("unexpected usage records: %+v", recs)
	}
}

func TestRequesterReturnsNilOnFailure(t *testing.T) {
	for name, synth := range map[string]*fakeSynth{
		"error": {err: errors.New("quota exceeded")},
		"empty": {pcm: []byte{}},
	} {
		t.Run(name, func(t *testing.T) {
			r := NewRequester(synth, "a", "b", nil)
			if got := r.Request(context.Background(), "text", story.NarratorB); got != nil {
				t.Fatalf("got %v, want nil", got)
			}
		})
	}
}

func TestMockSynthesizerProducesPCM(t *testing.T) {
	m := NewMockSynthesizer()
	pcm, err := m.Synthesize(context.Background(), "one two three", "mock-high")
	if err != nil {
		t.Fatal(err)
	}
	if len(pcm) == 0 || len(pcm)%2 != 0 {
		t.Fatalf("pcm length %d is not whole 16-bit frames", len(pcm))
	}
	// minimum clip is 200ms
	if frames := len(pcm) / 2; frames < SampleRate/5 {
		t.Fatalf("clip too short: %d frames", frames)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Synthesize(ctx, "x", ""); err == nil {
		t.Fatal("cancelled context should fail")
	}
}

func TestCachedSynthesizerServesFromDisk(t *testing.T) {
	dir := t.TempDir()
	inner := &fakeSynth{pcm: []byte{9, 9, 8, 8}}
	c, err := NewCachedSynthesizer(inner, dir, "mock")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		got, err := c.Synthesize(context.Background(), "same text", "en+m3")
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, inner.pcm) {
			t.Fatalf("got %v", got)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner synthesizer called %d times, want 1", inner.calls)
	}

	path := c.cachePath("same text", "en+m3")
	if filepath.Dir(path) != filepath.Join(dir, "mock", "en_m3") {
		t.Fatalf("unexpected cache path %s", path)
	}

	stats, err := c.GetCacheStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats["cached_files"].(int64) != 1 {
		t.Fatalf("stats = %v", stats)
	}

	if err := c.ClearCache(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("cache dir still exists: %v", err)
	}
}

func TestCachedSynthesizerDoesNotCacheFailures(t *testing.T) {
	inner := &fakeSynth{err: errors.New("boom")}
	c, err := NewCachedSynthesizer(inner, t.TempDir(), "mock")
	if err != nil {
		t.Fatal(err)
	}
	c.Synthesize(context.Background(), "t", "v")
	c.Synthesize(context.Background(), "t", "v")
	if inner.calls != 2 {
		t.Fatalf("failures must not be cached, calls = %d", inner.calls)
	}
}

func TestPCMFromWAVResamplesToMono24k(t *testing.T) {
	// 100ms of 16kHz stereo silence with one loud frame
	const rate = 16000
	frames := rate / 10
	samples := make([]int16, frames*2)
	samples[0], samples[1] = 32767, 32767

	got, err := pcmFromWAV(wavFile(t, rate, 2, samples))
	if err != nil {
		t.Fatal(err)
	}
	wantFrames := SampleRate / 10
	gotFrames := len(got) / 2
	if gotFrames < wantFrames-50 || gotFrames > wantFrames+50 {
		t.Fatalf("got %d frames, want about %d", gotFrames, wantFrames)
	}
}

func TestPCMFromWAVRejectsGarbage(t *testing.T) {
	if _, err := pcmFromWAV([]byte("not a wav file")); err == nil {
		t.Fatal("expected error")
	}
}

func TestSplitIntoChunks(t *testing.T) {
	got := splitIntoChunks("गंगाजल", 2)
	if diff := cmp.Diff([]string{"गं", "गा", "जल"}, got); diff != "" {
		t.Fatalf("chunks (-want +got):\n%s", diff)
	}
}

func TestParseESpeakVoices(t *testing.T) {
	out := "Pty Language       Age/Gender VoiceName          File                 Other Languages\n" +
		" 5  af              --/M      Afrikaans          gmw/af\n" +
		" 5  en-gb           --/M      English_(Great_Britain) gmw/en\n\n"
	if diff := cmp.Diff([]string{"Afrikaans", "English_(Great_Britain)"}, parseESpeakVoices(out)); diff != "" {
		t.Fatalf("voices (-want +got):\n%s", diff)
	}
}

func TestLanguageCode(t *testing.T) {
	tests := map[string]string{
		"en-US-Chirp3-HD-Charon": "en-US",
		"hi-IN-Wavenet-A":        "hi-IN",
		"plain":                  "en-US",
	}
	for voice, want := range tests {
		if got := languageCode(voice); got != want {
			t.Errorf("languageCode(%q) = %q, want %q", voice, got, want)
		}
	}
}

func TestNewSynthesizerRejectsUnknownEngine(t *testing.T) {
	_, _, err := NewSynthesizer(context.Background(), Config{Type: "sapi"})
	if !errors.Is(err, ErrUnsupportedEngine) {
		t.Fatalf("got %v", err)
	}
}

func TestNewSynthesizerMockWithCache(t *testing.T) {
	synth, engine, err := NewSynthesizer(context.Background(), Config{Type: "mock", CachePath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if engine != EngineTypeMock {
		t.Fatalf("engine = %s", engine)
	}
	if _, ok := synth.(CacheableSynthesizer); !ok {
		t.Fatal("cache path should produce a cacheable synthesizer")
	}
}

// wavFile builds a PCM16 WAV container.
func wavFile(t *testing.T, rate, channels int, samples []int16) []byte {
	t.Helper()
	var data bytes.Buffer
	for _, s := range samples {
		binary.Write(&data, binary.LittleEndian, s)
	}
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+data.Len()))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(rate))
	binary.Write(&b, binary.LittleEndian, uint32(rate*channels*2))
	binary.Write(&b, binary.LittleEndian, uint16(channels*2))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(data.Len()))
	b.Write(data.Bytes())
	return b.Bytes()
}

func TestDefaultVoicesFollowLanguage(t *testing.T) {
	for _, info := range story.Languages() {
		t.Run(string(info.Code), func(t *testing.T) {
			a, b := DefaultVoices(EngineTypeGoogleClassic, info.Code)
			if a != info.Locale+"-Chirp3-HD-Charon" || b != info.Locale+"-Chirp3-HD-Aoede" {
				t.Fatalf("google voices = %q, %q", a, b)
			}
			if got := languageCode(a); got != info.Locale {
				t.Fatalf("languageCode(%q) = %q, want %q", a, got, info.Locale)
			}

			a, b = DefaultVoices(EngineTypeESpeak, info.Code)
			if a != string(info.Code)+"+m3" || b != string(info.Code)+"+f3" {
				t.Fatalf("espeak voices = %q, %q", a, b)
			}
		})
	}
}

func TestConfigVoicesOverrideDefaults(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		wantA, wantB string
	}{
		{"defaults", Config{}, "ta-IN-Chirp3-HD-Charon", "ta-IN-Chirp3-HD-Aoede"},
		{"voice a only", Config{VoiceA: "custom-a"}, "custom-a", "ta-IN-Chirp3-HD-Aoede"},
		{"both", Config{VoiceA: "custom-a", VoiceB: "custom-b"}, "custom-a", "custom-b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := tt.cfg.Voices(EngineTypeGoogleClassic, story.Tamil)
			if a != tt.wantA || b != tt.wantB {
				t.Fatalf("Voices() = %q, %q, want %q, %q", a, b, tt.wantA, tt.wantB)
			}
		})
	}
}
