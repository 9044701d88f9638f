package tts

import (
	"context"
	"encoding/binary"
	"math"
	"strings"
	"time"
)

// MockSynthesizer renders a quiet tone whose length follows the reading time
// of the text. Useful when no speech engine is installed.
type MockSynthesizer struct {
	maxDuration time.Duration
}

func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{maxDuration: 5 * time.Second}
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Simulate reading time at 150 words per minute
	words := len(strings.Fields(text))
	duration := time.Duration(float64(words) / 150.0 * float64(time.Minute))
	if duration > m.maxDuration {
		duration = m.maxDuration
	}
	if duration < 200*time.Millisecond {
		duration = 200 * time.Millisecond
	}

	freq := 220.0
	if voice == "mock-high" {
		freq = 330.0
	}

	frames := int(duration.Seconds() * SampleRate)
	pcm := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		v := 0.2 * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(toInt16(v)))
	}
	return pcm, nil
}

func (m *MockSynthesizer) GetAvailableVoices(ctx context.Context) ([]string, error) {
	return []string{"mock-low", "mock-high"}, nil
}

func (m *MockSynthesizer) Close() error {
	return nil
}
