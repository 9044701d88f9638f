// internal/story/tts/tts.go
package tts

import (
	"context"

	"katha/internal/domain/story"
)

// SampleRate is the rate of every PCM clip a Synthesizer returns.
const SampleRate = 24000

// Config selects the engine. VoiceA and VoiceB, when set, override the
// narrator voices for every language.
type Config struct {
	Type      string
	Speed     float64
	VoiceA    string
	VoiceB    string
	CachePath string
}

// Voices returns the configured narrator voices, filling gaps with the
// engine's defaults for lang.
func (c Config) Voices(engine EngineType, lang story.Language) (voiceA, voiceB string) {
	voiceA, voiceB = DefaultVoices(engine, lang)
	if c.VoiceA != "" {
		voiceA = c.VoiceA
	}
	if c.VoiceB != "" {
		voiceB = c.VoiceB
	}
	return voiceA, voiceB
}

// Synthesizer turns text into 16-bit little-endian mono PCM at SampleRate.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
	GetAvailableVoices(ctx context.Context) ([]string, error)
	Close() error
}

// CacheableSynthesizer extends Synthesizer with cache management capabilities
type CacheableSynthesizer interface {
	Synthesizer
	GetCacheStats() (map[string]interface{}, error)
	ClearCache() error
}
