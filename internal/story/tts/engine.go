package tts

import (
	"context"
	"errors"
	"fmt"
	"os"

	"katha/internal/domain/story"
)

var ErrUnsupportedEngine = errors.New("unsupported tts engine")

type EngineType string

const (
	EngineTypeMock          EngineType = "mock"
	EngineTypeESpeak        EngineType = "espeak"
	EngineTypeGoogleClassic EngineType = "googleclassic"
	EngineTypeAuto          EngineType = "auto" // Automatically choose best for platform
)

func (e EngineType) String() string {
	return string(e)
}

// NewSynthesizer creates a synthesizer for the configured engine, wrapped in a
// disk cache when a cache path is set.
func NewSynthesizer(ctx context.Context, config Config) (Synthesizer, EngineType, error) {
	engine := EngineType(config.Type)
	if engine == EngineTypeAuto || engine == "" {
		engine = getBestEngineForPlatform()
	}

	var (
		synth Synthesizer
		err   error
	)
	switch engine {
	case EngineTypeMock:
		synth = NewMockSynthesizer()

	case EngineTypeGoogleClassic:
		synth, err = newGoogleClassicSynthesizer(ctx, config.Speed)

	case EngineTypeESpeak:
		synth, err = newESpeakSynthesizer(config.Speed)

	default:
		return nil, engine, fmt.Errorf("%w: %s", ErrUnsupportedEngine, config.Type)
	}
	if err != nil {
		return nil, engine, err
	}

	if config.CachePath != "" {
		cached, err := NewCachedSynthesizer(synth, config.CachePath, engine.String())
		if err != nil {
			synth.Close()
			return nil, engine, err
		}
		synth = cached
	}
	return synth, engine, nil
}

// DefaultVoices returns the narrator voices for lang used when none are
// configured. Cloud voices are named after the language's locale.
func DefaultVoices(engine EngineType, lang story.Language) (voiceA, voiceB string) {
	info := lang.Info()
	switch engine {
	case EngineTypeGoogleClassic:
		return info.Locale + "-Chirp3-HD-Charon", info.Locale + "-Chirp3-HD-Aoede"
	case EngineTypeESpeak:
		return string(info.Code) + "+m3", string(info.Code) + "+f3"
	default:
		return "mock-low", "mock-high"
	}
}

// getBestEngineForPlatform returns the recommended engine for the current platform
func getBestEngineForPlatform() EngineType {
	if hasGoogleCredentials() {
		return EngineTypeGoogleClassic
	}
	if _, err := findESpeakExecutable(); err == nil {
		return EngineTypeESpeak
	}
	return EngineTypeMock
}

// GetAvailableEngines returns engines available on the current platform
func GetAvailableEngines() []EngineType {
	engines := []EngineType{EngineTypeMock}

	if _, err := findESpeakExecutable(); err == nil {
		engines = append(engines, EngineTypeESpeak)
	}
	if hasGoogleCredentials() {
		engines = append(engines, EngineTypeGoogleClassic)
	}
	return engines
}

// hasGoogleCredentials checks if Google Cloud credentials are available
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}
