package tts

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/texttospeech/apiv1"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

// chunkLimit is in runes. Indic scripts take three bytes per rune against the
// 5000 byte request limit.
const chunkLimit = 1600

type GoogleClassicSynthesizer struct {
	client *texttospeech.Client
	speed  float64
}

func newGoogleClassicSynthesizer(ctx context.Context, speed float64) (*GoogleClassicSynthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}
	return &GoogleClassicSynthesizer{client: client, speed: speed}, nil
}

func (g *GoogleClassicSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
		SampleRateHertz: SampleRate,
	}
	// Chirp voices often don't support speakingRate/pitch/SSML, skip them
	if !strings.Contains(strings.ToLower(voice), "chirp") && g.speed > 0 {
		audioCfg.SpeakingRate = g.speed
	}

	var pcm []byte
	chunks := splitIntoChunks(text, chunkLimit)
	for chunkIndex, chunk := range chunks {
		req := &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: languageCode(voice),
				Name:         voice,
			},
			AudioConfig: audioCfg,
		}
		resp, err := g.client.SynthesizeSpeech(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize chunk %d: %w", chunkIndex, err)
		}

		// LINEAR16 responses carry a WAV header.
		part, err := pcmFromWAV(resp.AudioContent)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunkIndex, err)
		}
		pcm = append(pcm, part...)
	}

	logrus.WithFields(logrus.Fields{
		"component": "tts",
		"voice":     voice,
		"chunks":    len(chunks),
		"bytes":     len(pcm),
	}).Debug("synthesized speech")
	return pcm, nil
}

func (g *GoogleClassicSynthesizer) GetAvailableVoices(ctx context.Context) ([]string, error) {
	resp, err := g.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, err
	}
	voices := []string{}
	for _, v := range resp.Voices {
		voices = append(voices, v.Name)
	}
	return voices, nil
}

func (g *GoogleClassicSynthesizer) Close() error {
	return g.client.Close()
}

// languageCode derives "en-US" from a voice name like "en-US-Chirp3-HD-Charon".
func languageCode(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	runes := []rune(text) // safe for UTF-8
	for i := 0; i < len(runes); i += limit {
		end := i + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
