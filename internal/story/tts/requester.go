package tts

import (
	"context"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"katha/internal/domain/story"
	"katha/internal/usage"
)

// Requester maps narrators to fixed voices and hides synthesis failures.
type Requester struct {
	synth  Synthesizer
	voices map[story.Speaker]string
	ledger *usage.Ledger
}

func NewRequester(synth Synthesizer, voiceA, voiceB string, ledger *usage.Ledger) *Requester {
	return &Requester{
		synth: synth,
		voices: map[story.Speaker]string{
			story.NarratorA: voiceA,
			story.NarratorB: voiceB,
		},
		ledger: ledger,
	}
}

func (r *Requester) Voice(speaker story.Speaker) string {
	if v, ok := r.voices[speaker]; ok {
		return v
	}
	return r.voices[story.NarratorA]
}

// Request returns PCM audio for text, or nil when synthesis failed. A nil
// result is final for the segment within its script generation.
func (r *Requester) Request(ctx context.Context, text string, speaker story.Speaker) []byte {
	voice := r.Voice(speaker)
	pcm, err := r.synth.Synthesize(ctx, text, voice)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"component": "tts",
			"speaker":   speaker,
			"voice":     voice,
		}).Warn("failed to generate speech")
		return nil
	}
	if len(pcm) == 0 {
		return nil
	}
	r.ledger.Record(voice, usage.KindAudio, utf8.RuneCountInString(text), 0)
	return pcm
}
