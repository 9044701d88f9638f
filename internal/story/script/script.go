package script

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"katha/internal/domain/story"
)

// Request describes the script to generate. An empty Topic asks for the
// default legend of the subject.
type Request struct {
	Subject  string
	Language story.Language
	Topic    string
}

// Generator produces raw dialogue segments from a remote service.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]story.Segment, error)
}

// Fallback is the script played when generation fails.
func Fallback() story.Script {
	return story.NewScript([]story.Segment{{
		Speaker:    story.NarratorA,
		Text:       "The connection to Brahmalok is faint. Please try again.",
		VisualHint: "Dark cosmos",
	}})
}

// Requester turns generation calls into scripts. It never fails and never
// returns an empty script.
type Requester struct {
	gen Generator
}

func NewRequester(gen Generator) *Requester {
	return &Requester{gen: gen}
}

func (r *Requester) Request(ctx context.Context, subject string, lang story.Language, topic string) story.Script {
	req := Request{
		Subject:  subject,
		Language: lang.Info().Code,
		Topic:    strings.TrimSpace(topic),
	}
	log := logrus.WithFields(logrus.Fields{
		"component": "script",
		"subject":   req.Subject,
		"language":  req.Language,
	})

	segments, err := r.gen.Generate(ctx, req)
	if err != nil {
		log.WithError(err).Warn("failed to generate story script")
		return Fallback()
	}

	cleaned := sanitize(segments)
	if len(cleaned) == 0 {
		log.WithField("received", len(segments)).Warn("story script had no usable segments")
		return Fallback()
	}
	log.WithField("segments", len(cleaned)).Debug("story script received")
	return story.NewScript(cleaned)
}

func sanitize(segments []story.Segment) []story.Segment {
	out := make([]story.Segment, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		out = append(out, story.Segment{
			Speaker:    story.ParseSpeaker(string(seg.Speaker)),
			Text:       text,
			VisualHint: strings.TrimSpace(seg.VisualHint),
		})
	}
	return out
}
