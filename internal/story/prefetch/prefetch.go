package prefetch

import (
	"context"

	"github.com/sirupsen/logrus"

	"katha/internal/domain/story"
)

// Speech produces audio for one segment. nil means the request failed.
type Speech interface {
	Request(ctx context.Context, text string, speaker story.Speaker) []byte
}

// Target receives prefetched audio. MergeAudio reports whether the result
// was applied; it must discard results for any generation but the current.
type Target interface {
	Generation() uint64
	MergeAudio(gen uint64, length, index int, audio []byte) bool
}

// Scheduler requests audio for every segment of a script, one at a time in
// order, and abandons the walk once its generation is superseded.
type Scheduler struct {
	speech Speech
	target Target
}

func NewScheduler(speech Speech, target Target) *Scheduler {
	return &Scheduler{speech: speech, target: target}
}

// Run blocks until every segment has been attempted, the generation goes
// stale, or ctx is cancelled. It returns the number of merged segments.
func (s *Scheduler) Run(ctx context.Context, script story.Script, gen uint64) int {
	log := logrus.WithFields(logrus.Fields{
		"component":  "prefetch",
		"generation": gen,
	})

	merged := 0
	for i, seg := range script.Segments() {
		if s.stale(ctx, gen) {
			log.WithField("index", i).Debug("prefetch abandoned")
			return merged
		}
		if seg.AudioState() != story.AudioPending {
			continue
		}

		audio := s.speech.Request(ctx, seg.Text, seg.Speaker)

		if s.stale(ctx, gen) {
			log.WithField("index", i).Debug("discarding audio for superseded script")
			return merged
		}
		if s.target.MergeAudio(gen, script.Len(), i, audio) {
			merged++
		}
	}

	log.WithField("merged", merged).Debug("prefetch finished")
	return merged
}

func (s *Scheduler) stale(ctx context.Context, gen uint64) bool {
	return ctx.Err() != nil || s.target.Generation() != gen
}
