package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// SpeakerBackend plays clips on the default output device. Clips are
// resampled when the device runs at a different rate.
type SpeakerBackend struct {
	once    sync.Once
	initErr error
	rate    beep.SampleRate
	buffer  time.Duration
}

func NewSpeakerBackend(rate int, buffer time.Duration) *SpeakerBackend {
	if rate <= 0 {
		rate = int(SampleRate)
	}
	if buffer <= 0 {
		buffer = time.Second / 10
	}
	return &SpeakerBackend{rate: beep.SampleRate(rate), buffer: buffer}
}

func (b *SpeakerBackend) init() error {
	b.once.Do(func() {
		if err := speaker.Init(b.rate, b.rate.N(b.buffer)); err != nil {
			b.initErr = fmt.Errorf("failed to initialise speaker: %w", err)
		}
	})
	return b.initErr
}

func (b *SpeakerBackend) Play(clip *Clip, done func()) (Handle, error) {
	if err := b.init(); err != nil {
		return nil, err
	}

	var streamer beep.Streamer = clip.Streamer()
	if b.rate != SampleRate {
		streamer = beep.Resample(4, SampleRate, b.rate, streamer)
	}
	h := &speakerHandle{ctrl: &beep.Ctrl{Streamer: streamer}}
	speaker.Play(beep.Seq(h.ctrl, beep.Callback(func() {
		if !h.stopped.Load() {
			done()
		}
	})))
	return h, nil
}

func (b *SpeakerBackend) Close() {
	if b.init() == nil {
		speaker.Close()
	}
}

type speakerHandle struct {
	ctrl    *beep.Ctrl
	stopped atomic.Bool
}

// Stop detaches the clip so the mixer drains and drops it on its next pass.
func (h *speakerHandle) Stop() {
	if h.stopped.Swap(true) {
		return
	}
	speaker.Lock()
	h.ctrl.Streamer = nil
	speaker.Unlock()
}
