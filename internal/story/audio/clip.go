package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/faiface/beep"
)

// SampleRate of every clip: synthesized speech is 24kHz mono.
const SampleRate beep.SampleRate = 24000

var (
	ErrEmptyClip = errors.New("audio clip is empty")
	ErrOddLength = errors.New("audio clip is not whole 16-bit samples")
)

// Clip is decoded mono audio ready for playback.
type Clip struct {
	samples []float64
}

// Decode converts 16-bit little-endian mono PCM into a clip.
func Decode(pcm []byte) (*Clip, error) {
	if len(pcm) == 0 {
		return nil, ErrEmptyClip
	}
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddLength, len(pcm))
	}
	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float64(v) / 32768.0
	}
	return &Clip{samples: samples}, nil
}

func (c *Clip) Len() int {
	return len(c.samples)
}

func (c *Clip) Duration() time.Duration {
	return SampleRate.D(len(c.samples))
}

// Streamer returns a fresh stereo streamer over the clip.
func (c *Clip) Streamer() beep.StreamSeeker {
	return &clipStreamer{samples: c.samples}
}

type clipStreamer struct {
	samples []float64
	pos     int
}

func (s *clipStreamer) Stream(out [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	for n < len(out) && s.pos < len(s.samples) {
		v := s.samples[s.pos]
		out[n][0], out[n][1] = v, v
		n++
		s.pos++
	}
	return n, true
}

func (s *clipStreamer) Err() error {
	return nil
}

func (s *clipStreamer) Len() int {
	return len(s.samples)
}

func (s *clipStreamer) Position() int {
	return s.pos
}

func (s *clipStreamer) Seek(p int) error {
	if p < 0 || p > len(s.samples) {
		return fmt.Errorf("seek %d out of range [0, %d]", p, len(s.samples))
	}
	s.pos = p
	return nil
}
