package story

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange = errors.New("segment index out of range")
	ErrAlreadyResolved = errors.New("segment audio already resolved")
)

// Speaker identifies one of the two narrator personas.
type Speaker string

const (
	NarratorA Speaker = "Brahma"
	NarratorB Speaker = "Sarasvati"
)

// ParseSpeaker maps a remote speaker label onto a narrator. Anything that is not
// NarratorB is narrated by NarratorA.
func ParseSpeaker(s string) Speaker {
	if Speaker(s) == NarratorB {
		return NarratorB
	}
	return NarratorA
}

func (s Speaker) String() string {
	return string(s)
}

// AudioState is the lifecycle of a segment's synthesized speech.
type AudioState int

const (
	AudioPending AudioState = iota
	AudioReady
	AudioFailed
)

func (a AudioState) String() string {
	switch a {
	case AudioPending:
		return "pending"
	case AudioReady:
		return "ready"
	case AudioFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Segment is one narrator turn.
type Segment struct {
	Speaker    Speaker `json:"speaker"`
	Text       string  `json:"text"`
	VisualHint string  `json:"visualDescription"`

	// Audio holds 16-bit little-endian PCM, 24kHz mono.
	Audio       []byte `json:"-"`
	AudioFailed bool   `json:"-"`
}

func (s Segment) AudioState() AudioState {
	switch {
	case s.Audio != nil:
		return AudioReady
	case s.AudioFailed:
		return AudioFailed
	default:
		return AudioPending
	}
}

// Prompt returns the text used for illustrating the segment.
func (s Segment) Prompt() string {
	if s.VisualHint != "" {
		return s.VisualHint
	}
	return s.Text
}

// Resolve returns a copy of the segment with its audio settled. A nil or empty
// audio slice marks the segment as failed. Resolving twice is an error.
func (s Segment) Resolve(audio []byte) (Segment, error) {
	if s.AudioState() != AudioPending {
		return s, ErrAlreadyResolved
	}
	if len(audio) == 0 {
		s.AudioFailed = true
		return s, nil
	}
	s.Audio = audio
	return s, nil
}

// Script is an ordered, fixed-length sequence of segments. The zero value is an
// empty script. Scripts are values: every update produces a new Script and
// never touches the segments seen by earlier readers.
type Script struct {
	segments []Segment
}

func NewScript(segments []Segment) Script {
	cp := make([]Segment, len(segments))
	copy(cp, segments)
	return Script{segments: cp}
}

func (s Script) Len() int {
	return len(s.segments)
}

func (s Script) Empty() bool {
	return len(s.segments) == 0
}

// At returns the segment at index i.
func (s Script) At(i int) (Segment, bool) {
	if i < 0 || i >= len(s.segments) {
		return Segment{}, false
	}
	return s.segments[i], true
}

// Segments returns a copy of the segment list.
func (s Script) Segments() []Segment {
	cp := make([]Segment, len(s.segments))
	copy(cp, s.segments)
	return cp
}

// WithSegment returns a new script with segment i replaced.
func (s Script) WithSegment(i int, seg Segment) (Script, error) {
	if i < 0 || i >= len(s.segments) {
		return s, fmt.Errorf("replace segment %d of %d: %w", i, len(s.segments), ErrIndexOutOfRange)
	}
	cp := make([]Segment, len(s.segments))
	copy(cp, s.segments)
	cp[i] = seg
	return Script{segments: cp}, nil
}

// Resolve settles the audio of segment i, returning the updated script.
func (s Script) Resolve(i int, audio []byte) (Script, error) {
	seg, ok := s.At(i)
	if !ok {
		return s, fmt.Errorf("resolve segment %d of %d: %w", i, len(s.segments), ErrIndexOutOfRange)
	}
	resolved, err := seg.Resolve(audio)
	if err != nil {
		return s, fmt.Errorf("resolve segment %d: %w", i, err)
	}
	return s.WithSegment(i, resolved)
}
