package audio

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Backend starts playback of a clip. done is called once when the clip plays
// to its natural end, never after the handle was stopped.
type Backend interface {
	Play(clip *Clip, done func()) (Handle, error)
}

// Handle controls one playback. Stop must be idempotent.
type Handle interface {
	Stop()
}

// Session owns at most one playback handle at a time.
type Session struct {
	mu       sync.Mutex
	backend  Backend
	handle   Handle
	handleID uint64
	playing  bool

	onFinished func()
}

func NewSession(backend Backend) *Session {
	return &Session{backend: backend}
}

// OnFinished registers fn to run after a playback ends naturally. fn runs on
// its own goroutine without any session lock held.
func (s *Session) OnFinished(fn func()) {
	s.mu.Lock()
	s.onFinished = fn
	s.mu.Unlock()
}

// Start tears down any current playback, then decodes and plays pcm. Errors
// leave the session stopped.
func (s *Session) Start(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	clip, err := Decode(pcm)
	if err != nil {
		logrus.WithError(err).WithField("component", "audio").Warn("failed to decode audio")
		return fmt.Errorf("decode: %w", err)
	}

	s.handleID++
	id := s.handleID
	handle, err := s.backend.Play(clip, func() {
		go s.finished(id)
	})
	if err != nil {
		logrus.WithError(err).WithField("component", "audio").Warn("failed to start playback")
		return fmt.Errorf("play: %w", err)
	}

	s.handle = handle
	s.playing = true
	logrus.WithFields(logrus.Fields{
		"component": "audio",
		"duration":  clip.Duration(),
	}).Debug("playback started")
	return nil
}

// Stop halts the current playback, if any. Always safe to call.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.handle != nil {
		s.handle.Stop()
		s.handle = nil
	}
	s.playing = false
}

func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Session) finished(id uint64) {
	s.mu.Lock()
	if id != s.handleID || s.handle == nil {
		s.mu.Unlock()
		return
	}
	s.handle = nil
	s.playing = false
	fn := s.onFinished
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}
