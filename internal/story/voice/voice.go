package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"katha/internal/domain/story"
)

var (
	ErrNotSupported     = errors.New("voice input is not supported on this device")
	ErrNoSpeech         = errors.New("no speech detected")
	ErrPermissionDenied = errors.New("microphone permission denied")
)

// Handlers receive recognition callbacks. OnEnd is called exactly once, last.
type Handlers struct {
	OnPartial  func(text string)
	OnFinal    func(text string)
	OnNoSpeech func()
	OnError    func(err error)
	OnEnd      func()
}

// Recognizer is a platform speech-to-text engine. Start returns once
// recognition is running; results arrive through the handlers.
type Recognizer interface {
	Start(ctx context.Context, locale string, h Handlers) error
	Stop() error
}

type EventKind int

const (
	EventPartial EventKind = iota
	EventFinal
	EventNoSpeech
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventPartial:
		return "partial"
	case EventFinal:
		return "final"
	case EventNoSpeech:
		return "no-speech"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Capture runs at most one listening session. Starting a new session stops
// the active one first.
type Capture struct {
	rec Recognizer

	mu     sync.Mutex
	active *session
}

type session struct {
	mu     sync.Mutex
	events chan Event
	closed bool
}

func (s *session) emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- e:
	default:
		if e.Kind != EventPartial {
			logrus.WithField("component", "voice").Warnf("dropped %s transcript event", e.Kind)
		}
	}
}

func (s *session) ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// NewCapture wraps rec. A nil recognizer makes every start fail with
// ErrNotSupported.
func NewCapture(rec Recognizer) *Capture {
	return &Capture{rec: rec}
}

func (c *Capture) Supported() bool {
	return c.rec != nil
}

// StartListening begins recognition in the language's locale. The returned
// channel is closed when the session ends.
func (c *Capture) StartListening(ctx context.Context, lang story.Language) (<-chan Event, error) {
	if c.rec == nil {
		return nil, ErrNotSupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()

	s := &session{events: make(chan Event, 32)}
	h := Handlers{
		OnPartial:  func(text string) { s.emit(Event{Kind: EventPartial, Text: text}) },
		OnFinal:    func(text string) { s.emit(Event{Kind: EventFinal, Text: text}) },
		OnNoSpeech: func() { s.emit(Event{Kind: EventNoSpeech, Err: ErrNoSpeech}) },
		OnError:    func(err error) { s.emit(Event{Kind: EventError, Err: err}) },
		OnEnd:      s.close,
	}

	locale := lang.Info().Locale
	if err := c.rec.Start(ctx, locale, h); err != nil {
		return nil, fmt.Errorf("start recognition (%s): %w", locale, err)
	}
	c.active = s
	logrus.WithFields(logrus.Fields{"component": "voice", "locale": locale}).Debug("listening")
	return s.events, nil
}

// Stop ends the active session, if any.
func (c *Capture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Capture) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && !c.active.ended()
}

func (c *Capture) stopLocked() {
	if c.active == nil {
		return
	}
	if err := c.rec.Stop(); err != nil {
		logrus.WithError(err).WithField("component", "voice").Warn("failed to stop recognition")
	}
	c.active.close()
	c.active = nil
}

// Transcribe listens until the first final transcript and stops. It returns
// ErrNoSpeech when nothing was heard.
func (c *Capture) Transcribe(ctx context.Context, lang story.Language, partial func(string)) (string, error) {
	events, err := c.StartListening(ctx, lang)
	if err != nil {
		return "", err
	}
	defer c.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case e, ok := <-events:
			if !ok {
				return "", ErrNoSpeech
			}
			switch e.Kind {
			case EventPartial:
				if partial != nil {
					partial(e.Text)
				}
			case EventFinal:
				return e.Text, nil
			case EventNoSpeech, EventError:
				return "", e.Err
			}
		}
	}
}
