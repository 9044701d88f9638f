package playback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"katha/internal/domain/story"
	"katha/internal/events"
	"katha/internal/story/prefetch"
)

const defaultTopic = "Main Legend"

var (
	ErrEmptyTopic = errors.New("topic is empty")
	ErrNoSegment  = errors.New("no segment is shown")
)

// ScriptRequester produces a script. It never fails and never returns an
// empty script for a healthy generator.
type ScriptRequester interface {
	Request(ctx context.Context, subject string, lang story.Language, topic string) story.Script
}

// Player owns the single active audio playback.
type Player interface {
	Start(pcm []byte) error
	Stop()
	Playing() bool
	OnFinished(fn func())
}

// Visualizer illustrates a prompt, tracking its own state.
type Visualizer interface {
	Visualize(ctx context.Context, prompt string)
}

type Options struct {
	// Subject is the river name the story is told about.
	Subject  string
	Language story.Language
	// Session identifies the run in analytics events. A random id is used
	// when empty.
	Session string
	Events  events.Publisher
}

// Controller is the playback state machine. Every operation runs its local
// transitions under one mutex; remote calls happen with the mutex released
// and their results are applied only if the generation is still live.
type Controller struct {
	scripts ScriptRequester
	speech  prefetch.Speech
	player  Player
	vision  Visualizer
	events  events.Publisher

	subject string
	lang    story.Language
	session string

	mu           sync.Mutex
	generation   uint64
	phase        Phase
	script       story.Script
	position     int
	topic        string
	loading      bool
	audioLoading bool
	waitIndex    int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	changes chan struct{}
	log     *logrus.Entry
}

func New(scripts ScriptRequester, speech prefetch.Speech, player Player, vision Visualizer, opts Options) *Controller {
	if opts.Session == "" {
		opts.Session = uuid.NewString()
	}
	if opts.Events == nil {
		opts.Events = events.Discard
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		scripts:   scripts,
		speech:    speech,
		player:    player,
		vision:    vision,
		events:    opts.Events,
		subject:   opts.Subject,
		lang:      opts.Language.Info().Code,
		session:   opts.Session,
		phase:     PhaseLoading,
		position:  NoPosition,
		waitIndex: NoPosition,
		ctx:       ctx,
		cancel:    cancel,
		changes:   make(chan struct{}, 1),
		log: logrus.WithFields(logrus.Fields{
			"component": "playback",
			"session":   opts.Session,
		}),
	}
	player.OnFinished(c.notify)
	return c
}

// Changes signals after state changes. Signals coalesce; read State for the
// current values.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Phase:         c.phase,
		Script:        c.script,
		Position:      c.position,
		Topic:         c.topic,
		LoadingScript: c.loading,
		AudioLoading:  c.audioLoading,
		AudioPlaying:  c.player.Playing(),
		Generation:    c.generation,
	}
}

// LoadStory replaces the script with a freshly generated one and blocks until
// it arrives. A load superseded by a later one returns without touching state.
func (c *Controller) LoadStory(ctx context.Context, topic string) {
	topic = strings.TrimSpace(topic)

	c.mu.Lock()
	c.stopAudioLocked()
	c.generation++
	gen := c.generation
	c.phase = PhaseLoading
	c.loading = true
	c.script = story.Script{}
	c.position = NoPosition
	c.topic = topic
	c.mu.Unlock()
	c.notify()

	label := topic
	if label == "" {
		label = defaultTopic
	}
	c.publish(events.StoryStart, map[string]any{"topic": label})
	log := c.log.WithField("generation", gen)
	log.WithField("topic", label).Info("loading story")

	script := c.scripts.Request(ctx, c.subject, c.lang, topic)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Debug("discarding superseded script")
		return
	}
	c.script = script
	c.loading = false
	c.phase = PhaseViewing
	if script.Empty() {
		c.mu.Unlock()
		c.notify()
		log.Warn("received an empty script")
		return
	}
	c.enterLocked(0)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		prefetch.NewScheduler(c.speech, c).Run(c.ctx, script, gen)
	}()
	c.mu.Unlock()
	c.notify()
	log.WithField("segments", script.Len()).Info("story loaded")
}

// Replay regenerates the default story.
func (c *Controller) Replay(ctx context.Context) {
	c.LoadStory(ctx, "")
}

// Branch restarts the story around topic.
func (c *Controller) Branch(ctx context.Context, topic string) error {
	return c.BranchWithInput(ctx, topic, InputText)
}

func (c *Controller) BranchWithInput(ctx context.Context, topic string, input InputType) error {
	if strings.TrimSpace(topic) == "" {
		return ErrEmptyTopic
	}
	c.publish(events.QuestionAsked, map[string]any{"input_type": string(input)})
	c.LoadStory(ctx, topic)
	return nil
}

// Next advances one segment, or opens the branch prompt after the last one.
func (c *Controller) Next() {
	c.mu.Lock()
	if c.phase != PhaseViewing || c.position == NoPosition {
		c.mu.Unlock()
		return
	}
	if c.position < c.script.Len()-1 {
		c.enterLocked(c.position + 1)
		c.mu.Unlock()
		c.notify()
		return
	}
	c.stopAudioLocked()
	c.phase = PhaseAwaitingBranch
	total := c.script.Len()
	c.mu.Unlock()
	c.notify()
	c.publish(events.StoryComplete, map[string]any{"total_slides": total})
}

// Prev steps back one segment. From the branch prompt it returns to the
// story.
func (c *Controller) Prev() {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	switch c.phase {
	case PhaseViewing:
		if c.position > 0 {
			c.enterLocked(c.position - 1)
		}
	case PhaseAwaitingBranch:
		c.enterLocked(max(c.position-1, 0))
	}
}

// OpenPrompt stops audio and shows the branch prompt before the story ends.
func (c *Controller) OpenPrompt() {
	c.mu.Lock()
	if c.phase != PhaseViewing || c.position == NoPosition {
		c.mu.Unlock()
		return
	}
	c.stopAudioLocked()
	c.phase = PhaseAwaitingBranch
	c.mu.Unlock()
	c.notify()
}

// DismissPrompt closes the branch prompt and returns to the current segment.
func (c *Controller) DismissPrompt() {
	c.mu.Lock()
	if c.phase != PhaseAwaitingBranch {
		c.mu.Unlock()
		return
	}
	c.enterLocked(c.position)
	c.mu.Unlock()
	c.notify()
}

// ToggleAudio stops playback, or starts the current segment's audio. While
// the audio is still pending it waits for it instead.
func (c *Controller) ToggleAudio() {
	c.mu.Lock()
	defer c.notify()
	defer c.mu.Unlock()

	if c.player.Playing() {
		c.stopAudioLocked()
		return
	}
	if c.phase != PhaseViewing {
		return
	}
	c.playLocked(c.position)
}

// Visualize illustrates the segment shown at call time. It blocks until the
// image is done and does not interact with playback.
func (c *Controller) Visualize(ctx context.Context) error {
	c.mu.Lock()
	seg, ok := c.script.At(c.position)
	c.mu.Unlock()
	if !ok {
		return ErrNoSegment
	}
	c.publish(events.ImageGenerate, nil)
	c.vision.Visualize(ctx, seg.Prompt())
	return nil
}

// Close stops audio and abandons all background work.
func (c *Controller) Close() {
	c.mu.Lock()
	c.generation++
	c.stopAudioLocked()
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

// Wait blocks until background prefetching has stopped.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Generation implements prefetch.Target.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// MergeAudio implements prefetch.Target. It swaps in a script with one
// segment resolved and starts that segment's audio if the view is waiting
// on it.
func (c *Controller) MergeAudio(gen uint64, length, index int, audio []byte) bool {
	c.mu.Lock()
	if gen != c.generation || c.script.Len() != length {
		c.mu.Unlock()
		return false
	}
	next, err := c.script.Resolve(index, audio)
	if err != nil {
		c.mu.Unlock()
		c.log.WithError(err).Debug("audio merge skipped")
		return false
	}
	c.script = next

	if c.audioLoading && c.phase == PhaseViewing && c.position == index && c.waitIndex == index {
		c.audioLoading = false
		c.waitIndex = NoPosition
		c.playLocked(index)
	}
	c.mu.Unlock()
	c.notify()
	return true
}

// enterLocked shows segment i and tries to play its audio.
func (c *Controller) enterLocked(i int) {
	c.stopAudioLocked()
	c.phase = PhaseViewing
	c.position = i
	c.playLocked(i)
	c.publish(events.StoryProgress, map[string]any{
		"slide_index":  i,
		"total_slides": c.script.Len(),
	})
}

func (c *Controller) playLocked(i int) {
	seg, ok := c.script.At(i)
	if !ok {
		return
	}
	switch seg.AudioState() {
	case story.AudioReady:
		c.audioLoading = false
		c.waitIndex = NoPosition
		if err := c.player.Start(seg.Audio); err != nil {
			return
		}
		c.publish(events.AudioPlay, map[string]any{"speaker": seg.Speaker.String()})
	case story.AudioPending:
		c.player.Stop()
		c.audioLoading = true
		c.waitIndex = i
	case story.AudioFailed:
		c.audioLoading = false
		c.waitIndex = NoPosition
	}
}

func (c *Controller) stopAudioLocked() {
	c.player.Stop()
	c.audioLoading = false
	c.waitIndex = NoPosition
}

func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// publish may run under the mutex; Publisher implementations never block.
func (c *Controller) publish(t events.Type, params map[string]any) {
	c.events.Publish(c.event(t, params))
}

func (c *Controller) event(t events.Type, params map[string]any) events.Event {
	p := map[string]any{"river": c.subject}
	for k, v := range params {
		p[k] = v
	}
	return events.Event{Type: t, Session: c.session, Time: time.Now(), Params: p}
}
