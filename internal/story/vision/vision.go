package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrNoImage = errors.New("no image in response")

// LoadingCaptions rotate while an illustration is generated.
var LoadingCaptions = []string{
	"Sarasvati is dipping her quill in the liquid moonlight...",
	"The colors of the cosmos are coalescing...",
	"Weaving the threads of time into a vision...",
	"Manifesting the divine thought into form...",
	"Summoning the memories of the ancient waters...",
}

type Image struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the image as an embeddable data URI.
func (i Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, base64.StdEncoding.EncodeToString(i.Data))
}

// Generator turns a prompt into an image.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Image, error)
}

// StylePrompt wraps a segment description in the illustration style.
func StylePrompt(prompt string) string {
	return fmt.Sprintf("A divine, mystical, high-quality oil painting style illustration of: %s. "+
		"Indian mythology art style, glowing, ethereal, detailed, masterpiece.", prompt)
}

// State of the most recent visualization.
type State struct {
	Loading bool
	Caption string
	Prompt  string
	Image   *Image
	Failed  bool
}

// Visualizer runs one illustration request at a time and keeps the result of
// the latest. A result from an older request never overwrites a newer one.
type Visualizer struct {
	gen Generator

	mu       sync.Mutex
	seq      uint64
	state    State
	onChange func()
}

func NewVisualizer(gen Generator) *Visualizer {
	return &Visualizer{gen: gen}
}

// OnChange registers fn to run after every state change, without locks held.
func (v *Visualizer) OnChange(fn func()) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

func (v *Visualizer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Visualize blocks until the image for prompt is generated or has failed.
func (v *Visualizer) Visualize(ctx context.Context, prompt string) {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.state = State{
		Loading: true,
		Caption: LoadingCaptions[rand.Intn(len(LoadingCaptions))],
		Prompt:  prompt,
	}
	v.mu.Unlock()
	v.changed()

	img, err := v.gen.Generate(ctx, prompt)
	if err != nil {
		logrus.WithError(err).WithField("component", "vision").Warn("failed to generate illustration")
	}

	v.mu.Lock()
	if seq != v.seq {
		v.mu.Unlock()
		return
	}
	v.state.Loading = false
	v.state.Image = img
	v.state.Failed = img == nil
	v.mu.Unlock()
	v.changed()
}

// Dismiss clears the current result.
func (v *Visualizer) Dismiss() {
	v.mu.Lock()
	v.seq++
	v.state = State{}
	v.mu.Unlock()
	v.changed()
}

func (v *Visualizer) changed() {
	v.mu.Lock()
	fn := v.onChange
	v.mu.Unlock()
	if fn != nil {
		fn()
	}
}
