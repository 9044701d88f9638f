package events

import "time"

type Type string

const (
	StoryStart    Type = "story_start"
	StoryProgress Type = "story_progress"
	StoryComplete Type = "story_complete"
	AudioPlay     Type = "audio_play"
	ImageGenerate Type = "generate_image"
	QuestionAsked Type = "ask_question"
)

type Event struct {
	Type    Type
	Session string
	Time    time.Time
	Params  map[string]any
}

// Publisher receives lifecycle events. Implementations must not block.
type Publisher interface {
	Publish(e Event)
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
