package playback

import "katha/internal/domain/story"

// NoPosition marks that no segment is shown.
const NoPosition = -1

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseViewing
	PhaseAwaitingBranch
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseViewing:
		return "viewing"
	case PhaseAwaitingBranch:
		return "awaiting-branch"
	default:
		return "unknown"
	}
}

// InputType records how a branch topic was entered.
type InputType string

const (
	InputText  InputType = "text"
	InputVoice InputType = "voice"
)

// State is a snapshot of the controller.
type State struct {
	Phase         Phase
	Script        story.Script
	Position      int
	Topic         string
	LoadingScript bool
	AudioLoading  bool
	AudioPlaying  bool
	Generation    uint64
}

// Segment returns the segment at the current position.
func (s State) Segment() (story.Segment, bool) {
	if s.Position == NoPosition {
		return story.Segment{}, false
	}
	return s.Script.At(s.Position)
}

// Last reports whether the current segment is the final one.
func (s State) Last() bool {
	return s.Position != NoPosition && s.Position == s.Script.Len()-1
}
