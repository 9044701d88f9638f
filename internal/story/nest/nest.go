package nest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"katha/internal/cli/scheme/colours"
	"katha/internal/domain/river"
	"katha/internal/domain/story"
	"katha/internal/story/playback"
	"katha/internal/story/vision"
	"katha/internal/story/voice"
	"katha/internal/usage"
)

// Nest is the interactive terminal front-end for one river's story.
type Nest struct {
	ctl     *playback.Controller
	vis     *vision.Visualizer
	capture *voice.Capture
	ledger  *usage.Ledger

	river river.River
	lang  story.Language

	in       *bufio.Reader
	out      io.Writer
	imageDir string
}

type Options struct {
	River    river.River
	Language story.Language
	Ledger   *usage.Ledger
	In       io.Reader
	Out      io.Writer
	// ImageDir receives generated illustrations. Defaults to the temp dir.
	ImageDir string
}

func New(ctl *playback.Controller, vis *vision.Visualizer, capture *voice.Capture, opts Options) *Nest {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ImageDir == "" {
		opts.ImageDir = os.TempDir()
	}
	return &Nest{
		ctl:      ctl,
		vis:      vis,
		capture:  capture,
		ledger:   opts.Ledger,
		river:    opts.River,
		lang:     opts.Language,
		in:       bufio.NewReader(opts.In),
		out:      opts.Out,
		imageDir: opts.ImageDir,
	}
}

// Run tells the main legend and handles commands until the user quits, input
// ends or ctx is cancelled.
func (n *Nest) Run(ctx context.Context) error {
	return n.run(ctx, func() { n.ctl.LoadStory(ctx, "") })
}

// RunTopic is Run starting from a question instead of the main legend.
func (n *Nest) RunTopic(ctx context.Context, topic string) error {
	return n.run(ctx, func() {
		if err := n.ctl.Branch(ctx, topic); err != nil {
			n.ctl.LoadStory(ctx, "")
		}
	})
}

func (n *Nest) run(ctx context.Context, start func()) error {
	colours.Title.Fprintf(n.out, "\n🌊 %s (%s)\n", n.river.Name, n.river.SanskritName)
	colours.Subtle.Fprintf(n.out, "   %s\n\n", n.river.Description)

	go n.watch(ctx)

	n.load(ctx, start)
	for {
		if ctx.Err() != nil {
			return nil
		}
		state := n.ctl.State()
		if state.Phase == playback.PhaseAwaitingBranch {
			if quit := n.ask(ctx); quit {
				return nil
			}
			continue
		}

		n.help()
		line, err := n.readLine()
		if err != nil {
			return nil
		}
		switch strings.ToLower(line) {
		case "", "n", "next":
			n.ctl.Next()
			n.render()
		case "p", "prev":
			n.ctl.Prev()
			n.render()
		case "l", "listen":
			n.ctl.ToggleAudio()
			n.audioStatus()
		case "v", "vision":
			n.visualize(ctx)
		case "r", "replay":
			n.load(ctx, func() { n.ctl.Replay(ctx) })
		case "a", "ask":
			n.ctl.OpenPrompt()
		case "u", "usage":
			PrintUsage(n.out, n.ledger)
		case "q", "quit":
			return nil
		default:
			colours.Warning.Fprintln(n.out, "ℹ️  Unknown command")
		}
	}
}

func (n *Nest) help() {
	colours.Hint.Fprint(n.out, "\n[Enter/n] next  [p] prev  [l] listen  [v] vision  [a] ask  [r] replay  [u] usage  [q] quit\n> ")
}

func (n *Nest) readLine() (string, error) {
	line, err := n.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// load runs a blocking story load while showing progress.
func (n *Nest) load(ctx context.Context, fn func()) {
	colours.Info.Fprintln(n.out, "✨ Brahma is recalling the legend...")
	fn()
	if ctx.Err() != nil {
		return
	}
	n.render()
}

func (n *Nest) render() {
	state := n.ctl.State()
	seg, ok := state.Segment()
	if !ok {
		if state.Phase == playback.PhaseViewing {
			colours.Error.Fprintln(n.out, "🌑 The story could not be told. Press 'r' to try again.")
		}
		return
	}
	fmt.Fprintln(n.out)
	colours.Subtle.Fprintf(n.out, "[%d/%d] ", state.Position+1, state.Script.Len())
	colours.Narrator(seg.Speaker).Fprintf(n.out, "%s: ", seg.Speaker)
	fmt.Fprintln(n.out, seg.Text)
	if seg.VisualHint != "" {
		colours.Hint.Fprintf(n.out, "   🖼  %s\n", seg.VisualHint)
	}
	n.audioStatus()
	if state.Last() {
		colours.Hint.Fprintln(n.out, "   🙏 the legend ends here, press Enter to ask a question")
	}
}

func (n *Nest) audioStatus() {
	state := n.ctl.State()
	seg, ok := state.Segment()
	switch {
	case !ok:
	case state.AudioPlaying:
		colours.Success.Fprintln(n.out, "   🔊 speaking")
	case state.AudioLoading:
		colours.Info.Fprintln(n.out, "   ⏳ preparing voice")
	case seg.AudioState() == story.AudioFailed:
		colours.Warning.Fprintln(n.out, "   🔇 no audio for this verse")
	default:
		colours.Hint.Fprintln(n.out, "   🔈 paused")
	}
}

// watch reports when audio that was being waited for starts playing.
func (n *Nest) watch(ctx context.Context) {
	waiting := -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.ctl.Changes():
		}
		state := n.ctl.State()
		switch {
		case state.AudioLoading:
			waiting = state.Position
		case waiting != -1 && waiting == state.Position && state.AudioPlaying:
			colours.Success.Fprintln(n.out, "\n   🔊 speaking")
			waiting = -1
		case !state.AudioLoading:
			waiting = -1
		}
	}
}

// ask shows the question prompt. It reports whether the user quit.
func (n *Nest) ask(ctx context.Context) bool {
	suggestions := river.Suggestions(n.river, n.lang)

	fmt.Fprintln(n.out)
	colours.Title.Fprintln(n.out, "🙏 What would you like to ask Brahma and Sarasvati?")
	for i, s := range suggestions {
		fmt.Fprintf(n.out, "  %d. %s\n", i+1, s)
	}
	options := "type a question or pick a number"
	if n.capture.Supported() {
		options += ", [m] speak"
	}
	colours.Hint.Fprintf(n.out, "(%s, [r] replay, Enter to go back, [q] quit)\n", options)

	for {
		colours.Prompt.Fprint(n.out, "❓ ")
		line, err := n.readLine()
		if err != nil {
			return true
		}

		input := playback.InputText
		switch strings.ToLower(line) {
		case "":
			n.ctl.DismissPrompt()
			n.render()
			return false
		case "q", "quit":
			return true
		case "r", "replay":
			n.load(ctx, func() { n.ctl.Replay(ctx) })
			return false
		case "m", "mic":
			heard, ok := n.listen(ctx)
			if !ok {
				continue
			}
			line, input = heard, playback.InputVoice
		default:
			if i, err := strconv.Atoi(line); err == nil && i >= 1 && i <= len(suggestions) {
				line = suggestions[i-1]
			}
		}

		n.load(ctx, func() {
			if err := n.ctl.BranchWithInput(ctx, line, input); err != nil {
				colours.Warning.Fprintf(n.out, "⚠️  %v\n", err)
			}
		})
		return false
	}
}

func (n *Nest) listen(ctx context.Context) (string, bool) {
	colours.Info.Fprintln(n.out, "🎙  Listening...")
	text, err := n.capture.Transcribe(ctx, n.lang, func(partial string) {
		colours.Hint.Fprintf(n.out, "   … %s\n", partial)
	})
	if err != nil {
		colours.Warning.Fprintf(n.out, "⚠️  %s\n", voiceStatus(err))
		return "", false
	}
	colours.Success.Fprintf(n.out, "   “%s”\n", text)
	return text, true
}

func voiceStatus(err error) string {
	switch {
	case errors.Is(err, voice.ErrNotSupported):
		return "Voice input is not supported here. Please type your question."
	case errors.Is(err, voice.ErrNoSpeech):
		return "No speech detected. Please try again."
	case errors.Is(err, voice.ErrPermissionDenied):
		return "Microphone access was denied."
	default:
		return "Error listening. Please type your question."
	}
}

func (n *Nest) visualize(ctx context.Context) {
	done := make(chan error, 1)
	go func() {
		err := n.ctl.Visualize(ctx)
		if errors.Is(err, playback.ErrNoSegment) {
			n.vis.Visualize(ctx, n.river.ImagePrompt)
			err = nil
		}
		done <- err
	}()

	ticker := time.NewTicker(4 * time.Second)
	defer ticker.Stop()
	shown := ""
	for {
		if s := n.vis.State(); s.Loading && s.Caption != shown {
			shown = s.Caption
			colours.Info.Fprintf(n.out, "🎨 %s\n", shown)
		}
		select {
		case err := <-done:
			if err != nil {
				colours.Warning.Fprintf(n.out, "⚠️  %v\n", err)
				return
			}
			n.showImage()
			return
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (n *Nest) showImage() {
	s := n.vis.State()
	if s.Failed || s.Image == nil {
		colours.Error.Fprintln(n.out, "🌫  Failed to generate vision.")
		return
	}
	ext := ".png"
	if exts, err := mime.ExtensionsByType(s.Image.MIMEType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	path := filepath.Join(n.imageDir, "katha-"+uuid.NewString()+ext)
	if err := os.WriteFile(path, s.Image.Data, 0o644); err != nil {
		logrus.WithError(err).WithField("component", "nest").Warn("failed to save illustration")
		colours.Error.Fprintln(n.out, "🌫  Failed to save vision.")
		return
	}
	colours.Success.Fprintf(n.out, "🖼  Vision saved to %s\n", path)
}

// PrintUsage writes the per-kind totals and every recorded call.
func PrintUsage(out io.Writer, ledger *usage.Ledger) {
	records := ledger.Snapshot()
	colours.Title.Fprintln(out, "\n📊 Usage")
	if len(records) == 0 {
		colours.Hint.Fprintln(out, "   no remote calls recorded")
		return
	}

	totals := ledger.Totals()
	kinds := make([]string, 0, len(totals))
	for k := range totals {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		t := totals[usage.Kind(k)]
		fmt.Fprintf(out, "   %-6s %3d calls  %7d in  %7d out\n", k, t.Calls, t.InputTokens, t.OutputTokens)
	}
	for _, r := range records {
		colours.Hint.Fprintf(out, "   %s  %-28s %-5s %d/%d\n",
			r.Timestamp.Format("15:04:05"), r.Model, r.Kind, r.InputTokens, r.OutputTokens)
	}
}
