package nest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"katha/internal/cli/scheme/colours"
	"katha/internal/config"
	"katha/internal/domain/river"
	"katha/internal/domain/story"
	"katha/internal/events"
	"katha/internal/gemini"
	"katha/internal/story/audio"
	"katha/internal/story/playback"
	"katha/internal/story/script"
	"katha/internal/story/tts"
	"katha/internal/story/vision"
	"katha/internal/story/voice"
	"katha/internal/usage"
)

// App holds the cobra command handlers.
type App struct {
	cfg     config.Config
	catalog *river.Catalog
	// in is shared by the river picker and the story session so no
	// buffered input is lost between them.
	in *bufio.Reader
}

func NewApp(cfg config.Config) *App {
	return &App{cfg: cfg, catalog: river.NewCatalog(), in: bufio.NewReader(os.Stdin)}
}

func (a *App) ShowWelcome() {
	fmt.Println()
	colours.Title.Println("🪔 Welcome to Katha! 🪔")
	fmt.Println()
	colours.Info.Println("📚 Available commands:")
	fmt.Println("  • katha rivers       - Browse the sacred rivers")
	fmt.Println("  • katha tell [river] - Listen to a river's legend")
	fmt.Println("  • katha voices       - List the narrator voices")
	fmt.Println("  • katha cache        - Manage the speech cache")
	fmt.Println()
	colours.Prompt.Println("✨ Which river shall Brahma speak of today? ✨")
}

func (a *App) ListRivers(cmd *cobra.Command, args []string) {
	code, _ := cmd.Flags().GetString("language")

	fmt.Println()
	colours.Title.Println("🌊 The Sacred Rivers 🌊")
	fmt.Println()
	for i, r := range a.catalog.All() {
		fmt.Printf("  %d. ", i+1)
		colours.Title.Printf("%s", r.Name)
		colours.Subtle.Printf(" %s\n", r.SanskritName)
		fmt.Printf("     💡 %s\n", r.Description)
		colours.Info.Printf("     ID: %s\n", r.ID)
		if code != "" {
			for _, s := range river.Suggestions(r, story.ParseLanguage(code)) {
				colours.Hint.Printf("     ❓ %s\n", s)
			}
		}
		fmt.Println()
	}

	colours.Info.Println("🗣  Languages:")
	for _, l := range story.Languages() {
		fmt.Printf("  • %s  %s (%s)\n", l.Code, l.Name, l.NativeName)
	}
}

// Tell runs an interactive story session.
func (a *App) Tell(ctx context.Context, cmd *cobra.Command, args []string) error {
	r, err := a.selectRiver(args)
	if err != nil {
		return err
	}
	if r == nil {
		colours.Warning.Println("🙏 Maybe another time.")
		return nil
	}

	code, _ := cmd.Flags().GetString("language")
	if code == "" {
		code = a.cfg.Story.Language
	}
	if !story.Language(code).Valid() {
		logrus.WithField("language", code).Warn("unknown language, narrating in English")
	}
	lang := story.ParseLanguage(code)
	topic, _ := cmd.Flags().GetString("topic")

	ledger := usage.NewLedger()
	client, err := gemini.NewClient(ctx, a.cfg.Gemini.APIKey, ledger)
	if errors.Is(err, gemini.ErrMissingAPIKey) {
		logrus.Fatal("GEMINI_API_KEY is not set")
	}
	if err != nil {
		return err
	}
	defer client.Close()

	speech, err := a.speechRequester(ctx, ledger, lang)
	if err != nil {
		return err
	}
	defer speech.Close()

	backend := audio.NewSpeakerBackend(a.cfg.Audio.SampleRate, 0)
	defer backend.Close()
	session := audio.NewSession(backend)

	scripts := script.NewRequester(script.NewGeminiGenerator(client, a.cfg.Gemini.ScriptModel, a.cfg.Gemini.Temperature))
	vis := vision.NewVisualizer(vision.NewGeminiGenerator(client, a.cfg.Gemini.ImageModel))

	capture, closeCapture := a.voiceCapture(ctx)
	defer closeCapture()

	bus := events.NewBus(64)
	defer bus.Close()
	go func() {
		if err := bus.Serve(ctx, events.SinkFunc(logEvent)); err != nil {
			logrus.WithError(err).Warn("analytics sink stopped")
		}
	}()

	ctl := playback.New(scripts, speech, session, vis, playback.Options{
		Subject:  r.Name,
		Language: lang,
		Events:   bus,
	})
	defer ctl.Close()

	nest := New(ctl, vis, capture, Options{River: *r, Language: lang, Ledger: ledger, In: a.in})
	if topic != "" {
		err = nest.RunTopic(ctx, topic)
	} else {
		err = nest.Run(ctx)
	}
	PrintUsage(os.Stdout, ledger)
	return err
}

func (a *App) ListVoices(ctx context.Context, cmd *cobra.Command, args []string) error {
	ttsCfg := a.ttsConfig()
	if engine, _ := cmd.Flags().GetString("engine"); engine != "" {
		ttsCfg.Type = engine
	}
	code, _ := cmd.Flags().GetString("language")
	if code == "" {
		code = a.cfg.Story.Language
	}
	lang := story.ParseLanguage(code)

	synth, engine, err := tts.NewSynthesizer(ctx, ttsCfg)
	if err != nil {
		return err
	}
	defer synth.Close()

	voices, err := synth.GetAvailableVoices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}
	voiceA, voiceB := ttsCfg.Voices(engine, lang)

	fmt.Println()
	colours.Title.Printf("🎤 %s voices (%s)\n", engine, lang.Info().Name)
	colours.Brahma.Printf("  %s: %s\n", story.NarratorA, voiceA)
	colours.Sarasvati.Printf("  %s: %s\n", story.NarratorB, voiceB)
	fmt.Println()
	for _, v := range voices {
		fmt.Printf("  • %s\n", v)
	}
	colours.Success.Printf("✨ %d voices available\n", len(voices))

	fmt.Println()
	colours.Info.Println("🔧 Engines on this machine:")
	for _, e := range tts.GetAvailableEngines() {
		fmt.Printf("  • %s\n", e)
	}
	return nil
}

// AddCacheCommands registers the speech cache management commands.
func (a *App) AddCacheCommands(rootCmd *cobra.Command) {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "🗄️ Manage the speech cache",
		Long:  "Inspect or clear synthesized narration stored under tts.cache_path",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "📊 Show cache status",
		Run:   a.ShowCacheStatus,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "🧹 Remove all cached speech",
		Run:   a.ClearCache,
	}

	cacheCmd.AddCommand(statusCmd, clearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func (a *App) ShowCacheStatus(cmd *cobra.Command, args []string) {
	colours.Title.Println("📊 Speech Cache Status")
	cache, ok := a.cache(cmd.Context())
	if !ok {
		return
	}
	defer cache.Close()

	info, err := cache.GetCacheStats()
	if err != nil {
		colours.Error.Printf("❌ Failed to get cache info: %v\n", err)
		return
	}
	colours.Info.Printf("📁 Location: %s\n", info["cache_directory"])
	colours.Info.Printf("🎙  Engine: %s\n", info["engine"])
	colours.Info.Printf("📄 Files: %d\n", info["cached_files"].(int64))
	colours.Info.Printf("📏 Size: %.2f MB\n", info["total_size_mb"].(float64))
}

func (a *App) ClearCache(cmd *cobra.Command, args []string) {
	cache, ok := a.cache(cmd.Context())
	if !ok {
		return
	}
	defer cache.Close()

	if err := cache.ClearCache(); err != nil {
		colours.Error.Printf("❌ Failed to clear cache: %v\n", err)
		return
	}
	colours.Success.Println("✅ Speech cache cleared")
}

func (a *App) cache(ctx context.Context) (tts.CacheableSynthesizer, bool) {
	if a.cfg.TTS.CachePath == "" {
		colours.Warning.Println("❌ Speech cache is disabled")
		colours.Info.Println("💡 Set tts.cache_path in katha.yaml to enable it")
		return nil, false
	}
	synth, _, err := tts.NewSynthesizer(ctx, a.ttsConfig())
	if err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return nil, false
	}
	cache, ok := synth.(tts.CacheableSynthesizer)
	if !ok {
		synth.Close()
		return nil, false
	}
	return cache, true
}

type speechRequester struct {
	*tts.Requester
	synth tts.Synthesizer
}

func (s speechRequester) Close() error {
	return s.synth.Close()
}

func (a *App) speechRequester(ctx context.Context, ledger *usage.Ledger, lang story.Language) (speechRequester, error) {
	ttsCfg := a.ttsConfig()
	synth, engine, err := tts.NewSynthesizer(ctx, ttsCfg)
	if err != nil {
		return speechRequester{}, fmt.Errorf("failed to create speech engine: %w", err)
	}
	voiceA, voiceB := ttsCfg.Voices(engine, lang)
	logrus.WithFields(logrus.Fields{
		"engine":  engine,
		"voice_a": voiceA,
		"voice_b": voiceB,
	}).Debug("speech engine ready")
	return speechRequester{Requester: tts.NewRequester(synth, voiceA, voiceB, ledger), synth: synth}, nil
}

func (a *App) ttsConfig() tts.Config {
	return tts.Config{
		Type:      a.cfg.TTS.Type,
		Speed:     a.cfg.TTS.Speed,
		VoiceA:    a.cfg.TTS.VoiceA,
		VoiceB:    a.cfg.TTS.VoiceB,
		CachePath: a.cfg.TTS.CachePath,
	}
}

func (a *App) voiceCapture(ctx context.Context) (*voice.Capture, func()) {
	if !a.cfg.Voice.Enabled {
		return voice.NewCapture(nil), func() {}
	}
	mic := voice.NewMicrophone()
	rec, err := voice.NewCloudRecognizer(ctx, mic, a.cfg.Voice.SampleRate)
	if err != nil {
		logrus.WithError(err).Warn("voice input unavailable")
		return voice.NewCapture(nil), func() {}
	}
	return voice.NewCapture(rec), func() {
		rec.Close()
		mic.Close()
	}
}

func (a *App) selectRiver(args []string) (*river.River, error) {
	if len(args) > 0 {
		r, err := a.catalog.Find(args[0])
		if err != nil {
			return nil, err
		}
		return &r, nil
	}

	rivers := a.catalog.All()
	fmt.Println()
	colours.Title.Println("🌊 Choose a Sacred River 🌊")
	fmt.Println()
	for i, r := range rivers {
		fmt.Printf("%d. ", i+1)
		colours.Title.Printf("%s", r.Name)
		colours.Subtle.Printf(" %s\n", r.SanskritName)
	}
	fmt.Println()
	colours.Prompt.Print("🌟 Enter the number of the river (or 'q' to quit): ")

	input, _ := a.in.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "q" || input == "quit" {
		return nil, nil
	}
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > len(rivers) {
		return nil, fmt.Errorf("invalid selection %q", input)
	}
	return &rivers[choice-1], nil
}

func logEvent(_ context.Context, e events.Event) error {
	fields := logrus.Fields{
		"component": "analytics",
		"event":     e.Type,
		"session":   e.Session,
	}
	for k, v := range e.Params {
		fields[k] = v
	}
	logrus.WithFields(fields).Debug("event")
	return nil
}
