package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"katha/internal/cli/scheme/colours"
	"katha/internal/config"
	"katha/internal/story/nest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	logrus.SetLevel(cfg.LogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := nest.NewApp(cfg)

	rootCmd := &cobra.Command{
		Use:   "katha",
		Short: "🌊 Divine legends of the sacred rivers",
		Long: `
┌──────────────────────────────────────────┐
│  🌊 Katha: Tales of the Sacred Rivers 🪔  │
│  Brahma and Sarasvati tell the legends   │
└──────────────────────────────────────────┘

Pick a holy river and listen as Brahma and Sarasvati narrate its legend,
then ask them anything about it.
		`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "Enable debug logging")

	riversCmd := &cobra.Command{
		Use:   "rivers",
		Short: "📋 List the sacred rivers",
		Long:  "Display every river a legend can be told about",
		Run:   app.ListRivers,
	}

	tellCmd := &cobra.Command{
		Use:   "tell [river-id]",
		Short: "📖 Listen to a river's legend",
		Long:  "Tell the legend of a river by its ID, or choose one from a list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Tell(ctx, cmd, args)
		},
	}

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 List synthesizer voices",
		Long:  "Show the voices offered by the configured speech engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ListVoices(ctx, cmd, args)
		},
	}

	riversCmd.Flags().StringP("language", "l", "", "Show question suggestions in this language")
	tellCmd.Flags().StringP("language", "l", "", "Narration language (en, hi, mr, kn, ta, ml)")
	tellCmd.Flags().StringP("topic", "t", "", "Start with a question instead of the main legend")
	voicesCmd.Flags().StringP("engine", "e", "", "Speech engine to query (googleclassic, espeak, mock)")
	voicesCmd.Flags().StringP("language", "l", "", "Show the narrator voices for this language")

	rootCmd.AddCommand(riversCmd, tellCmd, voicesCmd)
	app.AddCacheCommands(rootCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
	if ctx.Err() != nil {
		fmt.Println("\n" + colours.Warning.Sprint("🙏 Until the rivers call again."))
	}
}
