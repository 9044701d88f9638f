package colours

import (
	"github.com/fatih/color"

	"katha/internal/domain/story"
)

// Color scheme for the CLI
var (
	Title   = color.New(color.FgCyan, color.Bold)
	Subtle  = color.New(color.FgMagenta)
	Prompt  = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Success = color.New(color.FgGreen)
	Info    = color.New(color.FgBlue)
	Warning = color.New(color.FgYellow)
	Hint    = color.New(color.Faint, color.Italic)

	Brahma    = color.New(color.FgHiYellow, color.Bold)
	Sarasvati = color.New(color.FgHiCyan, color.Bold)
)

// Narrator returns the colour a speaker's lines are printed in.
func Narrator(s story.Speaker) *color.Color {
	if s == story.NarratorB {
		return Sarasvati
	}
	return Brahma
}
