// Cross-platform eSpeak implementation
package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ESpeakSynthesizer renders speech offline with eSpeak/eSpeak-NG.
type ESpeakSynthesizer struct {
	path  string
	speed float64
}

func newESpeakSynthesizer(speed float64) (*ESpeakSynthesizer, error) {
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}
	if speed <= 0 {
		speed = 1.0
	}
	if speed > 3.0 {
		return nil, fmt.Errorf("speed must be between 0.1 and 3.0")
	}
	return &ESpeakSynthesizer{path: espeakPath, speed: speed}, nil
}

func findESpeakExecutable() (string, error) {
	candidates := []string{"espeak-ng", "espeak"}

	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

func (e *ESpeakSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.path, e.args(text, voice)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("espeak failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return pcmFromWAV(out)
}

func (e *ESpeakSynthesizer) args(text, voice string) []string {
	args := []string{"--stdout"}

	if voice != "" && voice != "default" {
		args = append(args, "-v", voice)
	}

	// words per minute, default is 175
	args = append(args, "-s", strconv.Itoa(int(175*e.speed)))

	return append(args, text)
}

func (e *ESpeakSynthesizer) GetAvailableVoices(ctx context.Context) ([]string, error) {
	output, err := exec.CommandContext(ctx, e.path, "--voices").Output()
	if err != nil {
		return nil, err
	}
	return parseESpeakVoices(string(output)), nil
}

func (e *ESpeakSynthesizer) Close() error {
	return nil
}

func parseESpeakVoices(output string) []string {
	lines := strings.Split(output, "\n")
	voices := make([]string, 0)

	for i, line := range lines {
		// Skip header line
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		// Parse voice line: Pty Language Age/Gender VoiceName          File          Other Languages
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			voices = append(voices, fields[3])
		}
	}

	return voices
}
