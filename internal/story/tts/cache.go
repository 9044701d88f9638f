package tts

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// CachedSynthesizer stores synthesized PCM on disk keyed by text and voice.
type CachedSynthesizer struct {
	Synthesizer
	cacheRootDir string
	engine       string
}

func NewCachedSynthesizer(inner Synthesizer, cacheDir, engine string) (*CachedSynthesizer, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &CachedSynthesizer{Synthesizer: inner, cacheRootDir: cacheDir, engine: engine}, nil
}

func (c *CachedSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	path := c.cachePath(text, voice)
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		logrus.WithFields(logrus.Fields{"component": "tts", "path": path}).Debug("using cached audio")
		return data, nil
	}

	pcm, err := c.Synthesizer.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logrus.WithError(err).Warn("failed to create audio cache directory")
		return pcm, nil
	}
	if err := os.WriteFile(path, pcm, 0644); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("failed to cache audio")
	}
	return pcm, nil
}

// cachePath is <root>/<engine>/<voice>/<hash>.pcm
func (c *CachedSynthesizer) cachePath(text, voice string) string {
	contentHash := md5Sum(text + voice)[:16]
	return filepath.Join(c.cacheRootDir, c.engine, sanitizeName(voice), contentHash+".pcm")
}

// GetCacheStats returns cache statistics for the current engine
func (c *CachedSynthesizer) GetCacheStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalFiles int64
	var totalSize int64

	err := filepath.Walk(c.cacheRootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Continue walking despite errors
		}

		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".pcm") {
			totalFiles++
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	stats["cache_directory"] = c.cacheRootDir
	stats["engine"] = c.engine
	stats["cached_files"] = totalFiles
	stats["total_size_mb"] = float64(totalSize) / (1024 * 1024)
	return stats, nil
}

// ClearCache removes all cached files
func (c *CachedSynthesizer) ClearCache() error {
	return os.RemoveAll(c.cacheRootDir)
}

func md5Sum(s string) string {
	h := md5.New()
	io.WriteString(h, s)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func sanitizeName(s string) string {
	if s == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == '+' {
			return '_'
		}
		return r
	}, s)
}
