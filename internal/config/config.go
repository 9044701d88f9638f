package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
	TTS    TTSConfig    `mapstructure:"tts"`
	Audio  AudioConfig  `mapstructure:"audio"`
	Voice  VoiceConfig  `mapstructure:"voice"`
	Story  StoryConfig  `mapstructure:"story"`
	Log    LogConfig    `mapstructure:"log"`
}

type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	ScriptModel string  `mapstructure:"script_model"`
	ImageModel  string  `mapstructure:"image_model"`
	Temperature float32 `mapstructure:"temperature"`
}

type TTSConfig struct {
	Type      string  `mapstructure:"type"`
	Speed     float64 `mapstructure:"speed"`
	VoiceA    string  `mapstructure:"voice_a"`
	VoiceB    string  `mapstructure:"voice_b"`
	CachePath string  `mapstructure:"cache_path"`
}

type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
}

type VoiceConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	SampleRate int  `mapstructure:"sample_rate"`
}

type StoryConfig struct {
	Language string `mapstructure:"language"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.script_model", "gemini-2.5-flash")
	v.SetDefault("gemini.image_model", "gemini-2.5-flash-image")
	v.SetDefault("gemini.temperature", 0.7)

	v.SetDefault("tts.type", "auto") // Auto-select best engine
	v.SetDefault("tts.speed", 1.0)
	v.SetDefault("tts.voice_a", "")
	v.SetDefault("tts.voice_b", "")
	v.SetDefault("tts.cache_path", "")

	v.SetDefault("audio.sample_rate", 24000)
	v.SetDefault("voice.enabled", true)
	v.SetDefault("voice.sample_rate", 16000)
	v.SetDefault("story.language", "en")
	v.SetDefault("log.level", "info")
}

// Load reads .env, katha.yaml and KATHA_* environment variables into the
// global viper instance and returns the typed result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("failed to read .env")
	}
	return load(viper.GetViper(), "$HOME/.katha", ".")
}

func load(v *viper.Viper, paths ...string) (Config, error) {
	SetDefaults(v)

	v.SetConfigName("katha")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("katha")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini.api_key", "KATHA_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LogLevel parses the configured level, defaulting to info.
func (c Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
