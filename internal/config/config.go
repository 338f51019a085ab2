package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the app and the CLI.
type Config struct {
	Deepgram    DeepgramConfig
	Audio       AudioConfig
	Voice       VoiceConfig
	Corrections CorrectionsConfig
	Session     SessionConfig
	Storage     StorageConfig
	Metrics     MetricsConfig
	Events      EventsConfig
	Log         LogConfig
}

type DeepgramConfig struct {
	APIKey        string
	APIBaseURL    string
	Model         string
	Language      string
	SmartFormat   bool
	EndpointingMS int
	KeywordBoost  int
	KeepAlive     time.Duration
}

// AudioConfig leaves InputFormat and InputDevice empty to use the platform default.
type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type VoiceConfig struct {
	VocabularyPath string
}

type CorrectionsConfig struct {
	Path           string
	IterationLimit int
	Watch          bool
}

type SessionConfig struct {
	ChunkSize      int
	StreamingGrace time.Duration
}

type StorageConfig struct {
	// DatabaseURL selects Postgres; empty keeps records in memory.
	DatabaseURL string
	PhotoDir    string
}

type MetricsConfig struct {
	Addr string
}

type EventsConfig struct {
	NATSURL string
	Subject string
}

type LogConfig struct {
	Level string
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}
	base := filepath.Join(home, ".config", "beespeak")

	vocabularyPath := strings.TrimSpace(os.Getenv("BEESPEAK_VOCABULARY_FILE"))
	if vocabularyPath == "" {
		vocabularyPath = firstExisting(filepath.Join(base, "vocabulary.yaml"), filepath.Join(base, "vocabulary.yml"))
	}

	cfg := Config{
		Deepgram: DeepgramConfig{
			APIKey:        strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:    envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:         envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:      strings.TrimSpace(os.Getenv("DEEPGRAM_LANGUAGE")),
			SmartFormat:   envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
			EndpointingMS: envOrDefaultInt("DEEPGRAM_ENDPOINTING_MS", 0),
			KeywordBoost:  envOrDefaultInt("DEEPGRAM_KEYWORD_BOOST", 2),
			KeepAlive:     time.Duration(envOrDefaultInt("DEEPGRAM_KEEPALIVE_MS", 5000)) * time.Millisecond,
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("BEESPEAK_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     strings.TrimSpace(os.Getenv("BEESPEAK_AUDIO_INPUT_FORMAT")),
			InputDevice: firstNonEmpty(
				os.Getenv("BEESPEAK_AUDIO_INPUT_DEVICE"),
				os.Getenv("DEEPGRAM_PULSE_SOURCE"),
			),
			SampleRate: envOrDefaultInt("BEESPEAK_SAMPLE_RATE", 16000),
			Channels:   envOrDefaultInt("BEESPEAK_CHANNELS", 1),
		},
		Voice: VoiceConfig{
			VocabularyPath: vocabularyPath,
		},
		Corrections: CorrectionsConfig{
			Path:           envOrDefault("BEESPEAK_CORRECTIONS_FILE", filepath.Join(base, "corrections.rules")),
			IterationLimit: envOrDefaultInt("BEESPEAK_RULE_ITERATION_LIMIT", 30),
			Watch:          envOrDefaultBool("BEESPEAK_CORRECTIONS_WATCH", true),
		},
		Session: SessionConfig{
			ChunkSize:      envOrDefaultInt("BEESPEAK_AUDIO_CHUNK_SIZE", 4096),
			StreamingGrace: time.Duration(firstNonNegativeInt("BEESPEAK_STREAMING_GRACE_MS", "DEEPGRAM_STREAMING_GRACE_MS", 1000)) * time.Millisecond,
		},
		Storage: StorageConfig{
			DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
			PhotoDir:    envOrDefault("BEESPEAK_PHOTO_DIR", filepath.Join(base, "photos")),
		},
		Metrics: MetricsConfig{
			Addr: strings.TrimSpace(os.Getenv("BEESPEAK_METRICS_ADDR")),
		},
		Events: EventsConfig{
			NATSURL: strings.TrimSpace(os.Getenv("NATS_URL")),
			Subject: envOrDefault("BEESPEAK_NATS_SUBJECT", "beespeak.inspection.saved"),
		},
		Log: LogConfig{
			Level: envOrDefault("BEESPEAK_LOG_LEVEL", "info"),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Corrections.IterationLimit <= 0 {
		cfg.Corrections.IterationLimit = 30
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	if cfg.Deepgram.EndpointingMS < 0 {
		cfg.Deepgram.EndpointingMS = 0
	}
	if cfg.Deepgram.KeywordBoost <= 0 {
		cfg.Deepgram.KeywordBoost = 2
	}

	return cfg, nil
}

// SlogLevel parses Level, falling back to info.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func firstNonNegativeInt(primary string, secondary string, fallback int) int {
	for _, key := range []string{primary, secondary} {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}
