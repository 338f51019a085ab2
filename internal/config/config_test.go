package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"DEEPGRAM_API_KEY", "DEEPGRAM_API_BASE", "DEEPGRAM_MODEL", "DEEPGRAM_LANGUAGE",
	"DEEPGRAM_SMART_FORMAT", "DEEPGRAM_ENDPOINTING_MS", "DEEPGRAM_KEYWORD_BOOST",
	"DEEPGRAM_KEEPALIVE_MS", "DEEPGRAM_PULSE_SOURCE", "DEEPGRAM_STREAMING_GRACE_MS",
	"BEESPEAK_FFMPEG_COMMAND", "BEESPEAK_AUDIO_INPUT_FORMAT", "BEESPEAK_AUDIO_INPUT_DEVICE",
	"BEESPEAK_SAMPLE_RATE", "BEESPEAK_CHANNELS", "BEESPEAK_VOCABULARY_FILE",
	"BEESPEAK_CORRECTIONS_FILE", "BEESPEAK_RULE_ITERATION_LIMIT", "BEESPEAK_CORRECTIONS_WATCH",
	"BEESPEAK_AUDIO_CHUNK_SIZE", "BEESPEAK_STREAMING_GRACE_MS", "DATABASE_URL",
	"BEESPEAK_PHOTO_DIR", "BEESPEAK_METRICS_ADDR", "NATS_URL", "BEESPEAK_NATS_SUBJECT",
	"BEESPEAK_LOG_LEVEL",
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	base := filepath.Join(home, ".config", "beespeak")
	if cfg.Voice.VocabularyPath != filepath.Join(base, "vocabulary.yaml") {
		t.Fatalf("unexpected vocabulary path: %q", cfg.Voice.VocabularyPath)
	}
	if cfg.Corrections.Path != filepath.Join(base, "corrections.rules") || !cfg.Corrections.Watch {
		t.Fatalf("unexpected corrections config: %+v", cfg.Corrections)
	}
	if cfg.Storage.PhotoDir != filepath.Join(base, "photos") || cfg.Storage.DatabaseURL != "" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Audio.InputFormat != "" || cfg.Audio.InputDevice != "" {
		t.Fatalf("expected platform default input, got %+v", cfg.Audio)
	}
	if cfg.Deepgram.KeywordBoost != 2 || cfg.Deepgram.KeepAlive != 5*time.Second {
		t.Fatalf("unexpected deepgram config: %+v", cfg.Deepgram)
	}
	if cfg.Events.Subject != "beespeak.inspection.saved" || cfg.Events.NATSURL != "" {
		t.Fatalf("unexpected events config: %+v", cfg.Events)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Fatalf("unexpected log level: %v", cfg.Log.SlogLevel())
	}
}

func TestLoadVocabularyFallbackOrder(t *testing.T) {
	home := isolate(t)
	base := filepath.Join(home, ".config", "beespeak")
	yml := filepath.Join(base, "vocabulary.yml")

	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(yml, []byte("commands: []\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Voice.VocabularyPath != yml {
		t.Fatalf("expected .yml fallback, got %q", cfg.Voice.VocabularyPath)
	}

	yaml := filepath.Join(base, "vocabulary.yaml")
	if err := os.WriteFile(yaml, []byte("commands: []\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Voice.VocabularyPath != yaml {
		t.Fatalf("expected .yaml priority, got %q", cfg.Voice.VocabularyPath)
	}
}

func TestLoadRespectsOverrides(t *testing.T) {
	home := isolate(t)
	rules := filepath.Join(home, "my.rules")

	t.Setenv("DEEPGRAM_API_KEY", "test-key")
	t.Setenv("DEEPGRAM_API_BASE", "https://example.com/v1")
	t.Setenv("DEEPGRAM_MODEL", "nova-3")
	t.Setenv("DEEPGRAM_LANGUAGE", "sl")
	t.Setenv("DEEPGRAM_SMART_FORMAT", "false")
	t.Setenv("DEEPGRAM_ENDPOINTING_MS", "300")
	t.Setenv("DEEPGRAM_KEYWORD_BOOST", "3")
	t.Setenv("BEESPEAK_FFMPEG_COMMAND", "my-ffmpeg")
	t.Setenv("BEESPEAK_AUDIO_INPUT_FORMAT", "alsa")
	t.Setenv("DEEPGRAM_PULSE_SOURCE", "pulse-src")
	t.Setenv("BEESPEAK_AUDIO_INPUT_DEVICE", "mic0")
	t.Setenv("BEESPEAK_SAMPLE_RATE", "22050")
	t.Setenv("BEESPEAK_CHANNELS", "2")
	t.Setenv("BEESPEAK_VOCABULARY_FILE", "/etc/beespeak/vocab.yaml")
	t.Setenv("BEESPEAK_CORRECTIONS_FILE", rules)
	t.Setenv("BEESPEAK_RULE_ITERATION_LIMIT", "42")
	t.Setenv("BEESPEAK_CORRECTIONS_WATCH", "off")
	t.Setenv("BEESPEAK_AUDIO_CHUNK_SIZE", "512")
	t.Setenv("DEEPGRAM_STREAMING_GRACE_MS", "50")
	t.Setenv("BEESPEAK_STREAMING_GRACE_MS", "25")
	t.Setenv("DATABASE_URL", "postgres://bee@localhost/bees")
	t.Setenv("BEESPEAK_PHOTO_DIR", "/var/lib/beespeak/photos")
	t.Setenv("BEESPEAK_METRICS_ADDR", ":9464")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("BEESPEAK_NATS_SUBJECT", "apiary.saved")
	t.Setenv("BEESPEAK_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Deepgram.APIKey != "test-key" || cfg.Deepgram.APIBaseURL != "https://example.com/v1" {
		t.Fatalf("unexpected deepgram config: %+v", cfg.Deepgram)
	}
	if cfg.Deepgram.Model != "nova-3" || cfg.Deepgram.Language != "sl" || cfg.Deepgram.SmartFormat {
		t.Fatalf("unexpected deepgram model/language/smart format: %+v", cfg.Deepgram)
	}
	if cfg.Deepgram.EndpointingMS != 300 || cfg.Deepgram.KeywordBoost != 3 {
		t.Fatalf("unexpected deepgram tuning: %+v", cfg.Deepgram)
	}
	if cfg.Audio.RecorderCommand != "my-ffmpeg" || cfg.Audio.InputFormat != "alsa" || cfg.Audio.InputDevice != "mic0" {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Audio.SampleRate != 22050 || cfg.Audio.Channels != 2 {
		t.Fatalf("unexpected sample/channels: %+v", cfg.Audio)
	}
	if cfg.Voice.VocabularyPath != "/etc/beespeak/vocab.yaml" {
		t.Fatalf("unexpected vocabulary path: %q", cfg.Voice.VocabularyPath)
	}
	if cfg.Corrections.Path != rules || cfg.Corrections.IterationLimit != 42 || cfg.Corrections.Watch {
		t.Fatalf("unexpected corrections config: %+v", cfg.Corrections)
	}
	if cfg.Session.ChunkSize != 512 || cfg.Session.StreamingGrace != 25*time.Millisecond {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Storage.DatabaseURL != "postgres://bee@localhost/bees" || cfg.Storage.PhotoDir != "/var/lib/beespeak/photos" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Metrics.Addr != ":9464" || cfg.Events.NATSURL != "nats://localhost:4222" || cfg.Events.Subject != "apiary.saved" {
		t.Fatalf("unexpected metrics/events config: %+v %+v", cfg.Metrics, cfg.Events)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Fatalf("unexpected log level: %v", cfg.Log.SlogLevel())
	}
}

func TestLoadInvalidNumericValuesFallback(t *testing.T) {
	isolate(t)
	t.Setenv("BEESPEAK_SAMPLE_RATE", "bad")
	t.Setenv("BEESPEAK_CHANNELS", "-1")
	t.Setenv("BEESPEAK_RULE_ITERATION_LIMIT", "0")
	t.Setenv("BEESPEAK_AUDIO_CHUNK_SIZE", "5")
	t.Setenv("BEESPEAK_STREAMING_GRACE_MS", "bad")
	t.Setenv("DEEPGRAM_SMART_FORMAT", "not-bool")
	t.Setenv("DEEPGRAM_ENDPOINTING_MS", "-10")
	t.Setenv("BEESPEAK_LOG_LEVEL", "loud")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected default sample rate, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Fatalf("expected default channels, got %d", cfg.Audio.Channels)
	}
	if cfg.Corrections.IterationLimit != 30 {
		t.Fatalf("expected default iteration limit, got %d", cfg.Corrections.IterationLimit)
	}
	if cfg.Session.ChunkSize != 4096 {
		t.Fatalf("expected chunk size fallback, got %d", cfg.Session.ChunkSize)
	}
	if cfg.Session.StreamingGrace != time.Second {
		t.Fatalf("expected default grace, got %s", cfg.Session.StreamingGrace)
	}
	if !cfg.Deepgram.SmartFormat {
		t.Fatalf("expected default smart format true")
	}
	if cfg.Deepgram.EndpointingMS != 0 {
		t.Fatalf("expected endpointing disabled, got %d", cfg.Deepgram.EndpointingMS)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected info fallback, got %v", cfg.Log.SlogLevel())
	}
}
