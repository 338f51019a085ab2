package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"beespeak/internal/config"
	"beespeak/internal/domain"
	"beespeak/internal/storage/memory"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"DATABASE_URL", "NATS_URL", "BEESPEAK_METRICS_ADDR", "BEESPEAK_VOCABULARY_FILE",
		"BEESPEAK_CORRECTIONS_FILE", "BEESPEAK_CORRECTIONS_WATCH", "BEESPEAK_PHOTO_DIR",
	} {
		t.Setenv(key, "")
	}
	return home
}

func TestBuildSuccess(t *testing.T) {
	isolate(t)
	t.Setenv("DEEPGRAM_API_KEY", "test-key")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := Build(ctx, noopSink{}, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer services.Close()

	if services.Controller == nil || services.Records == nil || services.Metrics == nil {
		t.Fatalf("expected controller, records and metrics")
	}
	if _, ok := services.Store.(*memory.Store); !ok {
		t.Fatalf("expected in-memory store without DATABASE_URL, got %T", services.Store)
	}
	if len(services.Vocabulary.Commands) == 0 {
		t.Fatalf("expected default vocabulary")
	}
}

func TestBuildLoadsCorrectionsAndVocabulary(t *testing.T) {
	home := isolate(t)
	rules := filepath.Join(home, "fix.rules")
	if err := os.WriteFile(rules, []byte("queens in => queen seen\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	vocab := filepath.Join(home, "vocab.yaml")
	if err := os.WriteFile(vocab, []byte("commands:\n  - id: save\n    phrases: [\"done here\"]\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv("BEESPEAK_CORRECTIONS_FILE", rules)
	t.Setenv("BEESPEAK_VOCABULARY_FILE", vocab)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := Build(ctx, noopSink{}, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer services.Close()

	if services.Corrections.Len() != 1 {
		t.Fatalf("expected one correction rule, got %d", services.Corrections.Len())
	}
	if command, ok := services.Vocabulary.MatchCommand("all done here"); !ok || command != domain.CommandSave {
		t.Fatalf("expected custom vocabulary, got %q ok=%t", command, ok)
	}
}

func TestBuildFailsOnInvalidCorrections(t *testing.T) {
	home := isolate(t)
	rules := filepath.Join(home, "bad.rules")
	if err := os.WriteFile(rules, []byte("not a valid rule\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv("BEESPEAK_CORRECTIONS_FILE", rules)

	if _, err := Build(context.Background(), noopSink{}, nil); err == nil {
		t.Fatalf("expected build error due to invalid corrections")
	}
}

func TestBuildRestoresRemindersAcrossRestarts(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	isolate(t)
	t.Setenv("DATABASE_URL", databaseURL)
	t.Setenv("BEESPEAK_CORRECTIONS_WATCH", "false")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := Build(ctx, noopSink{}, nil)
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	apiary, err := first.Records.CreateApiary(ctx, domain.Apiary{Name: "Restart " + t.Name()})
	if err != nil {
		t.Fatalf("create apiary: %v", err)
	}
	t.Cleanup(func() {
		store, closeStore, err := OpenStore(context.Background(), config.StorageConfig{DatabaseURL: databaseURL}, nil)
		if err == nil {
			_ = store.DeleteApiary(context.Background(), apiary.ID)
			_ = closeStore()
		}
	})
	hive, err := first.Records.CreateHive(ctx, domain.Hive{ApiaryID: apiary.ID, Name: "Hive 1"})
	if err != nil {
		t.Fatalf("create hive: %v", err)
	}
	due := time.Now().Add(14 * 24 * time.Hour)
	treatment, err := first.Records.AddTreatment(ctx, domain.Treatment{HiveID: hive.ID, Product: "Apivar", NextCheckDate: &due})
	if err != nil {
		t.Fatalf("add treatment: %v", err)
	}
	if treatment.NotificationID == nil {
		t.Fatalf("expected a scheduled reminder")
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Build(ctx, noopSink{}, nil)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	defer second.Close()

	got, err := second.Records.GetTreatment(ctx, treatment.ID)
	if err != nil {
		t.Fatalf("get treatment: %v", err)
	}
	if got.NotificationID == nil || *got.NotificationID == *treatment.NotificationID {
		t.Fatalf("expected reminder rescheduled under a new id, got %v", got.NotificationID)
	}
}

func TestOpenStoreWithoutDatabase(t *testing.T) {
	t.Parallel()

	store, closeStore, err := OpenStore(context.Background(), config.StorageConfig{}, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

type noopSink struct{}

func (noopSink) SessionStateChanged(domain.SessionState, domain.SessionStateReason) {}

func (noopSink) PartialTranscript(string) {}

func (noopSink) UtteranceProcessed(string, string, domain.InspectionFlags) {}

func (noopSink) LifecycleCommand(domain.CommandID) {}

func (noopSink) SessionError(domain.ErrorCode, string) {}

func (noopSink) ReminderDue(domain.Notification) {}
