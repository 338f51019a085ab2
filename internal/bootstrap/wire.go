package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"beespeak/internal/audio"
	"beespeak/internal/config"
	"beespeak/internal/corrections"
	"beespeak/internal/domain"
	"beespeak/internal/events"
	"beespeak/internal/metrics"
	"beespeak/internal/photos"
	"beespeak/internal/ports"
	"beespeak/internal/providers/deepgram"
	"beespeak/internal/reminders"
	"beespeak/internal/speech"
	"beespeak/internal/storage"
	"beespeak/internal/storage/memory"
	"beespeak/internal/usecase"
	"beespeak/internal/voice"
)

// Sink receives UI-facing events and fired reminders.
type Sink interface {
	ports.EventSink
	ports.Notifier
}

// Services is the assembled runtime graph.
type Services struct {
	Controller  *usecase.InspectionController
	Records     *usecase.RecordsService
	Store       ports.Store
	Vocabulary  voice.Vocabulary
	Corrections *corrections.Engine
	Metrics     *metrics.Metrics
	Config      config.Config

	closers []func() error
}

// Close releases every resource Build acquired, in reverse order.
func (s Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build wires all backend dependencies for the current runtime. Background
// workers (corrections watcher, metrics endpoint) stop when ctx is done.
func Build(ctx context.Context, sink Sink, logger *slog.Logger) (Services, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	vocab, err := voice.LoadVocabulary(cfg.Voice.VocabularyPath)
	if err != nil {
		return Services{}, err
	}

	engine, err := corrections.Load(cfg.Corrections.Path, cfg.Corrections.IterationLimit)
	if err != nil {
		return Services{}, err
	}

	services := Services{Vocabulary: vocab, Corrections: engine, Config: cfg}
	fail := func(err error) (Services, error) {
		_ = services.Close()
		return Services{}, err
	}

	store, closeStore, err := OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		return fail(err)
	}
	services.Store = store
	services.closers = append(services.closers, closeStore)

	publisher, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject, logger)
	if err != nil {
		return fail(err)
	}
	services.closers = append(services.closers, publisher.Close)

	scheduler := reminders.NewScheduler(sink, logger)
	services.closers = append(services.closers, func() error {
		scheduler.Close()
		return nil
	})

	services.Metrics = metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := services.Metrics.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics endpoint stopped", "error", err)
			}
		}()
	}

	if cfg.Corrections.Watch {
		onReload := func(_ int, err error) {
			if err != nil {
				sink.SessionError(domain.ErrorCodeCorrections, err.Error())
			}
		}
		if err := corrections.Watch(ctx, engine, cfg.Corrections.Path, logger, onReload); err != nil {
			logger.Warn("corrections hot reload disabled", "error", err)
		}
	}

	capture := speech.New(
		audio.NewMicrophone(cfg.Audio.RecorderCommand),
		deepgram.NewProvider(deepgram.Config{
			APIKey:        cfg.Deepgram.APIKey,
			APIBaseURL:    cfg.Deepgram.APIBaseURL,
			Model:         cfg.Deepgram.Model,
			Language:      cfg.Deepgram.Language,
			SmartFormat:   cfg.Deepgram.SmartFormat,
			EndpointingMS: cfg.Deepgram.EndpointingMS,
			KeywordBoost:  cfg.Deepgram.KeywordBoost,
			KeepAlive:     cfg.Deepgram.KeepAlive,
		}),
		sink,
		speech.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Streaming: ports.StreamingConfig{
				SampleRate:     cfg.Audio.SampleRate,
				Channels:       cfg.Audio.Channels,
				Encoding:       "linear16",
				InterimResults: true,
				Keywords:       vocab.Keywords(),
			},
			ChunkSize:      cfg.Session.ChunkSize,
			StreamingGrace: cfg.Session.StreamingGrace,
		},
	)

	services.Controller = usecase.NewInspectionController(usecase.ControllerDeps{
		Speech:      capture,
		Corrector:   engine,
		Hives:       store,
		Inspections: store,
		Photos:      photos.NewStore(cfg.Storage.PhotoDir),
		Publisher:   publisher,
		Metrics:     services.Metrics,
		Events:      sink,
	}, usecase.ControllerConfig{Vocabulary: vocab, Logger: logger})
	services.Records = usecase.NewRecordsService(store, scheduler, logger)
	restored, err := services.Records.RestoreReminders(ctx)
	if err != nil {
		logger.Warn("treatment reminders not restored", "error", err)
	}

	logger.Info("backend ready",
		"vocabulary", cfg.Voice.VocabularyPath,
		"corrections", cfg.Corrections.Path,
		"rules", engine.Len(),
		"postgres", cfg.Storage.DatabaseURL != "",
		"nats", publisher.Enabled(),
		"reminders", restored,
	)
	return services, nil
}

// OpenStore connects to Postgres when a database URL is configured, applying
// migrations first, and otherwise returns an in-memory store.
func OpenStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ports.Store, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, records are kept in memory only")
		return memory.New(), func() error { return nil }, nil
	}

	if err := storage.RunMigrations(cfg.DatabaseURL); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	database, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, func() error {
		database.Close()
		return nil
	}, nil
}
