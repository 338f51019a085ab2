package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"beespeak/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// StreamingConfig describes provider-agnostic streaming settings.
type StreamingConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
	// Keywords are boosted by providers that support it.
	Keywords []string
}

// StreamingSession is an active provider websocket session.
type StreamingSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// TranscriptionProvider starts streaming transcription sessions.
type TranscriptionProvider interface {
	StartStreaming(ctx context.Context, cfg StreamingConfig) (StreamingSession, error)
}

// SpeechSession delivers recognition updates for one dictation. Events is
// closed once the recognizer has nothing more to say.
type SpeechSession interface {
	Events() <-chan domain.TranscriptEvent
	// Stop ends capture and lets the recognizer flush trailing results.
	Stop(ctx context.Context) error
	// Close discards the session immediately.
	Close() error
}

// SpeechCapture starts dictation. Authorization or microphone failures are
// returned from Start.
type SpeechCapture interface {
	Start(ctx context.Context) (SpeechSession, error)
}

// Corrector rewrites recognized text before it is interpreted.
type Corrector interface {
	Apply(text string) (string, error)
}

// ApiaryStore persists apiaries. Deleting an apiary removes its hives and their records.
type ApiaryStore interface {
	CreateApiary(ctx context.Context, apiary domain.Apiary) error
	UpdateApiary(ctx context.Context, apiary domain.Apiary) error
	GetApiary(ctx context.Context, id uuid.UUID) (domain.Apiary, error)
	ListApiaries(ctx context.Context) ([]domain.Apiary, error)
	DeleteApiary(ctx context.Context, id uuid.UUID) error
}

// HiveStore persists hives.
type HiveStore interface {
	CreateHive(ctx context.Context, hive domain.Hive) error
	UpdateHive(ctx context.Context, hive domain.Hive) error
	GetHive(ctx context.Context, id uuid.UUID) (domain.Hive, error)
	HiveByQR(ctx context.Context, code string) (domain.Hive, error)
	ListHives(ctx context.Context, apiaryID uuid.UUID) ([]domain.Hive, error)
	DeleteHive(ctx context.Context, id uuid.UUID) error
}

// InspectionStore persists inspections, newest first.
type InspectionStore interface {
	CreateInspection(ctx context.Context, inspection domain.Inspection) error
	ListInspections(ctx context.Context, hiveID uuid.UUID) ([]domain.Inspection, error)
	DeleteInspection(ctx context.Context, id uuid.UUID) error
}

// TreatmentStore persists treatments, newest first.
type TreatmentStore interface {
	CreateTreatment(ctx context.Context, treatment domain.Treatment) error
	UpdateTreatment(ctx context.Context, treatment domain.Treatment) error
	GetTreatment(ctx context.Context, id uuid.UUID) (domain.Treatment, error)
	ListTreatments(ctx context.Context, hiveID uuid.UUID) ([]domain.Treatment, error)
	DeleteTreatment(ctx context.Context, id uuid.UUID) error
}

// HarvestStore persists harvests, newest first.
type HarvestStore interface {
	CreateHarvest(ctx context.Context, harvest domain.Harvest) error
	ListHarvests(ctx context.Context, hiveID uuid.UUID) ([]domain.Harvest, error)
	DeleteHarvest(ctx context.Context, id uuid.UUID) error
}

// Store is the full record store.
type Store interface {
	ApiaryStore
	HiveStore
	InspectionStore
	TreatmentStore
	HarvestStore
}

// RecordReader is the read side used by exports.
type RecordReader interface {
	ListApiaries(ctx context.Context) ([]domain.Apiary, error)
	ListHives(ctx context.Context, apiaryID uuid.UUID) ([]domain.Hive, error)
	ListInspections(ctx context.Context, hiveID uuid.UUID) ([]domain.Inspection, error)
	ListTreatments(ctx context.Context, hiveID uuid.UUID) ([]domain.Treatment, error)
	ListHarvests(ctx context.Context, hiveID uuid.UUID) ([]domain.Harvest, error)
}

// PhotoStore keeps inspection photos and returns their paths.
type PhotoStore interface {
	Save(hiveID uuid.UUID, data []byte) (string, error)
	Delete(path string) error
}

// NotificationScheduler delivers a reminder at its due time.
type NotificationScheduler interface {
	Schedule(ctx context.Context, reminder domain.Reminder) (string, error)
	Cancel(id string)
}

// Notifier shows a fired reminder to the user.
type Notifier interface {
	ReminderDue(notification domain.Notification)
}

// InspectionPublisher announces saved inspections to other systems.
type InspectionPublisher interface {
	InspectionSaved(ctx context.Context, inspection domain.Inspection) error
}

// MetricsRecorder counts voice engine activity.
type MetricsRecorder interface {
	UtteranceProcessed()
	CommandRecognized(command domain.CommandID)
	FlagDetected(field string)
	InspectionSaved()
}

// ErrorReporter receives non-fatal backend errors.
type ErrorReporter interface {
	SessionError(code domain.ErrorCode, detail string)
}

// EventSink emits backend state/events to the UI. UtteranceProcessed and
// LifecycleCommand are called from the transcript consumer and must not wait
// on controller operations.
type EventSink interface {
	ErrorReporter
	SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason)
	PartialTranscript(text string)
	UtteranceProcessed(raw string, corrected string, flags domain.InspectionFlags)
	LifecycleCommand(command domain.CommandID)
}
