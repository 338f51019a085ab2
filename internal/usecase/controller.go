package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
	"beespeak/internal/voice"
)

var (
	ErrNoActiveInspection = errors.New("no active inspection")
	ErrNoActiveDictation  = errors.New("no active dictation")
	ErrNoTranscript       = errors.New("no transcript captured")
	ErrUnknownFlag        = errors.New("unknown inspection flag")
	ErrInvalidVarroaLevel = errors.New("invalid varroa level")
	ErrUnknownCommand     = errors.New("unknown voice command")
	ErrPhotoNotInSession  = errors.New("photo is not part of the inspection")
	ErrEmptyTag           = errors.New("tag cannot be empty")
)

// ControllerDeps are the capabilities an InspectionController drives.
// Corrector, Photos, Publisher and Metrics are optional.
type ControllerDeps struct {
	Speech      ports.SpeechCapture
	Corrector   ports.Corrector
	Hives       ports.HiveStore
	Inspections ports.InspectionStore
	Photos      ports.PhotoStore
	Publisher   ports.InspectionPublisher
	Metrics     ports.MetricsRecorder
	Events      ports.EventSink
}

// ControllerConfig tunes an InspectionController.
type ControllerConfig struct {
	Vocabulary voice.Vocabulary
	Now        func() time.Time
	Logger     *slog.Logger
}

// InspectionController owns the in-progress inspection and its dictation.
type InspectionController struct {
	speech      ports.SpeechCapture
	corrector   ports.Corrector
	hives       ports.HiveStore
	inspections ports.InspectionStore
	photos      ports.PhotoStore
	publisher   ports.InspectionPublisher
	metrics     ports.MetricsRecorder
	events      ports.EventSink
	vocab       voice.Vocabulary
	now         func() time.Time
	logger      *slog.Logger

	mu        sync.Mutex
	state     domain.SessionState
	session   *inspectionSession
	dictation *activeDictation
}

func NewInspectionController(deps ControllerDeps, cfg ControllerConfig) *InspectionController {
	c := &InspectionController{
		speech:      deps.Speech,
		corrector:   deps.Corrector,
		hives:       deps.Hives,
		inspections: deps.Inspections,
		photos:      deps.Photos,
		publisher:   deps.Publisher,
		metrics:     deps.Metrics,
		events:      deps.Events,
		vocab:       cfg.Vocabulary,
		now:         cfg.Now,
		logger:      cfg.Logger,
		state:       domain.SessionStateIdle,
	}
	if c.corrector == nil {
		c.corrector = identityCorrector{}
	}
	if c.publisher == nil {
		c.publisher = nopPublisher{}
	}
	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}
	if len(c.vocab.Commands) == 0 && len(c.vocab.Flags) == 0 && len(c.vocab.Varroa) == 0 {
		c.vocab = voice.DefaultVocabulary()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// StartInspection begins a fresh inspection of hiveID, discarding any
// inspection already in progress.
func (c *InspectionController) StartInspection(ctx context.Context, hiveID uuid.UUID) (*domain.SessionSnapshot, error) {
	if _, err := c.hives.GetHive(ctx, hiveID); err != nil {
		return nil, fmt.Errorf("start inspection: %w", err)
	}

	_ = c.AbortDictation()

	c.mu.Lock()
	previous := c.session
	c.session = newInspectionSession(hiveID, c.now())
	c.state = domain.SessionStateInspecting
	snapshot := c.session.snapshot()
	c.mu.Unlock()

	reason := domain.SessionReasonInspectionStarted
	if previous != nil {
		reason = domain.SessionReasonInspectionReplaced
		c.deletePhotos(previous.photos)
	}
	c.logger.Info("inspection started", "session", snapshot.ID, "hive", hiveID)
	c.events.SessionStateChanged(domain.SessionStateInspecting, reason)
	return snapshot, nil
}

// StartDictation starts speech capture for the active inspection. A running
// dictation is discarded first.
func (c *InspectionController) StartDictation(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoActiveInspection
	}
	previous := c.dictation
	if previous != nil {
		previous.discarded = true
		c.dictation = nil
	}
	c.mu.Unlock()

	if previous != nil {
		c.closeDictation(previous)
	}

	speech, err := c.speech.Start(ctx)
	if err != nil {
		c.events.SessionError(domain.ErrorCodeStartup, err.Error())
		c.setState(domain.SessionStateInspecting, domain.SessionReasonTranscriptionFailed)
		return fmt.Errorf("start dictation: %w", err)
	}

	d := newActiveDictation(speech)
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		_ = speech.Close()
		return ErrNoActiveInspection
	}
	// A concurrent StartDictation may have installed its capture meanwhile.
	raced := c.dictation
	if raced != nil {
		raced.discarded = true
	}
	c.dictation = d
	c.state = domain.SessionStateDictating
	c.mu.Unlock()

	if raced != nil {
		c.closeDictation(raced)
		previous = raced
	}

	go consumeTranscriptEvents(speech.Events(), d.aggregator, c.events, func(utterance string) {
		c.processUtterance(d, utterance)
	}, d.eventsDone)

	reason := domain.SessionReasonDictationStarted
	if previous != nil {
		reason = domain.SessionReasonDictationRestarted
	}
	c.events.SessionStateChanged(domain.SessionStateDictating, reason)
	return nil
}

// StopDictation ends capture and processes what the recognizer still delivers.
// Each processed utterance is already part of the inspection transcript.
func (c *InspectionController) StopDictation(ctx context.Context) (domain.DictationResult, error) {
	c.mu.Lock()
	d := c.dictation
	if d == nil || d.stopping {
		c.mu.Unlock()
		return domain.DictationResult{}, ErrNoActiveDictation
	}
	d.stopping = true
	c.state = domain.SessionStateStopping
	c.mu.Unlock()
	c.events.SessionStateChanged(domain.SessionStateStopping, domain.SessionReasonTranscribing)

	streamErr := d.speech.Stop(ctx)
	<-d.eventsDone
	if trailing, ok := d.aggregator.Flush(); ok {
		c.processUtterance(d, trailing)
	}

	c.mu.Lock()
	if c.dictation == d {
		c.dictation = nil
	}
	transcript := strings.Join(d.utterances, " ")
	result := domain.DictationResult{
		Transcript: transcript,
		Commands:   append([]domain.CommandID{}, d.commands...),
	}
	next := domain.SessionStateIdle
	if c.session != nil {
		next = domain.SessionStateInspecting
		result.Flags = c.session.flags.Clone()
	}
	c.state = next
	c.mu.Unlock()

	switch {
	case transcript == "" && streamErr != nil:
		c.events.SessionError(domain.ErrorCodeTranscription, streamErr.Error())
		c.events.SessionStateChanged(next, domain.SessionReasonTranscriptionFailed)
		return domain.DictationResult{}, streamErr
	case transcript == "":
		c.events.SessionStateChanged(next, domain.SessionReasonNoTranscript)
		return domain.DictationResult{}, ErrNoTranscript
	}

	if streamErr != nil {
		c.logger.Warn("transcription ended with error", "error", streamErr)
	}
	c.events.SessionStateChanged(next, domain.SessionReasonDictationProcessed)
	return result, nil
}

// AbortDictation discards the running capture without processing anything it
// has not already delivered.
func (c *InspectionController) AbortDictation() error {
	c.mu.Lock()
	d := c.dictation
	if d == nil {
		c.mu.Unlock()
		return ErrNoActiveDictation
	}
	d.discarded = true
	c.dictation = nil
	next := domain.SessionStateIdle
	if c.session != nil {
		next = domain.SessionStateInspecting
	}
	c.state = next
	c.mu.Unlock()

	c.closeDictation(d)
	c.events.SessionStateChanged(next, domain.SessionReasonDictationDiscarded)
	return nil
}

// ToggleFlag cycles a flag between true and unset. A false value toggles to true.
func (c *InspectionController) ToggleFlag(field domain.FlagField) (domain.InspectionFlags, error) {
	if !domain.IsFlagField(field) {
		return domain.InspectionFlags{}, fmt.Errorf("%w: %s", ErrUnknownFlag, field)
	}
	return c.updateFlags(func(flags *domain.InspectionFlags) {
		if current := flags.Get(field); current != nil && *current {
			flags.Set(field, nil)
			return
		}
		flags.Set(field, domain.Bool(true))
	})
}

// SetVarroaLevel sets the level directly, including back to None.
func (c *InspectionController) SetVarroaLevel(level domain.VarroaLevel) (domain.InspectionFlags, error) {
	if !level.Valid() {
		return domain.InspectionFlags{}, fmt.Errorf("%w: %d", ErrInvalidVarroaLevel, int(level))
	}
	return c.updateFlags(func(flags *domain.InspectionFlags) {
		flags.VarroaLevel = level
	})
}

// ApplyVoiceCommand applies a command recognized outside the dictation pipeline.
func (c *InspectionController) ApplyVoiceCommand(command domain.CommandID) (domain.InspectionFlags, error) {
	if !domain.IsKnownCommand(command) {
		return domain.InspectionFlags{}, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return domain.InspectionFlags{}, ErrNoActiveInspection
	}
	c.applyCommandLocked(c.session, command)
	flags := c.session.flags.Clone()
	c.mu.Unlock()

	c.relayCommand(command)
	return flags, nil
}

func (c *InspectionController) updateFlags(update func(*domain.InspectionFlags)) (domain.InspectionFlags, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.InspectionFlags{}, ErrNoActiveInspection
	}
	update(&c.session.flags)
	return c.session.flags.Clone(), nil
}

// AddPhoto stores an image for the active inspection and returns its path.
func (c *InspectionController) AddPhoto(data []byte) (string, error) {
	if c.photos == nil {
		return "", errors.New("photo storage is not configured")
	}

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return "", ErrNoActiveInspection
	}
	session := c.session
	c.mu.Unlock()

	path, err := c.photos.Save(session.hiveID, data)
	if err != nil {
		c.events.SessionError(domain.ErrorCodePhoto, err.Error())
		return "", fmt.Errorf("save photo: %w", err)
	}

	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		c.deletePhotos([]string{path})
		return "", ErrNoActiveInspection
	}
	session.photos = append(session.photos, path)
	c.mu.Unlock()
	return path, nil
}

// RemovePhoto detaches a photo from the inspection and deletes the file.
func (c *InspectionController) RemovePhoto(path string) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoActiveInspection
	}
	index := indexOf(c.session.photos, path)
	if index < 0 {
		c.mu.Unlock()
		return ErrPhotoNotInSession
	}
	c.session.photos = append(c.session.photos[:index], c.session.photos[index+1:]...)
	c.mu.Unlock()

	c.deletePhotos([]string{path})
	return nil
}

// AddTag attaches a free-form tag once.
func (c *InspectionController) AddTag(tag string) ([]string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, ErrEmptyTag
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNoActiveInspection
	}
	if indexOf(c.session.tags, tag) < 0 {
		c.session.tags = append(c.session.tags, tag)
	}
	return append([]string(nil), c.session.tags...), nil
}

func (c *InspectionController) RemoveTag(tag string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNoActiveInspection
	}
	if index := indexOf(c.session.tags, strings.TrimSpace(tag)); index >= 0 {
		c.session.tags = append(c.session.tags[:index], c.session.tags[index+1:]...)
	}
	return append([]string(nil), c.session.tags...), nil
}

// SaveInspection persists the inspection and clears the session. A running
// dictation is stopped first so its last words are kept. Photos stay on disk.
func (c *InspectionController) SaveInspection(ctx context.Context) (domain.Inspection, error) {
	if _, err := c.StopDictation(ctx); err != nil && !errors.Is(err, ErrNoActiveDictation) {
		c.logger.Warn("dictation ended without transcript before save", "error", err)
	}

	c.mu.Lock()
	session := c.session
	if session == nil {
		c.mu.Unlock()
		return domain.Inspection{}, ErrNoActiveInspection
	}
	inspection := session.inspection(c.now())
	c.mu.Unlock()

	if err := c.inspections.CreateInspection(ctx, inspection); err != nil {
		c.events.SessionError(domain.ErrorCodeStorage, err.Error())
		c.events.SessionStateChanged(domain.SessionStateInspecting, domain.SessionReasonSaveFailed)
		return domain.Inspection{}, fmt.Errorf("save inspection: %w", err)
	}

	c.mu.Lock()
	if c.session == session {
		c.session = nil
		c.state = domain.SessionStateIdle
	}
	c.mu.Unlock()

	c.metrics.InspectionSaved()
	if err := c.publisher.InspectionSaved(ctx, inspection); err != nil {
		c.logger.Warn("failed to publish saved inspection", "inspection", inspection.ID, "error", err)
		c.events.SessionError(domain.ErrorCodePublish, err.Error())
	}

	c.logger.Info("inspection saved", "inspection", inspection.ID, "hive", inspection.HiveID)
	c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonInspectionSaved)
	return inspection, nil
}

// CancelInspection discards the inspection and deletes its photos.
func (c *InspectionController) CancelInspection() error {
	_ = c.AbortDictation()

	c.mu.Lock()
	session := c.session
	if session == nil {
		c.mu.Unlock()
		return ErrNoActiveInspection
	}
	c.session = nil
	c.state = domain.SessionStateIdle
	c.mu.Unlock()

	c.deletePhotos(session.photos)
	c.logger.Info("inspection cancelled", "session", session.id)
	c.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonInspectionCancelled)
	return nil
}

// Status returns the current backend status.
func (c *InspectionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := domain.Status{State: c.state, Active: c.state != domain.SessionStateIdle}
	if c.session != nil {
		status.Session = c.session.snapshot()
	}
	return status
}

func (c *InspectionController) setState(state domain.SessionState, reason domain.SessionStateReason) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.events.SessionStateChanged(state, reason)
}

func (c *InspectionController) closeDictation(d *activeDictation) {
	_ = d.speech.Close()
	<-d.eventsDone
}

func (c *InspectionController) deletePhotos(paths []string) {
	if c.photos == nil {
		return
	}
	for _, path := range paths {
		if err := c.photos.Delete(path); err != nil {
			c.logger.Warn("failed to delete photo", "path", path, "error", err)
		}
	}
}

func indexOf(values []string, target string) int {
	for i, value := range values {
		if value == target {
			return i
		}
	}
	return -1
}

type identityCorrector struct{}

func (identityCorrector) Apply(text string) (string, error) { return text, nil }

type nopPublisher struct{}

func (nopPublisher) InspectionSaved(context.Context, domain.Inspection) error { return nil }

type nopMetrics struct{}

func (nopMetrics) UtteranceProcessed() {}

func (nopMetrics) CommandRecognized(domain.CommandID) {}

func (nopMetrics) FlagDetected(string) {}

func (nopMetrics) InspectionSaved() {}
