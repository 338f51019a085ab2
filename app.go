package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"beespeak/internal/bootstrap"
	"beespeak/internal/domain"
	"beespeak/internal/export"
	"beespeak/internal/usecase"
)

const (
	eventSession   = "beespeak:session"
	eventPartial   = "beespeak:partial"
	eventUtterance = "beespeak:utterance"
	eventCommand   = "beespeak:command"
	eventSaved     = "beespeak:saved"
	eventReminder  = "beespeak:reminder"
	eventError     = "beespeak:error"
)

// App is the Wails application root.
type App struct {
	ctx    context.Context
	logger *slog.Logger
	emitFn func(name string, payload any)

	services bootstrap.Services
	bootErr  error
}

func NewApp(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{logger: logger}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.emitFn = func(name string, payload any) {
		runtime.EventsEmit(ctx, name, payload)
	}

	services, err := bootstrap.Build(ctx, a, a.logger)
	if err != nil {
		a.bootErr = err
		a.logger.Error("startup failed", "error", err)
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonReady)
}

func (a *App) shutdown(context.Context) {
	if a.services.Controller != nil {
		_ = a.services.Controller.CancelInspection()
	}
	if err := a.services.Close(); err != nil {
		a.logger.Warn("shutdown cleanup failed", "error", err)
	}
}

// StartInspection opens an inspection of hiveID, replacing any open one.
func (a *App) StartInspection(hiveID string) (*domain.SessionSnapshot, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	id, err := parseID(hiveID)
	if err != nil {
		return nil, err
	}
	return a.services.Controller.StartInspection(a.ctx, id)
}

// StartDictation starts push-to-talk dictation into the open inspection.
func (a *App) StartDictation() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.services.Controller.StartDictation(a.ctx); err != nil {
		if !errors.Is(err, usecase.ErrNoActiveInspection) {
			a.SessionError(domain.ErrorCodeTranscription, err.Error())
		}
		return domain.Status{}, err
	}
	return a.services.Controller.Status(), nil
}

// StopDictation stops dictation and returns what it contributed.
func (a *App) StopDictation() (domain.DictationResult, error) {
	if err := a.requireReady(); err != nil {
		return domain.DictationResult{}, err
	}
	result, err := a.services.Controller.StopDictation(a.ctx)
	if err != nil && !errors.Is(err, usecase.ErrNoTranscript) && !errors.Is(err, usecase.ErrNoActiveDictation) {
		a.SessionError(domain.ErrorCodeTranscription, err.Error())
	}
	return result, err
}

// AbortDictation discards an in-progress dictation.
func (a *App) AbortDictation() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Controller.AbortDictation(); err != nil && !errors.Is(err, usecase.ErrNoActiveDictation) {
		return err
	}
	return nil
}

func (a *App) ToggleFlag(field string) (domain.InspectionFlags, error) {
	if err := a.requireReady(); err != nil {
		return domain.InspectionFlags{}, err
	}
	return a.services.Controller.ToggleFlag(domain.FlagField(field))
}

func (a *App) SetVarroaLevel(level string) (domain.InspectionFlags, error) {
	if err := a.requireReady(); err != nil {
		return domain.InspectionFlags{}, err
	}
	parsed, err := domain.ParseVarroaLevel(level)
	if err != nil {
		return domain.InspectionFlags{}, err
	}
	return a.services.Controller.SetVarroaLevel(parsed)
}

func (a *App) AddPhoto(data []byte) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	path, err := a.services.Controller.AddPhoto(data)
	if err != nil {
		a.SessionError(domain.ErrorCodePhoto, err.Error())
	}
	return path, err
}

func (a *App) RemovePhoto(path string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Controller.RemovePhoto(path)
}

func (a *App) AddTag(tag string) ([]string, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Controller.AddTag(tag)
}

func (a *App) RemoveTag(tag string) ([]string, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Controller.RemoveTag(tag)
}

// SaveInspection persists the open inspection and closes it.
func (a *App) SaveInspection() (domain.Inspection, error) {
	if err := a.requireReady(); err != nil {
		return domain.Inspection{}, err
	}
	return a.saveInspection()
}

// CancelInspection discards the open inspection.
func (a *App) CancelInspection() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Controller.CancelInspection(); err != nil && !errors.Is(err, usecase.ErrNoActiveInspection) {
		return err
	}
	return nil
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.services.Controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateError, Active: false, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle, Active: false}
	}
	return a.services.Controller.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	cfg := a.services.Config
	storage := "memory"
	if cfg.Storage.DatabaseURL != "" {
		storage = "postgres"
	}
	return map[string]string{
		"provider":         "Deepgram",
		"model":            cfg.Deepgram.Model,
		"language":         cfg.Deepgram.Language,
		"vocabularyFile":   cfg.Voice.VocabularyPath,
		"correctionsFile":  cfg.Corrections.Path,
		"audioInput":       cfg.Audio.InputDevice,
		"audioInputFormat": cfg.Audio.InputFormat,
		"photoDir":         cfg.Storage.PhotoDir,
		"storage":          storage,
		"metricsAddr":      cfg.Metrics.Addr,
	}
}

func (a *App) ListApiaries() ([]domain.Apiary, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Records.ListApiaries(a.ctx)
}

func (a *App) SaveApiary(apiary domain.Apiary) (domain.Apiary, error) {
	if err := a.requireReady(); err != nil {
		return domain.Apiary{}, err
	}
	if apiary.ID == uuid.Nil {
		return a.services.Records.CreateApiary(a.ctx, apiary)
	}
	return a.services.Records.UpdateApiary(a.ctx, apiary)
}

func (a *App) DeleteApiary(id string) error {
	return a.deleteByID(id, a.services.Records.DeleteApiary)
}

func (a *App) ListHives(apiaryID string) ([]domain.Hive, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	id, err := parseID(apiaryID)
	if err != nil {
		return nil, err
	}
	return a.services.Records.ListHives(a.ctx, id)
}

func (a *App) SaveHive(hive domain.Hive) (domain.Hive, error) {
	if err := a.requireReady(); err != nil {
		return domain.Hive{}, err
	}
	if hive.ID == uuid.Nil {
		return a.services.Records.CreateHive(a.ctx, hive)
	}
	return a.services.Records.UpdateHive(a.ctx, hive)
}

// FindHiveByQR resolves a scanned hive label.
func (a *App) FindHiveByQR(code string) (domain.Hive, error) {
	if err := a.requireReady(); err != nil {
		return domain.Hive{}, err
	}
	return a.services.Records.HiveByQR(a.ctx, code)
}

func (a *App) DeleteHive(id string) error {
	return a.deleteByID(id, a.services.Records.DeleteHive)
}

func (a *App) ListInspections(hiveID string) ([]domain.Inspection, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	id, err := parseID(hiveID)
	if err != nil {
		return nil, err
	}
	return a.services.Records.ListInspections(a.ctx, id)
}

func (a *App) DeleteInspection(id string) error {
	return a.deleteByID(id, a.services.Records.DeleteInspection)
}

func (a *App) ListTreatments(hiveID string) ([]domain.Treatment, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	id, err := parseID(hiveID)
	if err != nil {
		return nil, err
	}
	return a.services.Records.ListTreatments(a.ctx, id)
}

// SaveTreatment creates or updates a treatment; a next check date schedules a reminder.
func (a *App) SaveTreatment(treatment domain.Treatment) (domain.Treatment, error) {
	if err := a.requireReady(); err != nil {
		return domain.Treatment{}, err
	}
	if treatment.ID == uuid.Nil {
		return a.services.Records.AddTreatment(a.ctx, treatment)
	}
	return a.services.Records.UpdateTreatment(a.ctx, treatment)
}

func (a *App) ScheduleReminder(treatmentID string) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	id, err := parseID(treatmentID)
	if err != nil {
		return "", err
	}
	return a.services.Records.ScheduleReminder(a.ctx, id)
}

func (a *App) DeleteTreatment(id string) error {
	return a.deleteByID(id, a.services.Records.DeleteTreatment)
}

func (a *App) ListHarvests(hiveID string) ([]domain.Harvest, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	id, err := parseID(hiveID)
	if err != nil {
		return nil, err
	}
	return a.services.Records.ListHarvests(a.ctx, id)
}

func (a *App) AddHarvest(harvest domain.Harvest) (domain.Harvest, error) {
	if err := a.requireReady(); err != nil {
		return domain.Harvest{}, err
	}
	return a.services.Records.AddHarvest(a.ctx, harvest)
}

func (a *App) DeleteHarvest(id string) error {
	return a.deleteByID(id, a.services.Records.DeleteHarvest)
}

// GetSummary returns the dashboard overview.
func (a *App) GetSummary() (domain.Summary, error) {
	if err := a.requireReady(); err != nil {
		return domain.Summary{}, err
	}
	return a.services.Records.Summary(a.ctx)
}

// ExportData renders every record as "json" or "csv".
func (a *App) ExportData(format string) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		data, err = export.JSON(a.ctx, a.services.Store, time.Now())
	case "csv":
		data, err = export.CSV(a.ctx, a.services.Store, time.Now())
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services.Controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func (a *App) deleteByID(raw string, remove func(context.Context, uuid.UUID) error) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	return remove(a.ctx, id)
}

func (a *App) saveInspection() (domain.Inspection, error) {
	inspection, err := a.services.Controller.SaveInspection(a.ctx)
	if err != nil {
		if !errors.Is(err, usecase.ErrNoActiveInspection) {
			a.SessionError(domain.ErrorCodeStorage, err.Error())
		}
		return domain.Inspection{}, err
	}
	a.emit(eventSaved, inspection)
	return inspection, nil
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	a.emit(eventSession, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": sessionReasonMessage(reason),
	})
}

// PartialTranscript emits live partial transcript text.
func (a *App) PartialTranscript(text string) {
	a.emit(eventPartial, map[string]string{"text": text})
}

// UtteranceProcessed emits one interpreted utterance with the merged flags.
func (a *App) UtteranceProcessed(raw string, corrected string, flags domain.InspectionFlags) {
	a.emit(eventUtterance, map[string]any{
		"raw":       raw,
		"corrected": corrected,
		"flags":     flags,
	})
}

// LifecycleCommand runs save and cancel off the transcript consumer; the
// remaining lifecycle commands are UI actions.
func (a *App) LifecycleCommand(command domain.CommandID) {
	a.emit(eventCommand, map[string]string{"command": string(command)})
	if a.services.Controller == nil {
		return
	}

	switch command {
	case domain.CommandSave, domain.CommandFinishInspection:
		go func() {
			if _, err := a.saveInspection(); err != nil {
				a.logger.Warn("voice save failed", "command", command, "error", err)
			}
		}()
	case domain.CommandCancel:
		go func() {
			if err := a.services.Controller.CancelInspection(); err != nil && !errors.Is(err, usecase.ErrNoActiveInspection) {
				a.logger.Warn("voice cancel failed", "error", err)
			}
		}()
	}
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	a.emit(eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

// ReminderDue emits a fired treatment reminder.
func (a *App) ReminderDue(notification domain.Notification) {
	a.logger.Info("treatment reminder due", "id", notification.ID, "title", notification.Title)
	a.emit(eventReminder, notification)
}

func (a *App) emit(name string, payload any) {
	if a.emitFn == nil {
		return
	}
	a.emitFn(name, payload)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonReady:
		return "Ready"
	case domain.SessionReasonInspectionStarted:
		return "Inspection started"
	case domain.SessionReasonInspectionReplaced:
		return "Inspection started; previous inspection discarded"
	case domain.SessionReasonDictationStarted:
		return "Listening"
	case domain.SessionReasonDictationRestarted:
		return "Listening again; previous dictation discarded"
	case domain.SessionReasonTranscribing:
		return "Dictation stopped. Transcribing..."
	case domain.SessionReasonDictationProcessed:
		return "Dictation added to inspection"
	case domain.SessionReasonNoTranscript:
		return "No transcript captured"
	case domain.SessionReasonDictationDiscarded:
		return "Dictation discarded"
	case domain.SessionReasonTranscriptionFailed:
		return "Transcription failed"
	case domain.SessionReasonInspectionSaved:
		return "Inspection saved"
	case domain.SessionReasonInspectionCancelled:
		return "Inspection cancelled"
	case domain.SessionReasonSaveFailed:
		return "Inspection could not be saved"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeCaptureStop:
		return "Microphone stop issue"
	case domain.ErrorCodeAudioStream:
		return "Audio streaming issue"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeCorrections:
		return "Corrections processing failed"
	case domain.ErrorCodeStorage:
		return "Storage error"
	case domain.ErrorCodePhoto:
		return "Photo could not be stored"
	case domain.ErrorCodePublish:
		return "Inspection event not published"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
