package domain

// SessionState models the inspection/dictation lifecycle.
type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateInspecting SessionState = "inspecting"
	SessionStateDictating  SessionState = "dictating"
	SessionStateStopping   SessionState = "stopping"
	SessionStateError      SessionState = "error"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady               SessionStateReason = "ready"
	SessionReasonInspectionStarted   SessionStateReason = "inspection_started"
	SessionReasonInspectionReplaced  SessionStateReason = "inspection_replaced"
	SessionReasonDictationStarted    SessionStateReason = "dictation_started"
	SessionReasonDictationRestarted  SessionStateReason = "dictation_restarted"
	SessionReasonTranscribing        SessionStateReason = "transcribing"
	SessionReasonDictationProcessed  SessionStateReason = "dictation_processed"
	SessionReasonNoTranscript        SessionStateReason = "no_transcript"
	SessionReasonDictationDiscarded  SessionStateReason = "dictation_discarded"
	SessionReasonTranscriptionFailed SessionStateReason = "transcription_failed"
	SessionReasonInspectionSaved     SessionStateReason = "inspection_saved"
	SessionReasonInspectionCancelled SessionStateReason = "inspection_cancelled"
	SessionReasonSaveFailed          SessionStateReason = "save_failed"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeCaptureStop   ErrorCode = "capture_stop"
	ErrorCodeAudioStream   ErrorCode = "audio_stream"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeCorrections   ErrorCode = "corrections"
	ErrorCodeStorage       ErrorCode = "storage"
	ErrorCodePhoto         ErrorCode = "photo"
	ErrorCodePublish       ErrorCode = "publish"
)

// TranscriptKind identifies whether a stream event is partial or final text.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent is one recognition update. Each event carries the full text of
// the utterance so far, not a diff against the previous event.
type TranscriptEvent struct {
	Kind          TranscriptKind `json:"kind"`
	Text          string         `json:"text"`
	IsSpeechFinal bool           `json:"isSpeechFinal"`
}

// DictationResult is returned once dictation is stopped and processed.
type DictationResult struct {
	Transcript string          `json:"transcript"`
	Flags      InspectionFlags `json:"flags"`
	Commands   []CommandID     `json:"commands"`
}

// Status summarizes the current runtime status.
type Status struct {
	State   SessionState     `json:"state"`
	Active  bool             `json:"active"`
	Message string           `json:"message,omitempty"`
	Session *SessionSnapshot `json:"session,omitempty"`
}
