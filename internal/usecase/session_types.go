package usecase

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
)

// inspectionSession is the in-progress inspection. It is only touched with the
// controller mutex held.
type inspectionSession struct {
	id         uuid.UUID
	hiveID     uuid.UUID
	startedAt  time.Time
	flags      domain.InspectionFlags
	transcript []string
	photos     []string
	tags       []string
	commands   domain.ParsedCommandLog
	frame      int
}

func newInspectionSession(hiveID uuid.UUID, now time.Time) *inspectionSession {
	return &inspectionSession{id: uuid.New(), hiveID: hiveID, startedAt: now}
}

func (s *inspectionSession) snapshot() *domain.SessionSnapshot {
	return &domain.SessionSnapshot{
		ID:         s.id,
		HiveID:     s.hiveID,
		StartedAt:  s.startedAt,
		Flags:      s.flags.Clone(),
		Transcript: s.joinedTranscript(),
		Photos:     append([]string(nil), s.photos...),
		Tags:       append([]string(nil), s.tags...),
		Commands:   append(domain.ParsedCommandLog(nil), s.commands...),
		Frame:      s.frame,
	}
}

func (s *inspectionSession) joinedTranscript() string {
	return strings.Join(s.transcript, "\n")
}

func (s *inspectionSession) inspection(now time.Time) domain.Inspection {
	return domain.Inspection{
		ID:         uuid.New(),
		HiveID:     s.hiveID,
		Date:       now,
		Flags:      s.flags.Clone(),
		Photos:     append([]string{}, s.photos...),
		Transcript: s.joinedTranscript(),
		Tags:       append([]string{}, s.tags...),
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// activeDictation is one running speech capture within a session.
type activeDictation struct {
	speech     ports.SpeechSession
	aggregator *utteranceAggregator
	eventsDone chan struct{}

	// Guarded by the controller mutex.
	entry      int
	utterances []string
	commands   []domain.CommandID
	stopping   bool
	discarded  bool
}

func newActiveDictation(speech ports.SpeechSession) *activeDictation {
	return &activeDictation{
		speech:     speech,
		aggregator: &utteranceAggregator{},
		eventsDone: make(chan struct{}),
		entry:      -1,
	}
}

// recordDictation stores d's utterances as d's transcript entry, adding the
// entry on d's first utterance.
func (s *inspectionSession) recordDictation(d *activeDictation) {
	text := strings.Join(d.utterances, " ")
	if d.entry < 0 {
		s.transcript = append(s.transcript, text)
		d.entry = len(s.transcript) - 1
		return
	}
	s.transcript[d.entry] = text
}
