package usecase

import (
	"strings"
	"sync"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
)

// utteranceAggregator turns the recognizer's running updates into completed
// utterances. A partial result is remembered until a final replaces it, so a
// dictation stopped mid-utterance can still be flushed.
type utteranceAggregator struct {
	mu      sync.Mutex
	pending string
}

// Add records event and returns the utterance it completes, if any.
func (a *utteranceAggregator) Add(event domain.TranscriptEvent) (string, bool) {
	text := strings.TrimSpace(event.Text)
	if text == "" {
		return "", false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if event.Kind == domain.TranscriptKindFinal {
		a.pending = ""
		return text, true
	}
	a.pending = text
	return "", false
}

// Flush returns the trailing partial-only utterance and forgets it.
func (a *utteranceAggregator) Flush() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pending := a.pending
	a.pending = ""
	return pending, pending != ""
}

// consumeTranscriptEvents relays partial text and hands each completed utterance
// to process, one at a time, in arrival order.
func consumeTranscriptEvents(
	events <-chan domain.TranscriptEvent,
	aggregator *utteranceAggregator,
	sink ports.EventSink,
	process func(utterance string),
	done chan struct{},
) {
	defer close(done)

	for event := range events {
		utterance, complete := aggregator.Add(event)
		if complete {
			process(utterance)
			continue
		}
		if event.Kind == domain.TranscriptKindPartial {
			if text := strings.TrimSpace(event.Text); text != "" {
				sink.PartialTranscript(text)
			}
		}
	}
}
