package usecase

import (
	"beespeak/internal/domain"
	"beespeak/internal/voice"
)

// utteranceOutcome is what one completed utterance did to the session.
type utteranceOutcome struct {
	corrected string
	patch     domain.InspectionFlags
	command   domain.CommandID
	matched   bool
}

// interpret runs corrections, flag extraction and command matching on one
// utterance. Extraction and matching both see the corrected text.
func (c *InspectionController) interpret(raw string) utteranceOutcome {
	corrected, err := c.corrector.Apply(raw)
	if err != nil {
		c.logger.Warn("transcript correction failed", "error", err)
		c.events.SessionError(domain.ErrorCodeCorrections, err.Error())
		corrected = raw
	}

	outcome := utteranceOutcome{
		corrected: corrected,
		patch:     c.vocab.ExtractFlags(corrected),
	}
	outcome.command, outcome.matched = c.vocab.MatchCommand(corrected)
	return outcome
}

// processUtterance applies one completed utterance to the session that owns d.
// Utterances from a dictation that is no longer current are dropped.
func (c *InspectionController) processUtterance(d *activeDictation, raw string) {
	outcome := c.interpret(raw)

	c.mu.Lock()
	session := c.session
	if session == nil || d.discarded || c.dictation != d {
		c.mu.Unlock()
		c.logger.Debug("dropping utterance from stale dictation", "utterance", raw)
		return
	}

	session.flags = voice.ApplyFlags(session.flags, outcome.patch)
	if outcome.matched {
		c.applyCommandLocked(session, outcome.command)
		d.commands = append(d.commands, outcome.command)
	}
	d.utterances = append(d.utterances, outcome.corrected)
	session.recordDictation(d)
	flags := session.flags.Clone()
	c.mu.Unlock()

	c.metrics.UtteranceProcessed()
	c.recordDetections(outcome.patch)
	c.events.UtteranceProcessed(raw, outcome.corrected, flags)
	if outcome.matched {
		c.relayCommand(outcome.command)
	}
}

// applyCommandLocked logs command and applies its effect. Caller holds c.mu.
func (c *InspectionController) applyCommandLocked(session *inspectionSession, command domain.CommandID) {
	session.commands = session.commands.Append(command)
	session.flags = voice.ApplyCommand(session.flags, command)
	if command == domain.CommandNextFrame {
		session.frame++
	}
}

func (c *InspectionController) relayCommand(command domain.CommandID) {
	c.metrics.CommandRecognized(command)
	c.logger.Debug("voice command recognized", "command", command)
	if voice.IsLifecycleCommand(command) {
		c.events.LifecycleCommand(command)
	}
}

func (c *InspectionController) recordDetections(patch domain.InspectionFlags) {
	for _, field := range domain.FlagFields {
		if patch.Get(field) != nil {
			c.metrics.FlagDetected(string(field))
		}
	}
	if patch.VarroaLevel != domain.VarroaNone {
		c.metrics.FlagDetected("varroa_level")
	}
}
