// Package voice turns dictated inspection transcripts into discrete commands and
// sparse flag updates. Everything here is pure: the tables are values and no
// call keeps state between invocations.
package voice

import (
	"errors"
	"fmt"
	"strings"

	"beespeak/internal/domain"
)

// CommandKeyword maps one command to its trigger phrases. Phrases are lowercase
// substrings of the normalized transcript.
type CommandKeyword struct {
	Command domain.CommandID `yaml:"id"`
	Phrases []string         `yaml:"phrases"`
}

// CommandTable is matched in slice order; the first command owning a contained
// phrase wins, even when a later command has a longer or more specific phrase.
type CommandTable []CommandKeyword

// DefaultCommandTable returns a fresh copy of the built-in command table.
func DefaultCommandTable() CommandTable {
	return CommandTable{
		{domain.CommandStartInspection, []string{"start inspection", "begin inspection"}},
		{domain.CommandFinishInspection, []string{"finish inspection", "end inspection", "complete inspection"}},
		{domain.CommandQueenSeen, []string{"queen seen", "saw queen", "queen present"}},
		{domain.CommandQueenNotSeen, []string{"queen not seen", "no queen", "queen absent"}},
		{domain.CommandEggsPresent, []string{"eggs present", "eggs seen", "has eggs"}},
		{domain.CommandEggsNotPresent, []string{"eggs not present", "no eggs", "eggs absent"}},
		{domain.CommandBroodGood, []string{"brood good", "brood pattern good", "good brood"}},
		{domain.CommandBroodBad, []string{"brood bad", "brood pattern bad", "poor brood"}},
		{domain.CommandQueenCellsPresent, []string{"queen cells present", "queen cells seen", "has queen cells"}},
		{domain.CommandQueenCellsAbsent, []string{"queen cells absent", "no queen cells", "queen cells not present"}},
		{domain.CommandVarroaLow, []string{"varroa low", "low varroa"}},
		{domain.CommandVarroaMedium, []string{"varroa medium", "medium varroa"}},
		{domain.CommandVarroaHigh, []string{"varroa high", "high varroa"}},
		{domain.CommandAddPhoto, []string{"add photo", "take photo", "capture photo"}},
		{domain.CommandNextFrame, []string{"next frame", "mark frame"}},
		{domain.CommandSave, []string{"save", "save inspection"}},
		{domain.CommandCancel, []string{"cancel", "discard"}},
	}
}

// Match returns the first command whose phrase occurs in the lowercased transcript.
func (t CommandTable) Match(transcript string) (domain.CommandID, bool) {
	normalized := normalize(transcript)
	if normalized == "" {
		return "", false
	}
	for _, entry := range t {
		if containsAny(normalized, entry.Phrases) {
			return entry.Command, true
		}
	}
	return "", false
}

// Validate checks that commands are known and unique and phrases are usable.
func (t CommandTable) Validate() error {
	seen := make(map[domain.CommandID]struct{}, len(t))
	for index, entry := range t {
		if !domain.IsKnownCommand(entry.Command) {
			return fmt.Errorf("command %d: unknown command %q", index+1, entry.Command)
		}
		if _, dup := seen[entry.Command]; dup {
			return fmt.Errorf("command %d: duplicate command %q", index+1, entry.Command)
		}
		seen[entry.Command] = struct{}{}
		if err := validatePhrases(entry.Phrases); err != nil {
			return fmt.Errorf("command %q: %w", entry.Command, err)
		}
	}
	return nil
}

// Phrases returns every phrase in table order, used to bias recognizers.
func (t CommandTable) Phrases() []string {
	var out []string
	for _, entry := range t {
		out = append(out, entry.Phrases...)
	}
	return out
}

func (t CommandTable) clone() CommandTable {
	out := make(CommandTable, len(t))
	for i, entry := range t {
		out[i] = CommandKeyword{Command: entry.Command, Phrases: lowerAll(entry.Phrases)}
	}
	return out
}

// MatchCommand matches transcript against the default command table.
func MatchCommand(transcript string) (domain.CommandID, bool) {
	return defaultVocabulary.Commands.Match(transcript)
}

// normalize lowercases only. Punctuation and accents are part of the input.
func normalize(transcript string) string {
	return strings.ToLower(transcript)
}

func containsAny(normalized string, phrases []string) bool {
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

func validatePhrases(phrases []string) error {
	if len(phrases) == 0 {
		return errors.New("no phrases")
	}
	for _, phrase := range phrases {
		if strings.TrimSpace(phrase) == "" {
			return errors.New("empty phrase")
		}
		if phrase != strings.ToLower(phrase) {
			return fmt.Errorf("phrase %q is not lowercase and can never match", phrase)
		}
	}
	return nil
}

func lowerAll(phrases []string) []string {
	out := make([]string, len(phrases))
	for i, phrase := range phrases {
		out[i] = strings.ToLower(phrase)
	}
	return out
}
