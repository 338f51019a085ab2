package voice

import (
	"fmt"

	"beespeak/internal/domain"
)

// FlagPhrases is the phrase table for one tri-state dimension. Positive phrases
// are checked first; negative phrases only decide when no positive phrase is present.
type FlagPhrases struct {
	Field    domain.FlagField `yaml:"field"`
	Positive []string         `yaml:"positive"`
	Negative []string         `yaml:"negative"`
}

// VarroaPhrases triggers one varroa level.
type VarroaPhrases struct {
	Level   domain.VarroaLevel `yaml:"level"`
	Phrases []string           `yaml:"phrases"`
}

// FlagTable holds one entry per tri-state dimension.
type FlagTable []FlagPhrases

// VarroaTable is checked in order; the first level with a matching phrase wins.
type VarroaTable []VarroaPhrases

// DefaultFlagTable returns a fresh copy of the built-in flag phrases.
func DefaultFlagTable() FlagTable {
	return FlagTable{
		{domain.FlagQueenSeen, []string{"queen seen", "saw queen"}, []string{"queen not seen", "no queen"}},
		{domain.FlagEggsPresent, []string{"eggs present", "eggs seen"}, []string{"eggs not present", "no eggs"}},
		{domain.FlagBroodPatternGood, []string{"brood good", "good brood"}, []string{"brood bad", "poor brood"}},
		{domain.FlagQueenCells, []string{"queen cells present", "queen cells seen"}, []string{"queen cells absent", "no queen cells"}},
	}
}

// DefaultVarroaTable returns the built-in levels, highest first.
func DefaultVarroaTable() VarroaTable {
	return VarroaTable{
		{domain.VarroaHigh, []string{"varroa high", "high varroa"}},
		{domain.VarroaMedium, []string{"varroa medium", "medium varroa"}},
		{domain.VarroaLow, []string{"varroa low", "low varroa"}},
	}
}

// Extract builds the sparse patch for a transcript from both tables.
func Extract(flags FlagTable, varroa VarroaTable, transcript string) domain.InspectionFlags {
	normalized := normalize(transcript)
	var out domain.InspectionFlags
	if normalized == "" {
		return out
	}

	for _, entry := range flags {
		switch {
		case containsAny(normalized, entry.Positive):
			out.Set(entry.Field, domain.Bool(true))
		case containsAny(normalized, entry.Negative):
			out.Set(entry.Field, domain.Bool(false))
		}
	}

	for _, entry := range varroa {
		if containsAny(normalized, entry.Phrases) {
			out.VarroaLevel = entry.Level
			break
		}
	}
	return out
}

// ExtractFlags extracts flags using the default tables.
func ExtractFlags(transcript string) domain.InspectionFlags {
	return defaultVocabulary.ExtractFlags(transcript)
}

func (t FlagTable) Validate() error {
	seen := make(map[domain.FlagField]struct{}, len(t))
	for _, entry := range t {
		known := false
		for _, field := range domain.FlagFields {
			if field == entry.Field {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown flag field %q", entry.Field)
		}
		if _, dup := seen[entry.Field]; dup {
			return fmt.Errorf("duplicate flag field %q", entry.Field)
		}
		seen[entry.Field] = struct{}{}
		if err := validatePhrases(entry.Positive); err != nil {
			return fmt.Errorf("flag %q positive: %w", entry.Field, err)
		}
		if err := validatePhrases(entry.Negative); err != nil {
			return fmt.Errorf("flag %q negative: %w", entry.Field, err)
		}
	}
	return nil
}

func (t VarroaTable) Validate() error {
	seen := make(map[domain.VarroaLevel]struct{}, len(t))
	for _, entry := range t {
		if entry.Level == domain.VarroaNone {
			return fmt.Errorf("varroa level %s cannot be triggered by a phrase", entry.Level)
		}
		if _, dup := seen[entry.Level]; dup {
			return fmt.Errorf("duplicate varroa level %s", entry.Level)
		}
		seen[entry.Level] = struct{}{}
		if err := validatePhrases(entry.Phrases); err != nil {
			return fmt.Errorf("varroa %s: %w", entry.Level, err)
		}
	}
	return nil
}

func (t FlagTable) clone() FlagTable {
	out := make(FlagTable, len(t))
	for i, entry := range t {
		out[i] = FlagPhrases{Field: entry.Field, Positive: lowerAll(entry.Positive), Negative: lowerAll(entry.Negative)}
	}
	return out
}

func (t VarroaTable) clone() VarroaTable {
	out := make(VarroaTable, len(t))
	for i, entry := range t {
		out[i] = VarroaPhrases{Level: entry.Level, Phrases: lowerAll(entry.Phrases)}
	}
	return out
}
