package voice

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"beespeak/internal/domain"
)

// Vocabulary bundles the command table with the flag tables. One utterance can
// fire both.
type Vocabulary struct {
	Commands CommandTable `yaml:"commands"`
	Flags    FlagTable    `yaml:"flags"`
	Varroa   VarroaTable  `yaml:"varroa"`
}

var defaultVocabulary = DefaultVocabulary()

// DefaultVocabulary returns the built-in tables.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Commands: DefaultCommandTable(),
		Flags:    DefaultFlagTable(),
		Varroa:   DefaultVarroaTable(),
	}
}

// MatchCommand matches against v's command table.
func (v Vocabulary) MatchCommand(transcript string) (domain.CommandID, bool) {
	return v.Commands.Match(transcript)
}

// ExtractFlags extracts against v's flag tables.
func (v Vocabulary) ExtractFlags(transcript string) domain.InspectionFlags {
	return Extract(v.Flags, v.Varroa, transcript)
}

// Keywords returns the distinct words of every phrase, in first-seen order.
func (v Vocabulary) Keywords() []string {
	var phrases []string
	phrases = append(phrases, v.Commands.Phrases()...)
	for _, entry := range v.Flags {
		phrases = append(phrases, entry.Positive...)
		phrases = append(phrases, entry.Negative...)
	}
	for _, entry := range v.Varroa {
		phrases = append(phrases, entry.Phrases...)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, phrase := range phrases {
		for _, word := range strings.Fields(phrase) {
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			out = append(out, word)
		}
	}
	return out
}

func (v Vocabulary) Validate() error {
	if err := v.Commands.Validate(); err != nil {
		return fmt.Errorf("commands: %w", err)
	}
	if err := v.Flags.Validate(); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	if err := v.Varroa.Validate(); err != nil {
		return fmt.Errorf("varroa: %w", err)
	}
	return nil
}

// LoadVocabulary reads a YAML vocabulary file. Sections missing from the file
// keep their defaults; a missing file or empty path yields DefaultVocabulary.
func LoadVocabulary(path string) (Vocabulary, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultVocabulary(), nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultVocabulary(), nil
		}
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary file %q: %w", path, err)
	}

	vocab, err := ParseVocabulary(contents)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary file %q: %w", path, err)
	}
	return vocab, nil
}

// ParseVocabulary decodes YAML contents over the defaults.
func ParseVocabulary(contents []byte) (Vocabulary, error) {
	var file Vocabulary
	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Vocabulary{}, err
	}

	vocab := DefaultVocabulary()
	if len(file.Commands) > 0 {
		vocab.Commands = file.Commands.clone()
	}
	if len(file.Flags) > 0 {
		vocab.Flags = file.Flags.clone()
	}
	if len(file.Varroa) > 0 {
		vocab.Varroa = file.Varroa.clone()
	}

	if err := vocab.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return vocab, nil
}

// YAML renders v in the same format LoadVocabulary reads.
func (v Vocabulary) YAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
