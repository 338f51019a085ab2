// Package corrections rewrites recognizer output before it reaches the voice
// matcher, e.g. turning a misheard "for row a" back into "varroa".
package corrections

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

// DefaultIterationLimit bounds how many passes Apply makes before giving up on a
// rule set that never settles.
const DefaultIterationLimit = 30

// Rule is one compiled substitution.
type Rule interface {
	Rewrite(input string) (output string, changed bool)
}

// Syntax recognizes and compiles one line format of a corrections file.
type Syntax interface {
	Accepts(line string) bool
	Compile(line string) (Rule, error)
}

// Engine applies an ordered rule list until the text stops changing. It is safe
// for concurrent use; Replace swaps the rule list atomically.
type Engine struct {
	limit  int
	syntax []Syntax

	mu    sync.RWMutex
	rules []Rule
}

// New returns an engine with no rules.
func New(limit int, syntax ...Syntax) *Engine {
	if limit <= 0 {
		limit = DefaultIterationLimit
	}
	if len(syntax) == 0 {
		syntax = DefaultSyntax()
	}
	return &Engine{limit: limit, syntax: syntax}
}

// Load builds an engine from a corrections file. An empty path or missing file
// yields an engine that leaves text unchanged.
func Load(path string, limit int, syntax ...Syntax) (*Engine, error) {
	engine := New(limit, syntax...)
	if err := engine.Reload(path); err != nil {
		return nil, err
	}
	return engine, nil
}

// Reload replaces the rules with the contents of path. On error the current
// rules stay in place.
func (e *Engine) Reload(path string) error {
	if strings.TrimSpace(path) == "" {
		e.Replace(nil)
		return nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			e.Replace(nil)
			return nil
		}
		return fmt.Errorf("failed to read corrections file %q: %w", path, err)
	}

	rules, err := Parse(string(contents), e.syntax)
	if err != nil {
		return fmt.Errorf("failed to parse corrections file %q: %w", path, err)
	}
	e.Replace(rules)
	return nil
}

// Replace installs a new rule list.
func (e *Engine) Replace(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
}

// Len reports how many rules are installed.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// Apply rewrites text with every rule, repeating while any rule still changes it.
func (e *Engine) Apply(text string) (string, error) {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	if len(rules) == 0 {
		return text, nil
	}

	result := text
	for pass := 0; pass < e.limit; pass++ {
		dirty := false
		for _, rule := range rules {
			if next, changed := rule.Rewrite(result); changed {
				result = next
				dirty = true
			}
		}
		if !dirty {
			break
		}
	}
	return result, nil
}

// Parse compiles a corrections file body. Blank lines and lines starting with
// '#' are skipped; the first syntax that accepts a line compiles it.
func Parse(contents string, syntax []Syntax) ([]Rule, error) {
	lines := strings.Split(contents, "\n")
	rules := make([]Rule, 0, len(lines))

lines:
	for number, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		for _, candidate := range syntax {
			if !candidate.Accepts(line) {
				continue
			}
			rule, err := candidate.Compile(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", number+1, err)
			}
			rules = append(rules, rule)
			continue lines
		}
		return nil, fmt.Errorf("line %d: unsupported rule format", number+1)
	}
	return rules, nil
}

// DefaultSyntax accepts sed-style regex rules first, then literal "from => to" rules.
func DefaultSyntax() []Syntax {
	return []Syntax{SedSyntax{}, ArrowSyntax{}}
}

// ArrowSyntax handles "misheard phrase => replacement", matched case-insensitively.
type ArrowSyntax struct{}

func (ArrowSyntax) Accepts(line string) bool {
	return strings.Contains(line, "=>")
}

func (ArrowSyntax) Compile(line string) (Rule, error) {
	from, to, ok := strings.Cut(line, "=>")
	if !ok {
		return nil, errors.New("invalid literal rule")
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, errors.New("literal rule source cannot be empty")
	}

	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(from))
	if err != nil {
		return nil, fmt.Errorf("invalid literal source: %w", err)
	}
	return literalRule{re: re, to: strings.TrimSpace(to)}, nil
}

type literalRule struct {
	re *regexp.Regexp
	to string
}

func (r literalRule) Rewrite(input string) (string, bool) {
	output := r.re.ReplaceAllLiteralString(input, r.to)
	return output, output != input
}

// SedSyntax handles s/pattern/replacement/flags with any non-alphanumeric
// delimiter. Matching is case-insensitive unless stated otherwise; g replaces
// every match instead of the first.
type SedSyntax struct{}

func (SedSyntax) Accepts(line string) bool {
	return len(line) > 1 && line[0] == 's' && !isWordByte(line[1])
}

func (SedSyntax) Compile(line string) (Rule, error) {
	if len(line) < 2 {
		return nil, errors.New("invalid regex rule")
	}
	delim := line[1]
	if isWordByte(delim) {
		return nil, errors.New("regex delimiter must be non-alphanumeric")
	}

	pattern, next, err := readDelimited(line, 2, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	replacement, next, err := readDelimited(line, next, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid regex replacement: %w", err)
	}

	modes := map[rune]bool{'i': true}
	global := false
	for _, flag := range strings.TrimSpace(line[next:]) {
		switch flag {
		case 'i', 'm', 's':
			modes[flag] = true
		case 'g':
			global = true
		case ' ':
		default:
			return nil, fmt.Errorf("unsupported regex flag %q", flag)
		}
	}

	prefix := ""
	for _, flag := range []rune{'i', 'm', 's'} {
		if modes[flag] {
			prefix += string(flag)
		}
	}

	re, err := regexp.Compile("(?" + prefix + ")" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	return sedRule{re: re, replacement: replacement, global: global}, nil
}

type sedRule struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

func (r sedRule) Rewrite(input string) (string, bool) {
	if r.global {
		output := r.re.ReplaceAllString(input, r.replacement)
		return output, output != input
	}

	loc := r.re.FindStringSubmatchIndex(input)
	if loc == nil {
		return input, false
	}
	expanded := r.re.ExpandString(nil, r.replacement, input, loc)
	output := input[:loc[0]] + string(expanded) + input[loc[1]:]
	return output, output != input
}

// readDelimited reads up to the next unescaped delim, keeping escapes intact
// for the regexp compiler.
func readDelimited(line string, start int, delim byte) (string, int, error) {
	if start >= len(line) {
		return "", 0, errors.New("unexpected end of expression")
	}

	var b strings.Builder
	for i := start; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			b.WriteByte(c)
			b.WriteByte(line[i+1])
			i++
		case c == delim:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, errors.New("unterminated expression")
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == ' ' || c == '\t'
}
