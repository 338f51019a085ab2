package corrections

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func writeRules(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "corrections.rules")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write corrections file: %v", err)
	}
	return path
}

func TestEngineLiteralAndRegexRules(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `
# literal, case-insensitive
for row a => varroa
# regex, global
s/\bqueen\s+scene\b/queen seen/g
`)

	engine, err := Load(path, 0)
	if err != nil {
		t.Fatalf("failed to load engine: %v", err)
	}

	output, err := engine.Apply("Queen scene and For Row A high")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if output != "queen seen and varroa high" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestEngineIteratesUntilStable(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "brute => brood\nbrood pattern food => brood pattern good\n")
	engine, err := Load(path, 5)
	if err != nil {
		t.Fatalf("failed to load engine: %v", err)
	}

	output, _ := engine.Apply("brute pattern food")
	if output != "brood pattern good" {
		t.Fatalf("expected brood pattern good, got %q", output)
	}
}

func TestEngineStopsAtIterationLimit(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "s/a/aa/\n")
	engine, err := Load(path, 3)
	if err != nil {
		t.Fatalf("failed to load engine: %v", err)
	}

	output, _ := engine.Apply("a")
	if output != "aaaa" {
		t.Fatalf("expected three passes, got %q", output)
	}
}

func TestEngineLiteralRuleStartingWithS(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "sealed brud => sealed brood\n")
	engine, err := Load(path, 0)
	if err != nil {
		t.Fatalf("failed to load engine: %v", err)
	}

	output, _ := engine.Apply("lots of sealed brud")
	if output != "lots of sealed brood" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestEngineSedFirstMatchAndGroups(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `s|frame (\d+)|frame #$1|`)
	engine, err := Load(path, 1)
	if err != nil {
		t.Fatalf("failed to load engine: %v", err)
	}

	output, _ := engine.Apply("frame 3 and frame 4")
	if output != "frame #3 and frame 4" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestEngineMissingOrEmptyPathIsNoop(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.rules")} {
		engine, err := Load(path, 0)
		if err != nil {
			t.Fatalf("load %q: %v", path, err)
		}
		if engine.Len() != 0 {
			t.Fatalf("expected no rules for %q", path)
		}
		output, _ := engine.Apply("Queen Seen")
		if output != "Queen Seen" {
			t.Fatalf("expected text unchanged, got %q", output)
		}
	}
}

func TestParseRejectsInvalidLines(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no format":    "just words",
		"empty source": " => varroa",
		"bad regex":    "s/(/x/",
		"bad flag":     "s/a/b/q",
		"unterminated": "s/a/b",
	}

	for name, contents := range cases {
		if _, err := Parse(contents, DefaultSyntax()); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestParseReportsLineNumber(t *testing.T) {
	t.Parallel()

	_, err := Parse("# comment\nqueen => queen\nbogus\n", DefaultSyntax())
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected line 3 error, got %v", err)
	}
}

func TestReloadKeepsRulesOnError(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "brute => brood\n")
	engine, err := Load(path, 0)
	if err != nil {
		t.Fatalf("failed to load engine: %v", err)
	}

	if err := os.WriteFile(path, []byte("not a rule\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := engine.Reload(path); err == nil {
		t.Fatal("expected reload error")
	}

	output, _ := engine.Apply("brute")
	if output != "brood" {
		t.Fatalf("expected previous rules kept, got %q", output)
	}
}

func TestEngineConcurrentApplyAndReplace(t *testing.T) {
	t.Parallel()

	engine := New(0)
	rules, err := Parse("brute => brood", DefaultSyntax())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			engine.Replace(rules)
		}()
		go func() {
			defer wg.Done()
			output, _ := engine.Apply("brute")
			if output != "brute" && output != "brood" {
				t.Errorf("unexpected output %q", output)
			}
		}()
	}
	wg.Wait()
}
