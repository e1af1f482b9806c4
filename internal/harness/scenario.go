package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Defaults to the file
	// name without extension.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Rules is a path to a rule-set document, relative to the scenario
	// file. Mutually exclusive with Ruleset.
	Rules string `yaml:"rules,omitempty"`

	// Ruleset is an inline rule-set document. Mutually exclusive with
	// Rules.
	Ruleset yaml.Node `yaml:"ruleset,omitempty"`

	// Input is the raw input text. Lines are split on newlines; a
	// trailing newline does not produce an empty final line.
	Input string `yaml:"input"`

	// Expect holds the expectations checked by Verify.
	Expect ExpectClause `yaml:"expect"`

	// dir is the directory the scenario was loaded from, for resolving
	// the Rules path.
	dir string
}

// ExpectClause specifies expected pipeline output.
type ExpectClause struct {
	// Output is the exact expected output text, including header and
	// footer lines. Nil skips the check.
	Output *string `yaml:"output,omitempty"`

	// Emitted is the expected count of emitted lines (header and
	// footer excluded). Nil skips the check.
	Emitted *int `yaml:"emitted,omitempty"`

	// Dropped is the expected count of dropped lines. Nil skips the
	// check.
	Dropped *int `yaml:"dropped,omitempty"`
}

// LoadScenario reads one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}

	if sc.Name == "" {
		base := filepath.Base(path)
		sc.Name = base[:len(base)-len(filepath.Ext(base))]
	}
	sc.dir = filepath.Dir(path)

	if sc.Rules != "" && !sc.Ruleset.IsZero() {
		return nil, fmt.Errorf("scenario %s: rules and ruleset are mutually exclusive", sc.Name)
	}
	if sc.Rules == "" && sc.Ruleset.IsZero() {
		return nil, fmt.Errorf("scenario %s: one of rules or ruleset is required", sc.Name)
	}

	return &sc, nil
}

// LoadScenarios reads every *.yaml and *.yml scenario under dir,
// sorted by file name for deterministic run order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}

	return scenarios, nil
}

// rulesetBytes returns the serialized rule-set document this scenario
// runs against.
func (sc *Scenario) rulesetBytes() ([]byte, error) {
	if sc.Rules != "" {
		data, err := os.ReadFile(filepath.Join(sc.dir, sc.Rules))
		if err != nil {
			return nil, fmt.Errorf("scenario %s: read rules: %w", sc.Name, err)
		}
		return data, nil
	}

	data, err := yaml.Marshal(&sc.Ruleset)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: marshal inline ruleset: %w", sc.Name, err)
	}
	return data, nil
}
