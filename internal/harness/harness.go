package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/sift/internal/engine"
	"github.com/roach88/sift/internal/ruleset"
)

// Result captures everything a scenario run produced.
type Result struct {
	// Lines is the full output in order: header (if any), emitted
	// lines, footer (if any).
	Lines []string

	// Emitted counts emitted lines, header and footer excluded.
	Emitted int

	// Dropped counts lines that produced no output.
	Dropped int
}

// Text returns the output as newline-terminated text, or the empty
// string when nothing was produced.
func (r *Result) Text() string {
	if len(r.Lines) == 0 {
		return ""
	}
	return strings.Join(r.Lines, "\n") + "\n"
}

// Run executes one scenario through a real pipeline.
func Run(sc *Scenario) (*Result, error) {
	data, err := sc.rulesetBytes()
	if err != nil {
		return nil, err
	}

	rs, err := ruleset.Load(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	pipeline, err := engine.NewPipeline(rs)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	result := &Result{}

	if header, ok, err := pipeline.Header(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	} else if ok {
		result.Lines = append(result.Lines, header)
	}

	for _, line := range splitLines(sc.Input) {
		out, emitted, err := pipeline.ProcessLine(line)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		if emitted {
			result.Lines = append(result.Lines, out)
			result.Emitted++
		} else {
			result.Dropped++
		}
	}

	if footer, ok, err := pipeline.Footer(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	} else if ok {
		result.Lines = append(result.Lines, footer)
	}

	return result, nil
}

// splitLines splits input text into lines. A trailing newline does not
// produce an empty final line; partial last lines are still processed.
func splitLines(input string) []string {
	if input == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(input, "\n"), "\n")
}
