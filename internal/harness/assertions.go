package harness

import "fmt"

// Verify checks a run result against the scenario's expectations and
// returns one failure message per violated expectation. An empty slice
// means the scenario passed.
func Verify(sc *Scenario, result *Result) []string {
	var failures []string

	if sc.Expect.Output != nil {
		got := result.Text()
		if got != *sc.Expect.Output {
			failures = append(failures, fmt.Sprintf(
				"output mismatch:\n--- expected ---\n%s--- actual ---\n%s", *sc.Expect.Output, got))
		}
	}

	if sc.Expect.Emitted != nil && result.Emitted != *sc.Expect.Emitted {
		failures = append(failures, fmt.Sprintf(
			"emitted %d lines, expected %d", result.Emitted, *sc.Expect.Emitted))
	}

	if sc.Expect.Dropped != nil && result.Dropped != *sc.Expect.Dropped {
		failures = append(failures, fmt.Sprintf(
			"dropped %d lines, expected %d", result.Dropped, *sc.Expect.Dropped))
	}

	return failures
}
