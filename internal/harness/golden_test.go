package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			result, err := Run(sc)
			require.NoError(t, err)

			failures := Verify(sc, result)
			for _, f := range failures {
				t.Error(f)
			}

			require.NoError(t, RunWithGolden(t, sc))
		})
	}
}
