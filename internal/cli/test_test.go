package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	passing := `
description: unmatched lines pass through untouched
ruleset:
  rules:
    - type: skip
      when: {regex: 'DEBUG'}
input: |
  keep
  DEBUG drop
expect:
  emitted: 1
  dropped: 1
`
	failing := `
description: expectation that cannot hold
ruleset:
  rules: []
input: |
  one
  two
expect:
  emitted: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drop-debug.yaml"), []byte(passing), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong-count.yaml"), []byte(failing), 0o644))
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenarios"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandMixedResults(t *testing.T) {
	dir := writeScenarioDir(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "PASS  drop-debug")
	assert.Contains(t, output, "FAIL  wrong-count")
	assert.Contains(t, output, "1 passed, 1 failed, 2 total")
}

func TestTestCommandFilterPassingOnly(t *testing.T) {
	dir := writeScenarioDir(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--filter", "drop-*"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "PASS  drop-debug")
	assert.NotContains(t, output, "wrong-count")
	assert.Contains(t, output, "1 passed, 0 failed, 1 total")
}

func TestTestCommandFilterNoMatch(t *testing.T) {
	dir := writeScenarioDir(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--filter", "nothing-*"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no scenarios matched")
}

func TestTestCommandJSON(t *testing.T) {
	dir := writeScenarioDir(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, jsonErr := json.Marshal(resp.Data)
	require.NoError(t, jsonErr)
	var result TestResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 2)
	assert.NotEmpty(t, result.Scenarios[1].Errors)
}
