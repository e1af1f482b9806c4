package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/trace"
)

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "input.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunMissingRulesArg(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arg")
}

func TestRunNonExistentRules(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"/nonexistent/rules.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunEndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	rulesPath := filepath.Join(tmpDir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(validRules+`
header: '# cleaned'
footer: '# done'
`), 0o644))

	inputPath := writeInput(t, tmpDir, `[INFO] started
[DEBUG] healthcheck ok
[WARN] user=1234 login failed
[INFO] all good
`)
	outPath := filepath.Join(tmpDir, "out.log")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{rulesPath, inputPath, "-o", outPath})

	err := cmd.Execute()
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "# cleaned\nINFO | started\nWARN | user=<1234>\nINFO | all good\n# done\n", string(data))
}

func TestRunUnmatchedSkip(t *testing.T) {
	tmpDir := t.TempDir()
	rulesPath := filepath.Join(tmpDir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`
unmatched: skip
rules:
  - type: pass
    when: {regex: 'error', flags: i}
`), 0o644))

	inputPath := writeInput(t, tmpDir, "ok\nERROR boom\nfine\nerror again\n")
	outPath := filepath.Join(tmpDir, "out.log")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{rulesPath, inputPath, "-o", outPath})

	err := cmd.Execute()
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "ERROR boom\nerror again\n", string(data))
}

func TestRunRenderErrorIsTerminal(t *testing.T) {
	tmpDir := t.TempDir()
	rulesPath := filepath.Join(tmpDir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`
rules:
  - type: rewrite
    description: broken rewrite
    when: {regex: 'bad'}
    replace: '{{.missing}}'
`), 0o644))

	inputPath := writeInput(t, tmpDir, "first line\nbad line\nnever processed\n")
	outPath := filepath.Join(tmpDir, "out.log")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{rulesPath, inputPath, "-o", outPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "line 2")

	// Lines emitted before the failure stay emitted.
	data, readErr := os.ReadFile(outPath)
	require.NoError(t, readErr)
	assert.Equal(t, "first line\n", string(data))
}

func TestRunWithTrace(t *testing.T) {
	tmpDir := t.TempDir()
	rulesPath := filepath.Join(tmpDir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`
description: drop debug
rules:
  - type: skip
    description: drop debug lines
    when: {regex: 'DEBUG'}
`), 0o644))

	inputPath := writeInput(t, tmpDir, "keep me\nDEBUG drop me\n")
	outPath := filepath.Join(tmpDir, "out.log")
	dbPath := filepath.Join(tmpDir, "decisions.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{rulesPath, inputPath, "-o", outPath, "--trace", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	st, err := trace.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Finished)
	assert.Equal(t, int64(2), runs[0].LinesIn)
	assert.Equal(t, int64(1), runs[0].LinesOut)

	decisions, err := st.Decisions(ctx, runs[0].ID)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.True(t, decisions[0].Emitted)
	assert.False(t, decisions[1].Emitted)
	assert.Equal(t, 0, decisions[1].RuleIndex)
	assert.Equal(t, "drop debug lines", decisions[1].RuleDescription)
}

func TestRunUnknownEncoding(t *testing.T) {
	tmpDir := t.TempDir()
	rulesPath := filepath.Join(tmpDir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte("rules: []\n"), 0o644))
	inputPath := writeInput(t, tmpDir, "x\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{rulesPath, inputPath, "--encoding", "not-a-charset"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown encoding")
}

func TestRunLatin1Encoding(t *testing.T) {
	tmpDir := t.TempDir()
	rulesPath := filepath.Join(tmpDir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`
rules:
  - type: skip
    when: {regex: 'drop'}
`), 0o644))

	// "café" in ISO-8859-1: é is 0xE9.
	inputPath := writeInput(t, tmpDir, "caf\xe9\ndrop this\n")
	outPath := filepath.Join(tmpDir, "out.log")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{rulesPath, inputPath, "-o", outPath, "--encoding", "latin1"})

	err := cmd.Execute()
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "caf\xe9\n", string(data), "output is re-encoded to the input charset")
}
