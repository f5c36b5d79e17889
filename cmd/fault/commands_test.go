// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIfaceYAML = `
name: passthrough
ports:
  - {name: I, dir: in}
  - {name: O, dir: out}
`

func writeRunInputs(t *testing.T, expect uint64) (ifacePath, scriptPath string) {
	t.Helper()
	dir := t.TempDir()
	ifacePath = filepath.Join(dir, "iface.yaml")
	require.NoError(t, os.WriteFile(ifacePath, []byte(testIfaceYAML), 0o644))
	scriptPath = filepath.Join(dir, "script.yaml")
	body := fmt.Sprintf("- poke: {path: I, value: 1}\n- eval: {}\n- expect: {path: O, value: %d}\n", expect)
	require.NoError(t, os.WriteFile(scriptPath, []byte(body), 0o644))
	return ifacePath, scriptPath
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := rootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func TestRunCommandPass(t *testing.T) {
	ifacePath, scriptPath := writeRunInputs(t, 1)
	logFile := filepath.Join(t.TempDir(), "run.json")
	err := execute(t, "run",
		"-i", ifacePath, "-s", scriptPath,
		"--target", "compiled-simulation",
		"--behavior", "passthrough",
		"--dir", t.TempDir(),
		"--log-json", logFile, "-v",
	)
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"engine":"interp"`)
}

func TestRunCommandFailureExitPath(t *testing.T) {
	ifacePath, scriptPath := writeRunInputs(t, 0)
	logFile := filepath.Join(t.TempDir(), "run.json")
	err := execute(t, "run",
		"-i", ifacePath, "-s", scriptPath,
		"--target", "compiled-simulation",
		"--behavior", "passthrough",
		"--dir", t.TempDir(),
		"--log-json", logFile, "-v",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errReportFailed),
		"a failing report must surface as the sentinel, not a process exit")

	// the deferred log close ran, so the JSON fan-out reached the file
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"engine":"interp"`)
}

func TestLowerCommand(t *testing.T) {
	ifacePath, scriptPath := writeRunInputs(t, 1)
	dir := t.TempDir()
	err := execute(t, "lower",
		"-i", ifacePath, "-s", scriptPath,
		"--target", "event-simulation",
		"--dir", dir,
	)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "passthrough_tb.sv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "module passthrough_tb;")
}

func TestRunCommandUnknownBehavior(t *testing.T) {
	ifacePath, scriptPath := writeRunInputs(t, 1)
	err := execute(t, "run", "-i", ifacePath, "-s", scriptPath, "--behavior", "mystery")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}
