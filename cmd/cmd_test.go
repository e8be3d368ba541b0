package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with a config file in dir
func execute(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MQJS_STORE_PATH", filepath.Join(dir, "store"))
	out := new(bytes.Buffer)
	root := newRootCmd()
	root.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yml")}, args...))
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), err
}

func TestRunCmd(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "run", "-e", "print('1+2=', 1+2)")
	require.NoError(t, err)
	assert.Equal(t, "1+2= 3\n", out)

	out, err = execute(t, dir, "print('from stdin')", "run", "-")
	require.NoError(t, err)
	assert.Equal(t, "from stdin\n", out)

	file := filepath.Join(dir, "hello.js")
	require.NoError(t, os.WriteFile(file, []byte("print('file')"), 0o600))
	out, err = execute(t, dir, "", "run", file)
	require.NoError(t, err)
	assert.Equal(t, "file\n", out)

	out, err = execute(t, dir, "", "run", "-e", "throw new Error('boom')")
	assert.ErrorIs(t, err, errScriptFailed)
	assert.True(t, strings.HasPrefix(out, "Error: boom"), out)

	_, err = execute(t, dir, "", "run", "--arena", "1MB", "-e", "1")
	assert.ErrorContains(t, err, "failed to allocate memory")

	out, err = execute(t, dir, "", "run", "--timeout", "100ms", "-e", "while(true){}")
	assert.ErrorIs(t, err, errScriptFailed)
	assert.Contains(t, out, "InterruptedError")

	_, err = execute(t, dir, "", "run", "--strict", "-e", "undeclared = 1")
	assert.ErrorIs(t, err, errScriptFailed)
}

func TestExamplesCmd(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "examples")
	require.NoError(t, err)
	assert.Equal(t, "hello\nmandelbrot\n", out)

	out, err = execute(t, dir, "", "examples", "hello")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Hello from mquickjs!\n1+2= 3\nTime: "), out)

	_, err = execute(t, dir, "", "examples", "missing")
	assert.Error(t, err)
}

func TestScriptsCmd(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "print('stored')", "scripts", "put", "greet")
	require.NoError(t, err)

	out, err := execute(t, dir, "", "scripts", "list")
	require.NoError(t, err)
	assert.Equal(t, "greet\n", out)

	out, err = execute(t, dir, "", "scripts", "get", "greet")
	require.NoError(t, err)
	assert.Equal(t, "print('stored')", out)

	out, err = execute(t, dir, "", "run", "--name", "greet")
	require.NoError(t, err)
	assert.Equal(t, "stored\n", out)

	_, err = execute(t, dir, "", "scripts", "rm", "greet")
	require.NoError(t, err)
	_, err = execute(t, dir, "", "scripts", "get", "greet")
	assert.ErrorContains(t, err, "script not found")
}

func TestConfigCmd(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "gen", "config.yml")

	_, err := execute(t, dir, "", "config", "--gen", file)
	require.NoError(t, err)
	assert.FileExists(t, file)
	_, err = execute(t, dir, "", "config", "--gen", file)
	assert.ErrorContains(t, err, "already exists")

	out, err := execute(t, dir, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "arena-size: 16384")
	assert.FileExists(t, filepath.Join(dir, "config.yml"))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mqjs (untracked)/(unknown)")
}

func TestRootCmd(t *testing.T) {
	out, err := execute(t, t.TempDir(), "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Generating Mandelbrot set...\n"), out)
}
