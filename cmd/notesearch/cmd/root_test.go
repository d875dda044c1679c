package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps tests away from the real user config and environment.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"NOTESEARCH_ROOT", "NOTESEARCH_LANGUAGES", "NOTESEARCH_STORE_BACKEND", "NOTESEARCH_WORKERS", "NOTESEARCH_LOG_LEVEL", "NOTESEARCH_TRANSPORT"} {
		t.Setenv(k, "")
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func scenarioRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc1.txt"), []byte("the quick brown fox"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "doc2.txt"), []byte("the quick red fox runs"), 0o644))
	return root
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given: a root command

	// When: executing with --help
	out, _, err := execute(t, "--help")

	// Then: usage lists the subcommands
	require.NoError(t, err)
	for _, sub := range []string{"index", "search", "serve", "watch", "config", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_Version(t *testing.T) {
	out, _, err := execute(t, "--version")

	require.NoError(t, err)
	assert.Contains(t, out, "notesearch version")
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, _, err := execute(t, "compact")

	assert.Error(t, err)
}

func TestLoadConfig_Precedence(t *testing.T) {
	isolate(t)

	t.Run("explicit path", func(t *testing.T) {
		dir := t.TempDir()
		_, root, err := loadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, root)
	})

	t.Run("working directory", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)
		_, root, err := loadConfig("")
		require.NoError(t, err)
		resolved, _ := filepath.EvalSymlinks(dir)
		got, _ := filepath.EvalSymlinks(root)
		assert.Equal(t, resolved, got)
	})

	t.Run("configured root", func(t *testing.T) {
		notes := t.TempDir()
		t.Setenv("NOTESEARCH_ROOT", notes)
		chdir(t, t.TempDir())
		_, root, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, notes, root)
	})
}

func TestLoadConfig_InvalidProjectFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".notesearch.yaml"), []byte("index:\n  store_backend: postgres\n"), 0o644))

	_, _, err := loadConfig(dir)

	assert.Error(t, err)
}

func TestRootCmd_ProfileFlags(t *testing.T) {
	// Given: profile outputs in a temp dir
	dir := t.TempDir()
	cpu, heap := filepath.Join(dir, "cpu.out"), filepath.Join(dir, "heap.out")

	// When: running any command with profiling enabled
	_, _, err := execute(t, "--profile-cpu", cpu, "--profile-mem", heap, "version", "--short")

	// Then: both profiles are written
	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, heap)
}
