package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/notesearch/notesearch/configs"
	"github.com/notesearch/notesearch/internal/config"
)

func TestConfigInit_Project(t *testing.T) {
	// Given: a directory without a project config
	isolate(t)
	dir := t.TempDir()

	// When: running config init
	out, _, err := execute(t, "config", "init", dir)

	// Then: the template is written and it loads cleanly
	require.NoError(t, err)
	assert.Contains(t, out, "Created configuration")
	data, err := os.ReadFile(filepath.Join(dir, config.ProjectFileName))
	require.NoError(t, err)
	assert.Equal(t, configs.ProjectConfigTemplate, string(data))

	_, err = config.Load(dir)
	assert.NoError(t, err)
}

func TestConfigInit_ExistingNeedsForce(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, config.ProjectFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	out, _, err := execute(t, "config", "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
	data, _ := os.ReadFile(path)
	assert.Equal(t, "version: 1\n", string(data))

	_, _, err = execute(t, "config", "init", "--force", dir)
	require.NoError(t, err)
	data, _ = os.ReadFile(path)
	assert.Equal(t, configs.ProjectConfigTemplate, string(data))
}

func TestConfigInit_User(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "config", "init", "--user")

	require.NoError(t, err)
	assert.FileExists(t, config.GetUserConfigPath())
	_, err = config.Load("")
	assert.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProjectFileName), []byte("search:\n  proximity_window: 3\n"), 0o644))

	t.Run("yaml", func(t *testing.T) {
		out, _, err := execute(t, "config", "show", dir)
		require.NoError(t, err)

		var cfg config.Config
		require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
		assert.Equal(t, 3, cfg.Search.ProximityWindow)
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "config", "show", "--json", dir)
		require.NoError(t, err)

		var cfg config.Config
		require.NoError(t, json.Unmarshal([]byte(out), &cfg))
		assert.Equal(t, 3, cfg.Search.ProximityWindow)
		assert.Equal(t, config.BackendSQLite, cfg.Index.StoreBackend)
	})
}

func TestConfigPath(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "config", "path")

	require.NoError(t, err)
	assert.Equal(t, config.GetUserConfigPath()+"\n", out)
}
