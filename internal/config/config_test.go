package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config lookup at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	return xdg
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, []string{"en"}, cfg.Text.Languages)
	assert.True(t, cfg.Greedy())
	assert.Equal(t, BackendSQLite, cfg.Index.StoreBackend)
	assert.Equal(t, runtime.NumCPU(), cfg.Index.Workers)
	assert.Equal(t, []string{".txt"}, cfg.Index.TextExtensions)
	assert.Equal(t, 5, cfg.Search.ProximityWindow)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles_ReturnsDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	// Given: a user config and a project config that disagree
	xdg := isolate(t)
	userPath := filepath.Join(xdg, "notesearch", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0o755))
	require.NoError(t, os.WriteFile(userPath, []byte(`
text:
  languages: [en, fr]
index:
  store_backend: bolt
  exclude: ["**/tmp/**"]
`), 0o644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(`
index:
  store_backend: sqlite
  exclude: ["**/drafts/**"]
search:
  proximity_window: 8
`), 0o644))

	// When: loading
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then: project wins, user-only values survive, excludes accumulate
	assert.Equal(t, BackendSQLite, cfg.Index.StoreBackend)
	assert.Equal(t, []string{"en", "fr"}, cfg.Text.Languages)
	assert.Equal(t, 8, cfg.Search.ProximityWindow)
	assert.Equal(t, []string{"**/.git/**", "**/tmp/**", "**/drafts/**"}, cfg.Index.Exclude)
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("index:\n  workers: 2\n"), 0o644))

	t.Setenv("NOTESEARCH_WORKERS", "7")
	t.Setenv("NOTESEARCH_LANGUAGES", "de, en ,")
	t.Setenv("NOTESEARCH_STORE_BACKEND", "bolt")
	t.Setenv("NOTESEARCH_ROOT", "/notes")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Index.Workers)
	assert.Equal(t, []string{"de", "en"}, cfg.Text.Languages)
	assert.Equal(t, BackendBolt, cfg.Index.StoreBackend)
	assert.Equal(t, "/notes", cfg.Root)
}

func TestLoad_InvalidYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("index: [unclosed"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown backend", func(c *Config) { c.Index.StoreBackend = "redis" }, "store_backend"},
		{"zero window", func(c *Config) { c.Search.ProximityWindow = 0 }, "proximity_window"},
		{"no languages", func(c *Config) { c.Text.Languages = nil }, "languages"},
		{"bad lemmatizer", func(c *Config) { c.Text.Lemmatizer = "fuzzy" }, "lemmatizer"},
		{"bad transport", func(c *Config) { c.Server.Transport = "sse" }, "transport"},
		{"bad level", func(c *Config) { c.Server.LogLevel = "trace" }, "log_level"},
		{"zero workers", func(c *Config) { c.Index.Workers = 0 }, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGreedy_ConservativeMode(t *testing.T) {
	cfg := NewConfig()
	cfg.Text.Lemmatizer = "Conservative"
	assert.False(t, cfg.Greedy())
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg := NewConfig()
	cfg.Text.Languages = []string{"es"}
	cfg.Search.CacheSize = 64
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ProjectFileName)))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"es"}, loaded.Text.Languages)
	assert.Equal(t, 64, loaded.Search.CacheSize)
}
