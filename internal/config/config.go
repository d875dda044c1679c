package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the per-root configuration file.
const ProjectFileName = ".notesearch.yaml"

// Lemmatizer modes.
const (
	ModeGreedy       = "greedy"
	ModeConservative = "conservative"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Config represents the complete NoteSearch configuration.
type Config struct {
	Version int `yaml:"version" json:"version"`

	// Root is the default directory to index and search.
	Root string `yaml:"root" json:"root"`

	Text   TextConfig   `yaml:"text" json:"text"`
	Index  IndexConfig  `yaml:"index" json:"index"`
	Search SearchConfig `yaml:"search" json:"search"`
	Server ServerConfig `yaml:"server" json:"server"`
}

// TextConfig configures normalization.
type TextConfig struct {
	// Languages selects stopword sets; the first one also picks the stemmer.
	Languages []string `yaml:"languages" json:"languages"`

	// StopwordsDir optionally holds stopwords_<lang>.txt files. When empty the
	// built-in lists are used.
	StopwordsDir string `yaml:"stopwords_dir" json:"stopwords_dir"`

	// Lemmatizer is "greedy" (most aggressive reduction) or "conservative".
	Lemmatizer string `yaml:"lemmatizer" json:"lemmatizer"`
}

// IndexConfig configures index builds.
type IndexConfig struct {
	Workers        int      `yaml:"workers" json:"workers"`
	StoreBackend   string   `yaml:"store_backend" json:"store_backend"`
	TextExtensions []string `yaml:"text_extensions" json:"text_extensions"`
	Exclude        []string `yaml:"exclude" json:"exclude"`
	MaxFileSize    int64    `yaml:"max_file_size" json:"max_file_size"`
}

// SearchConfig configures query evaluation.
type SearchConfig struct {
	// ProximityWindow is the exclusive upper bound on the word distance
	// between consecutive query terms.
	ProximityWindow int `yaml:"proximity_window" json:"proximity_window"`
	CacheSize       int `yaml:"cache_size" json:"cache_size"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	HTTPAddr  string `yaml:"http_addr" json:"http_addr"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Text: TextConfig{
			Languages:  []string{"en"},
			Lemmatizer: ModeGreedy,
		},
		Index: IndexConfig{
			Workers:        runtime.NumCPU(),
			StoreBackend:   BackendSQLite,
			TextExtensions: []string{".txt"},
			Exclude:        []string{"**/.git/**"},
			MaxFileSize:    10 * 1024 * 1024,
		},
		Search: SearchConfig{
			ProximityWindow: 5,
			CacheSize:       1024,
		},
		Server: ServerConfig{
			Transport: "stdio",
			HTTPAddr:  ":8080",
			LogLevel:  "info",
		},
	}
}

// GetUserConfigPath returns the user configuration file:
//   - $XDG_CONFIG_HOME/notesearch/config.yaml if XDG_CONFIG_HOME is set
//   - ~/.config/notesearch/config.yaml otherwise
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "notesearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "notesearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "notesearch", "config.yaml")
}

// Load loads configuration for dir in order of increasing precedence:
//  1. Defaults
//  2. User config
//  3. Project config (.notesearch.yaml in dir)
//  4. NOTESEARCH_* environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if dir != "" {
		if path := filepath.Join(dir, ProjectFileName); fileExists(path) {
			if err := cfg.loadYAML(path); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c. Exclude patterns
// accumulate; every other list replaces.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Root != "" {
		c.Root = other.Root
	}

	if len(other.Text.Languages) > 0 {
		c.Text.Languages = other.Text.Languages
	}
	if other.Text.StopwordsDir != "" {
		c.Text.StopwordsDir = other.Text.StopwordsDir
	}
	if other.Text.Lemmatizer != "" {
		c.Text.Lemmatizer = other.Text.Lemmatizer
	}

	if other.Index.Workers > 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.StoreBackend != "" {
		c.Index.StoreBackend = other.Index.StoreBackend
	}
	if len(other.Index.TextExtensions) > 0 {
		c.Index.TextExtensions = other.Index.TextExtensions
	}
	if len(other.Index.Exclude) > 0 {
		c.Index.Exclude = append(c.Index.Exclude, other.Index.Exclude...)
	}
	if other.Index.MaxFileSize > 0 {
		c.Index.MaxFileSize = other.Index.MaxFileSize
	}

	if other.Search.ProximityWindow != 0 {
		c.Search.ProximityWindow = other.Search.ProximityWindow
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.HTTPAddr != "" {
		c.Server.HTTPAddr = other.Server.HTTPAddr
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NOTESEARCH_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("NOTESEARCH_LANGUAGES"); v != "" {
		var langs []string
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				langs = append(langs, l)
			}
		}
		if len(langs) > 0 {
			c.Text.Languages = langs
		}
	}
	if v := os.Getenv("NOTESEARCH_STORE_BACKEND"); v != "" {
		c.Index.StoreBackend = v
	}
	if v := os.Getenv("NOTESEARCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("NOTESEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("NOTESEARCH_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if len(c.Text.Languages) == 0 {
		return fmt.Errorf("text.languages must not be empty")
	}

	switch strings.ToLower(c.Text.Lemmatizer) {
	case ModeGreedy, ModeConservative:
	default:
		return fmt.Errorf("text.lemmatizer must be 'greedy' or 'conservative', got %s", c.Text.Lemmatizer)
	}

	switch strings.ToLower(c.Index.StoreBackend) {
	case BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("index.store_backend must be 'sqlite' or 'bolt', got %s", c.Index.StoreBackend)
	}

	if c.Index.Workers < 1 {
		return fmt.Errorf("index.workers must be positive, got %d", c.Index.Workers)
	}
	if c.Search.ProximityWindow < 1 {
		return fmt.Errorf("search.proximity_window must be at least 1, got %d", c.Search.ProximityWindow)
	}
	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search.cache_size must be non-negative, got %d", c.Search.CacheSize)
	}

	validTransports := map[string]bool{"stdio": true, "http": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'http', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// Greedy reports whether the lemmatizer runs in greedy mode.
func (c *Config) Greedy() bool {
	return strings.ToLower(c.Text.Lemmatizer) != ModeConservative
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
