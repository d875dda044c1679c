package search

import (
	"fmt"
	"log/slog"

	"github.com/notesearch/notesearch/internal/config"
	nserrors "github.com/notesearch/notesearch/internal/errors"
	"github.com/notesearch/notesearch/internal/extract"
	"github.com/notesearch/notesearch/internal/index"
	"github.com/notesearch/notesearch/internal/metrics"
	"github.com/notesearch/notesearch/internal/normalize"
	"github.com/notesearch/notesearch/internal/scanner"
	"github.com/notesearch/notesearch/internal/store"
	"github.com/notesearch/notesearch/internal/ui"
)

// Dependencies are the optional collaborators shared by every front end.
type Dependencies struct {
	Renderer ui.Renderer
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// NewNormalizer builds the normalizer described by cfg.
func NewNormalizer(cfg *config.Config, logger *slog.Logger) (*normalize.Normalizer, error) {
	var src normalize.StopwordSource = normalize.BuiltinStopwords{}
	if cfg.Text.StopwordsDir != "" {
		src = normalize.DirStopwords{Dir: cfg.Text.StopwordsDir}
	}
	if len(cfg.Text.Languages) == 0 {
		return nil, fmt.Errorf("no text languages configured")
	}
	stopwords, err := normalize.LoadStopwords(src, cfg.Text.Languages)
	if err != nil {
		return nil, fmt.Errorf("failed to load stopwords: %w", err)
	}

	lemma, err := normalize.NewLemmatizer(cfg.Text.Languages[0], cfg.Greedy())
	if err != nil {
		return nil, fmt.Errorf("failed to create lemmatizer: %w", err)
	}

	return normalize.New(stopwords, lemma,
		normalize.WithLinkClassifier(normalize.LoggingClassifier{Logger: logger})), nil
}

// NewScanner builds the document scanner described by cfg.
func NewScanner(cfg *config.Config, logger *slog.Logger) *scanner.Scanner {
	return scanner.New(extract.New(cfg.Index.TextExtensions...), scanner.Options{
		ExcludePatterns: cfg.Index.Exclude,
		MaxFileSize:     cfg.Index.MaxFileSize,
	}).WithLogger(logger)
}

// Setup wires the normalizer, scanner, builder and engine for cfg.
func Setup(cfg *config.Config, deps Dependencies) (*Engine, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, nserrors.ConfigError("invalid configuration", err)
	}

	backend, err := store.ParseBackend(cfg.Index.StoreBackend)
	if err != nil {
		return nil, err
	}

	norm, err := NewNormalizer(cfg, logger)
	if err != nil {
		return nil, err
	}

	sc := NewScanner(cfg, logger)

	builder, err := index.NewBuilder(index.BuilderConfig{
		Scanner:    sc,
		Normalizer: norm,
		Backend:    backend,
		Workers:    cfg.Index.Workers,
		Renderer:   deps.Renderer,
		Metrics:    deps.Metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return NewEngine(builder, norm,
		WithWindow(cfg.Search.ProximityWindow),
		WithCacheSize(cfg.Search.CacheSize),
		WithMetrics(deps.Metrics),
		WithLogger(logger),
	)
}
