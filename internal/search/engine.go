// Package search answers proximity queries against a root's stored index.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	lru "github.com/hashicorp/golang-lru/v2"

	nserrors "github.com/notesearch/notesearch/internal/errors"
	"github.com/notesearch/notesearch/internal/index"
	"github.com/notesearch/notesearch/internal/metrics"
	"github.com/notesearch/notesearch/internal/normalize"
	"github.com/notesearch/notesearch/internal/store"
)

// DefaultCacheSize is the default number of cached posting lists.
const DefaultCacheSize = 1024

// minRootLen is the shortest root path accepted by Search.
const minRootLen = 4

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// Engine evaluates queries and triggers builds when a root has no index.
type Engine struct {
	builder    *index.Builder
	normalizer *normalize.Normalizer
	window     int
	cacheSize  int
	metrics    *metrics.Metrics
	logger     *slog.Logger
	cache      *lru.Cache[string, index.Postings]
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithWindow sets the proximity window. Values below 1 keep the default.
func WithWindow(words int) EngineOption {
	return func(e *Engine) {
		if words > 0 {
			e.window = words
		}
	}
}

// WithCacheSize sets the posting cache capacity.
func WithCacheSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.cacheSize = n
		}
	}
}

// WithMetrics sets an optional metrics collector.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an Engine. The normalizer must be the one the builder
// indexes with, so query terms and stored terms agree.
func NewEngine(builder *index.Builder, normalizer *normalize.Normalizer, opts ...EngineOption) (*Engine, error) {
	if builder == nil || normalizer == nil {
		return nil, fmt.Errorf("%w: builder and normalizer are required", ErrNilDependency)
	}

	e := &Engine{
		builder:    builder,
		normalizer: normalizer,
		window:     DefaultWindow,
		cacheSize:  DefaultCacheSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	cache, err := lru.New[string, index.Postings](e.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create posting cache: %w", err)
	}
	e.cache = cache
	return e, nil
}

// Search returns the paths of documents under root that contain every term
// of the phrase, each term occurring within the proximity window of some
// occurrence of the previous term, in either direction. Results are in
// ascending document id order.
//
// An empty phrase returns ErrEmptyQuery and an unusable root returns
// ErrInvalidDirectory; in both cases nothing is read or created. A root
// without an index is built first.
func (e *Engine) Search(ctx context.Context, phrase, root string) ([]string, error) {
	start := time.Now()

	if strings.TrimSpace(phrase) == "" {
		e.metrics.ObserveQuery(metrics.OutcomeInvalid, time.Since(start))
		return nil, nserrors.ErrEmptyQuery
	}
	absRoot, err := validateRoot(root)
	if err != nil {
		e.metrics.ObserveQuery(metrics.OutcomeInvalid, time.Since(start))
		return nil, err
	}

	if err := os.MkdirAll(index.AppDir(absRoot), 0o755); err != nil {
		e.metrics.ObserveQuery(metrics.OutcomeError, time.Since(start))
		return nil, nserrors.IndexError("failed to create app directory", err)
	}
	if !index.Exists(absRoot, e.builder.Backend()) {
		if found := store.DetectBackend(index.WordsBase(absRoot)); found != "" {
			e.logger.Warn("search_index_backend_mismatch",
				slog.String("path", absRoot),
				slog.String("found", string(found)),
				slog.String("configured", string(e.builder.Backend())))
		}
		e.logger.Info("search_index_missing", slog.String("path", absRoot))
		if _, err := e.rebuild(ctx, absRoot); err != nil {
			e.metrics.ObserveQuery(metrics.OutcomeError, time.Since(start))
			return nil, err
		}
		start = time.Now()
	}

	results, err := e.evaluate(ctx, phrase, absRoot)
	switch {
	case err != nil:
		e.metrics.ObserveQuery(metrics.OutcomeError, time.Since(start))
		e.logger.Error("search_failed", slog.String("query", phrase), slog.String("error", err.Error()))
		return nil, err
	case len(results) == 0:
		e.metrics.ObserveQuery(metrics.OutcomeEmpty, time.Since(start))
	default:
		e.metrics.ObserveQuery(metrics.OutcomeHit, time.Since(start))
	}

	e.logger.Debug("search_complete",
		slog.String("query", phrase),
		slog.Int("results", len(results)),
		slog.Duration("latency", time.Since(start)))
	return results, nil
}

// Reindex forces a full build of root and drops cached postings.
func (e *Engine) Reindex(ctx context.Context, root string) (*index.Result, error) {
	absRoot, err := validateRoot(root)
	if err != nil {
		return nil, err
	}
	return e.rebuild(ctx, absRoot)
}

func (e *Engine) rebuild(ctx context.Context, absRoot string) (*index.Result, error) {
	res, err := e.builder.Build(ctx, absRoot)
	e.purge()
	return res, err
}

func (e *Engine) purge() {
	e.cache.Purge()
}

func (e *Engine) evaluate(ctx context.Context, phrase, absRoot string) ([]string, error) {
	terms := e.normalizer.Terms(phrase)
	if len(terms) == 0 {
		return []string{}, nil
	}

	gen := index.Generation(absRoot)
	postings := make([]index.Postings, len(terms))
	err := store.With(index.WordsBase(absRoot), e.builder.Backend(), func(s store.Store) error {
		words := store.NewMap[index.Postings](s)
		for i, term := range terms {
			p, err := e.postings(ctx, words, absRoot, gen, term)
			if err != nil {
				return err
			}
			postings[i] = p
		}
		return nil
	})
	if err != nil {
		return nil, nserrors.StoreError("failed to read index", err)
	}

	candidates, err := candidateSet(postings)
	if err != nil {
		return nil, nserrors.New(nserrors.ErrCodeCorruptIndex, "index contains an invalid document id", err).
			WithSuggestion("Run 'notesearch index' to rebuild")
	}

	var matched []index.DocID
	positions := make([][]int, len(terms))
	it := candidates.Iterator()
	for it.HasNext() {
		id := index.DocID(it.Next())
		key := id.Hex()
		for i, p := range postings {
			positions[i] = p[key]
		}
		if Near(positions, e.window) {
			matched = append(matched, id)
		}
	}
	if len(matched) == 0 {
		return []string{}, nil
	}

	results := make([]string, 0, len(matched))
	err = store.With(index.SourcesBase(absRoot), e.builder.Backend(), func(s store.Store) error {
		registry := store.NewMap[string](s)
		for _, id := range matched {
			path, ok, err := registry.Get(ctx, id.Hex())
			if err != nil {
				return err
			}
			if !ok {
				e.logger.Warn("search_unregistered_document", slog.String("id", id.Hex()))
				continue
			}
			results = append(results, path)
		}
		return nil
	})
	if err != nil {
		return nil, nserrors.StoreError("failed to read document registry", err)
	}
	return results, nil
}

// postings returns the posting list of term, from the cache when possible.
// Cache entries belong to one build generation of the root, so a build by
// any process retires them. A term missing from the index has empty
// postings.
func (e *Engine) postings(ctx context.Context, words *store.Map[index.Postings], absRoot, gen, term string) (index.Postings, error) {
	key := absRoot + "\x00" + gen + "\x00" + term

	cached, ok := e.cache.Get(key)
	e.metrics.CacheLookup(ok)
	if ok {
		return cached, nil
	}

	p, found, err := words.Get(ctx, term)
	if err != nil {
		return nil, err
	}
	if !found {
		p = index.Postings{}
	}

	e.cache.Add(key, p)
	return p, nil
}

// candidateSet intersects the document sets of all query terms.
func candidateSet(postings []index.Postings) (*roaring64.Bitmap, error) {
	sets := make([]*roaring64.Bitmap, len(postings))
	for i, p := range postings {
		bm := roaring64.New()
		for key := range p {
			id, err := index.ParseDocID(key)
			if err != nil {
				return nil, err
			}
			bm.Add(uint64(id))
		}
		sets[i] = bm
	}
	return intersect(sets), nil
}

// validateRoot rejects roots that are too short or not directories.
func validateRoot(root string) (string, error) {
	if len(root) < minRootLen {
		return "", nserrors.ErrInvalidDirectory
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", nserrors.ErrInvalidDirectory
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", nserrors.ErrInvalidDirectory
	}
	return absRoot, nil
}
