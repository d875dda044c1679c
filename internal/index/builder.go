package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	nserrors "github.com/notesearch/notesearch/internal/errors"
	"github.com/notesearch/notesearch/internal/extract"
	"github.com/notesearch/notesearch/internal/metrics"
	"github.com/notesearch/notesearch/internal/normalize"
	"github.com/notesearch/notesearch/internal/scanner"
	"github.com/notesearch/notesearch/internal/store"
	"github.com/notesearch/notesearch/internal/ui"
)

// Postings maps a document key (DocID.Hex) to the ascending word offsets of
// one term in that document. It is the value type of the word store.
type Postings = map[string][]int

// Result summarizes a finished build.
type Result struct {
	Root     string
	Indexed  int
	Skipped  int
	Pruned   int
	Terms    int
	Duration time.Duration
}

// BuilderConfig contains the injected dependencies of a Builder.
type BuilderConfig struct {
	// Scanner walks the root (required).
	Scanner *scanner.Scanner

	// Normalizer turns document text into tokens (required).
	Normalizer *normalize.Normalizer

	// Backend selects the store implementation. Empty means SQLite.
	Backend store.Backend

	// Workers bounds per-level parallelism. Defaults to runtime.NumCPU().
	Workers int

	// Renderer receives progress events (optional).
	Renderer ui.Renderer

	// Metrics records build counters (optional).
	Metrics *metrics.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Builder runs full index builds. The shared index is only reached through
// MergeDocument and Snapshot. A Builder runs one build at a time.
type Builder struct {
	cfg    BuilderConfig
	logger *slog.Logger

	buildMu sync.Mutex

	mergeMu sync.Mutex
	index   map[string]Postings

	regMu    sync.Mutex
	registry map[string]string
}

// NewBuilder validates cfg and returns a Builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.Scanner == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if cfg.Normalizer == nil {
		return nil, fmt.Errorf("normalizer is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Backend == "" {
		cfg.Backend = store.BackendSQLite
	}
	if cfg.Renderer == nil {
		cfg.Renderer = ui.NopRenderer{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, logger: logger, index: make(map[string]Postings)}, nil
}

// Backend returns the store backend builds write to.
func (b *Builder) Backend() store.Backend {
	return b.cfg.Backend
}

// MergeDocument adds one document's postings to the shared index as a
// single locked step.
func (b *Builder) MergeDocument(id DocID, partial map[string][]int) {
	key := id.Hex()

	b.mergeMu.Lock()
	defer b.mergeMu.Unlock()

	for term, positions := range partial {
		docs := b.index[term]
		if docs == nil {
			docs = make(Postings)
			b.index[term] = docs
		}
		docs[key] = append([]int(nil), positions...)
	}
}

// Snapshot returns a deep copy of the shared index.
func (b *Builder) Snapshot() map[string]Postings {
	b.mergeMu.Lock()
	defer b.mergeMu.Unlock()

	out := make(map[string]Postings, len(b.index))
	for term, docs := range b.index {
		cp := make(Postings, len(docs))
		for id, positions := range docs {
			cp[id] = append([]int(nil), positions...)
		}
		out[term] = cp
	}
	return out
}

// Build indexes every supported document under root and replaces root's
// stored index. Unreadable or unsupported documents are skipped and
// counted; they never abort the build.
func (b *Builder) Build(ctx context.Context, root string) (*Result, error) {
	b.buildMu.Lock()
	defer b.buildMu.Unlock()

	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nserrors.IndexError("failed to resolve root", err)
	}
	if err := os.MkdirAll(AppDir(absRoot), 0o755); err != nil {
		return nil, nserrors.IndexError("failed to create app directory", err).
			WithDetail("path", AppDir(absRoot))
	}

	lock := newBuildLock(absRoot)
	if err := b.acquire(ctx, lock, absRoot); err != nil {
		return nil, nserrors.New(nserrors.ErrCodeIndexLocked, "index build already running", err).
			WithDetail("lock", LockPath(absRoot)).
			WithSuggestion("Wait for the other build to finish")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			b.logger.Warn("index_unlock_failed", slog.String("error", err.Error()))
		}
	}()

	b.logger.Info("index_build_started",
		slog.String("path", absRoot),
		slog.Int("workers", b.cfg.Workers),
		slog.String("backend", string(b.cfg.Backend)))

	b.reset()
	b.repair(absRoot)

	result, err := b.run(ctx, absRoot)
	if err != nil {
		b.logger.Error("index_build_failed", slog.String("path", absRoot), slog.String("error", err.Error()))
		var ne *nserrors.NoteError
		if errors.As(err, &ne) {
			return nil, err
		}
		return nil, nserrors.IndexError("index build failed", err).WithDetail("path", absRoot)
	}

	result.Duration = time.Since(start)
	b.cfg.Metrics.ObserveBuild(result.Indexed, result.Skipped, result.Terms, result.Duration)
	b.cfg.Renderer.Complete(ui.CompletionStats{
		Documents: result.Indexed,
		Skipped:   result.Skipped,
		Terms:     result.Terms,
		Duration:  result.Duration,
	})

	b.logger.Info("index_build_complete",
		slog.String("path", absRoot),
		slog.Int("documents", result.Indexed),
		slog.Int("skipped", result.Skipped),
		slog.Int("pruned", result.Pruned),
		slog.Int("terms", result.Terms),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (b *Builder) reset() {
	b.mergeMu.Lock()
	b.index = make(map[string]Postings)
	b.mergeMu.Unlock()

	b.regMu.Lock()
	b.registry = make(map[string]string)
	b.regMu.Unlock()
}

// acquire takes the cross-process build lock, logging when another build
// holds it.
func (b *Builder) acquire(ctx context.Context, lock *buildLock, root string) error {
	ok, err := lock.TryLock()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	b.logger.Info("index_build_waiting", slog.String("lock", LockPath(root)))
	return lock.Lock(ctx)
}

// repair drops damaged stores before they are rewritten.
func (b *Builder) repair(root string) {
	for _, base := range []string{WordsBase(root), SourcesBase(root)} {
		removed, err := store.Repair(base, b.cfg.Backend)
		switch {
		case err != nil:
			b.logger.Warn("index_store_check_failed", slog.String("path", base), slog.String("error", err.Error()))
		case removed:
			b.logger.Warn("index_store_corrupted_removed", slog.String("path", base))
		}
	}
}

// run walks the tree, then writes the word index and the registry back.
// Neither store is touched before the walk completes.
func (b *Builder) run(ctx context.Context, root string) (*Result, error) {
	var indexed, skipped atomic.Int64

	b.cfg.Renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageScanning,
		Message: fmt.Sprintf("Scanning %s...", root),
	})

	err := b.cfg.Scanner.Walk(ctx, root, func(level scanner.Level) error {
		if len(level.Files) == 0 {
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.cfg.Workers)
		for _, f := range level.Files {
			g.Go(func() error {
				ok, err := b.indexFile(gctx, f)
				if err != nil {
					return err
				}
				var n int64
				if ok {
					n = indexed.Add(1)
				} else {
					skipped.Add(1)
					n = indexed.Load()
				}
				b.cfg.Renderer.UpdateProgress(ui.ProgressEvent{
					Stage:       ui.StageIndexing,
					Current:     int(n),
					CurrentFile: f.RelPath,
				})
				return nil
			})
		}
		// Every document of this level is merged before the walk descends.
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	b.cfg.Renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageWriting,
		Message: "Writing index...",
	})

	snapshot := b.Snapshot()
	err = store.With(WordsBase(root), b.cfg.Backend, func(words store.Store) error {
		return store.NewMap[Postings](words).Replace(ctx, snapshot)
	})
	if err != nil {
		return nil, nserrors.StoreError("failed to write index", err).WithDetail("path", WordsBase(root))
	}

	pruned, err := b.writeRegistry(ctx, root)
	if err != nil {
		return nil, nserrors.StoreError("failed to write document registry", err).WithDetail("path", SourcesBase(root))
	}

	if _, err := writeGeneration(root); err != nil {
		return nil, nserrors.IndexError("failed to record build", err).WithDetail("path", GenerationPath(root))
	}

	return &Result{
		Root:    root,
		Indexed: int(indexed.Load()),
		Skipped: int(skipped.Load()),
		Pruned:  pruned,
		Terms:   len(snapshot),
	}, nil
}

// indexFile processes one document. It reports false for a skipped
// document; an error aborts the build.
func (b *Builder) indexFile(ctx context.Context, f scanner.File) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	id := NewDocID(f.Path)

	text, err := b.cfg.Scanner.Extract(f.Path)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupported) {
			b.logger.Debug("index_file_unsupported", slog.String("path", f.RelPath))
			return false, nil
		}
		b.logger.Warn("index_file_skipped",
			slog.String("path", f.RelPath),
			slog.String("error", err.Error()))
		b.cfg.Renderer.AddError(ui.ErrorEvent{File: f.RelPath, Err: err, IsWarn: true})
		return false, nil
	}

	partial := normalize.Postings(b.cfg.Normalizer.Tokens(text))

	b.register(id, f.Path)
	b.MergeDocument(id, partial)

	b.logger.Debug("index_file_merged",
		slog.String("path", f.RelPath),
		slog.String("id", id.Hex()),
		slog.Int("terms", len(partial)))
	return true, nil
}

func (b *Builder) register(id DocID, path string) {
	b.regMu.Lock()
	defer b.regMu.Unlock()
	b.registry[id.Hex()] = path
}

// writeRegistry replaces the stored registry with this build's documents and
// reports how many previously registered documents were dropped.
func (b *Builder) writeRegistry(ctx context.Context, root string) (int, error) {
	b.regMu.Lock()
	entries := make(map[string]string, len(b.registry))
	for k, v := range b.registry {
		entries[k] = v
	}
	b.regMu.Unlock()

	pruned := 0
	err := store.With(SourcesBase(root), b.cfg.Backend, func(s store.Store) error {
		sources := store.NewMap[string](s)
		err := sources.ForEach(ctx, func(key string, _ string) error {
			if _, ok := entries[key]; !ok {
				pruned++
			}
			return nil
		})
		if err != nil {
			return err
		}
		return sources.Replace(ctx, entries)
	})
	if err != nil {
		return 0, err
	}
	return pruned, nil
}
