// Package scanner discovers the documents under an indexed root.
//
// Directories are visited one level at a time: a directory's files are handed
// to the caller, and its subdirectories are only listed after the caller
// returns. The application directory is never visited.
package scanner

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// AppDirName is the per-root directory holding the index stores.
const AppDirName = ".notesearch"

// DefaultMaxFileSize is the default maximum file size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// Extractor reads the text of a file.
type Extractor interface {
	Extract(path string) (string, error)
	Supports(path string) bool
}

// Options configures traversal.
type Options struct {
	// ExcludePatterns are matched against root-relative paths.
	ExcludePatterns []string

	// MaxFileSize skips larger files (0 = DefaultMaxFileSize).
	MaxFileSize int64
}

// File is a regular file found during traversal.
type File struct {
	Path    string // Absolute path
	RelPath string // Relative to the root
	Size    int64
}

// Level is one directory and the files directly inside it.
type Level struct {
	Dir   string // Absolute path
	Files []File
}

// Scanner walks a root directory level by level.
type Scanner struct {
	opts      Options
	extractor Extractor
	logger    *slog.Logger
}

// New returns a Scanner that delegates text extraction to extractor.
func New(extractor Extractor, opts Options) *Scanner {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	return &Scanner{opts: opts, extractor: extractor, logger: slog.Default()}
}

// WithLogger sets the logger used for skipped-entry diagnostics.
func (s *Scanner) WithLogger(l *slog.Logger) *Scanner {
	if l != nil {
		s.logger = l
	}
	return s
}

// Extract returns the text of path.
func (s *Scanner) Extract(path string) (string, error) {
	return s.extractor.Extract(path)
}

// Supports reports whether the extractor can read path.
func (s *Scanner) Supports(path string) bool {
	return s.extractor.Supports(path)
}

// Walk visits root and its subdirectories depth-first, parents before
// children and siblings in lexical order. fn receives each directory's
// files; a directory's children are listed only after fn returns. Walk
// stops at the first error from fn or when ctx is cancelled.
func (s *Scanner) Walk(ctx context.Context, root string, fn func(Level) error) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "walk", Path: absRoot, Err: os.ErrInvalid}
	}
	return s.walkDir(ctx, absRoot, absRoot, fn)
}

func (s *Scanner) walkDir(ctx context.Context, absRoot, dir string, fn func(Level) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directories are skipped like unreadable files.
		s.logger.Warn("scan_dir_unreadable", slog.String("dir", dir), slog.String("error", err.Error()))
		return nil
	}

	level := Level{Dir: dir}
	var subdirs []string

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			continue
		}

		// Symlinks are never followed, whether they point at files or dirs.
		if e.Type()&os.ModeSymlink != 0 {
			continue
		}

		if e.IsDir() {
			if e.Name() == AppDirName || s.excludeDir(rel) {
				continue
			}
			subdirs = append(subdirs, path)
			continue
		}

		if !e.Type().IsRegular() || s.excludeFile(rel) {
			continue
		}

		fi, err := e.Info()
		if err != nil {
			continue
		}
		if fi.Size() > s.opts.MaxFileSize {
			s.logger.Debug("scan_file_too_large", slog.String("path", rel), slog.Int64("size", fi.Size()))
			continue
		}

		level.Files = append(level.Files, File{Path: path, RelPath: rel, Size: fi.Size()})
	}

	if err := fn(level); err != nil {
		return err
	}

	sort.Strings(subdirs)
	for _, sub := range subdirs {
		if err := s.walkDir(ctx, absRoot, sub, fn); err != nil {
			return err
		}
	}
	return nil
}

// Documents yields (path, text) for every supported, readable file under
// root in walk order. Files are read only as the sequence is consumed;
// unsupported and unreadable files are skipped. Stopping early ends the walk.
func (s *Scanner) Documents(ctx context.Context, root string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		errStop := errors.New("stop")
		err := s.Walk(ctx, root, func(l Level) error {
			for _, f := range l.Files {
				if !s.Supports(f.Path) {
					continue
				}
				text, err := s.Extract(f.Path)
				if err != nil {
					s.logger.Debug("scan_extract_failed", slog.String("path", f.RelPath), slog.String("error", err.Error()))
					continue
				}
				if !yield(f.Path, text) {
					return errStop
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			s.logger.Warn("scan_documents_stopped", slog.String("path", root), slog.String("error", err.Error()))
		}
	}
}

func (s *Scanner) excludeDir(rel string) bool {
	for _, p := range s.opts.ExcludePatterns {
		if matchDirPattern(rel, p) {
			return true
		}
	}
	return false
}

func (s *Scanner) excludeFile(rel string) bool {
	base := filepath.Base(rel)
	for _, p := range s.opts.ExcludePatterns {
		if matchFilePattern(base, rel, p) {
			return true
		}
	}
	return false
}
