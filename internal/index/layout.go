// Package index builds the positional inverted index of a root directory.
//
// A build walks the root level by level. Files of one level are processed by
// a bounded set of workers and the level is fully joined before the walk
// descends. Each worker registers its document and merges the document's
// postings into the shared index as one locked step. Registrations stay in
// memory until the walk ends; then the index and the registry are each
// written back with a single atomic replace and a new generation token is
// recorded.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/notesearch/notesearch/internal/scanner"
	"github.com/notesearch/notesearch/internal/store"
)

const (
	wordsName   = "words"
	sourcesName = "sources"
	lockName    = "build.lock"
	genName     = "generation"
)

// AppDir returns the directory holding root's stores.
func AppDir(root string) string {
	return filepath.Join(root, scanner.AppDirName)
}

// WordsBase is the store base path of the word index (term -> postings).
func WordsBase(root string) string {
	return filepath.Join(AppDir(root), wordsName)
}

// SourcesBase is the store base path of the document registry (id -> path).
func SourcesBase(root string) string {
	return filepath.Join(AppDir(root), sourcesName)
}

// LockPath is the cross-process build lock file.
func LockPath(root string) string {
	return filepath.Join(AppDir(root), lockName)
}

// Exists reports whether root has a written word index for backend.
func Exists(root string, backend store.Backend) bool {
	info, err := os.Stat(store.Path(WordsBase(root), backend))
	return err == nil && !info.IsDir()
}

// GenerationPath is the file naming root's last completed build.
func GenerationPath(root string) string {
	return filepath.Join(AppDir(root), genName)
}

// Generation returns the token written by root's last completed build, or ""
// when none was recorded. Readers compare tokens to detect builds made by
// other processes.
func Generation(root string) string {
	data, err := os.ReadFile(GenerationPath(root))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// writeGeneration records a new build token with a rename, so readers see
// the old token or the new one.
func writeGeneration(root string) (string, error) {
	gen := fmt.Sprintf("%x-%d", time.Now().UnixNano(), os.Getpid())
	path := GenerationPath(root)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(gen+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write generation: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to write generation: %w", err)
	}
	return gen, nil
}
