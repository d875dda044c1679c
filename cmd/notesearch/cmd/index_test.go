package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCmd_PlainOutput(t *testing.T) {
	// Given: a root with two notes and an unsupported file
	isolate(t)
	root := scenarioRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "photo.png"), []byte("png"), 0o644))

	// When: indexing without the TUI
	out, _, err := execute(t, "index", "--no-tui", root)

	// Then: progress and the summary are printed and the stores exist
	require.NoError(t, err)
	assert.Contains(t, out, "[SCAN]")
	assert.Contains(t, out, "Complete: 2 documents")
	assert.Contains(t, out, "1 skipped")
	assert.FileExists(t, filepath.Join(root, ".notesearch", "words.db"))
	assert.FileExists(t, filepath.Join(root, ".notesearch", "sources.db"))
}

func TestIndexCmd_BoltBackendFromProjectConfig(t *testing.T) {
	isolate(t)
	root := scenarioRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".notesearch.yaml"), []byte("index:\n  store_backend: bolt\n"), 0o644))

	_, _, err := execute(t, "index", "--no-tui", root)

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, ".notesearch", "words.bolt"))
}

func TestIndexCmd_InvalidDirectory(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "index", "--no-tui", filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}

func TestIndexCmd_DryRunListsDocuments(t *testing.T) {
	// Given: a root with two notes and an unsupported file
	isolate(t)
	root := scenarioRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "photo.png"), []byte("png"), 0o644))

	// When: listing instead of building
	out, _, err := execute(t, "index", "--dry-run", root)

	// Then: the readable notes are listed and nothing is written
	require.NoError(t, err)
	assert.Contains(t, out, "doc1.txt (4 words)")
	assert.Contains(t, out, filepath.Join("sub", "doc2.txt")+" (5 words)")
	assert.NotContains(t, out, "photo.png")
	assert.Contains(t, out, "2 documents would be indexed")
	assert.NoDirExists(t, filepath.Join(root, ".notesearch"))
}

func TestIndexCmd_DryRunInvalidDirectory(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "index", "--dry-run", filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}
