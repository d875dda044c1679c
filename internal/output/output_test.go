package output

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Status(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("🔍", "Scanning notes")
	w.Status("", "indented")

	assert.Equal(t, "🔍 Scanning notes\n   indented\n", buf.String())
}

func TestWriter_Levels(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Successf("done %d", 1)
	w.Warningf("careful %s", "now")
	w.Errorf("failed: %v", "boom")

	out := buf.String()
	assert.Contains(t, out, "✅ done 1")
	assert.Contains(t, out, "⚠️")
	assert.Contains(t, out, "❌ failed: boom")
}

func TestWriter_Results_Text(t *testing.T) {
	// Given: two matches under a root
	buf := &bytes.Buffer{}
	root := filepath.FromSlash("/notes")

	// When: printing them as text
	err := New(buf).Results(FormatText, SearchResult{
		Query:   "quick fox",
		Root:    root,
		Results: []string{filepath.Join(root, "doc1.txt"), filepath.Join(root, "sub", "doc2.txt")},
	})

	// Then: a header and one relative path per line
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `2 documents match "quick fox"`)
	assert.Equal(t, "doc1.txt", strings.TrimSpace(lines[1]))
	assert.Equal(t, filepath.Join("sub", "doc2.txt"), strings.TrimSpace(lines[2]))
}

func TestWriter_Results_TextEmptyAndMarker(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	require.NoError(t, w.Results(FormatText, SearchResult{Query: "elephant"}))
	require.NoError(t, w.Results(FormatText, SearchResult{Marker: "Search query can't be null"}))

	assert.Contains(t, buf.String(), `No documents match "elephant"`)
	assert.True(t, strings.HasSuffix(buf.String(), "Search query can't be null\n"))
}

func TestWriter_Results_JSON(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).Results(FormatJSON, SearchResult{Query: "red", Root: "/notes"}))

	var got SearchResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "red", got.Query)
	assert.NotNil(t, got.Results)
	assert.Empty(t, got.Results)
	assert.NotContains(t, buf.String(), "marker")
}

func TestWriter_IndexSummary(t *testing.T) {
	buf := &bytes.Buffer{}

	New(buf).IndexSummary("/notes", 1, 2, 5, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "Indexed 1 document (5 terms) in 1.5s")
	assert.Contains(t, out, "2 files skipped")
	assert.Contains(t, out, "Root: /notes")
}
