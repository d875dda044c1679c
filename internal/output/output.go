// Package output formats CLI status lines and search results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// Result formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Writer provides formatted output for the CLI. Write errors are ignored
// for console output.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a message with an icon, or indented when icon is empty.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Status("✅", fmt.Sprintf(format, args...))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Status("⚠️ ", fmt.Sprintf(format, args...))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Status("❌", fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// SearchResult is the JSON shape of a query answer.
type SearchResult struct {
	Query   string   `json:"query"`
	Root    string   `json:"root"`
	Results []string `json:"results"`
	Marker  string   `json:"marker,omitempty"`
}

// Results prints query matches. Text output lists one path per line
// relative to root; JSON output prints a SearchResult.
func (w *Writer) Results(format string, r SearchResult) error {
	if r.Results == nil {
		r.Results = []string{}
	}
	if format == FormatJSON {
		return w.JSON(r)
	}

	if r.Marker != "" {
		_, _ = fmt.Fprintln(w.out, r.Marker)
		return nil
	}
	if len(r.Results) == 0 {
		w.Statusf("🔍", "No documents match %q", r.Query)
		return nil
	}
	w.Statusf("🔍", "%d %s match %q", len(r.Results), plural(len(r.Results), "document", "documents"), r.Query)
	for _, path := range r.Results {
		w.Status("", relativeTo(r.Root, path))
	}
	return nil
}

// JSON prints v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// IndexSummary prints the outcome of a build.
func (w *Writer) IndexSummary(root string, documents, skipped, terms int, d time.Duration) {
	w.Successf("Indexed %d %s (%d terms) in %s", documents, plural(documents, "document", "documents"), terms, d.Round(time.Millisecond))
	if skipped > 0 {
		w.Status("", fmt.Sprintf("%d %s skipped", skipped, plural(skipped, "file", "files")))
	}
	w.Status("", "Root: "+root)
}

func relativeTo(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || filepath.IsAbs(rel) {
		return path
	}
	return rel
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
