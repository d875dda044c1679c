// Package extract pulls plain text out of indexable files.
package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file types the extractor cannot read.
var ErrUnsupported = errors.New("unsupported file type")

// Extractor maps file extensions to text readers.
type Extractor struct {
	plain map[string]struct{}
}

// New returns an Extractor that reads the given extensions as plain text in
// addition to .txt. Word documents (.docx) are always supported.
func New(textExtensions ...string) *Extractor {
	e := &Extractor{plain: map[string]struct{}{".txt": {}}}
	for _, ext := range textExtensions {
		ext = strings.ToLower(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.plain[ext] = struct{}{}
	}
	return e
}

// Supports reports whether path has an extension the extractor can read.
func (e *Extractor) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".docx" {
		return true
	}
	_, ok := e.plain[ext]
	return ok
}

// Extract returns the text content of path.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".docx" {
		return readDocx(path)
	}
	if _, ok := e.plain[ext]; ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
}

// readDocx returns the paragraph text of a WordprocessingML document, one
// paragraph per line.
func readDocx(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document part: %w", err)
		}
		defer rc.Close()
		return paragraphs(rc)
	}
	return "", fmt.Errorf("docx %s: missing word/document.xml", path)
}

// paragraphs walks document.xml: w:t runs are text, w:tab and w:br are
// whitespace and each closing w:p ends a line.
func paragraphs(r io.Reader) (string, error) {
	const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	var (
		out    strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				out.WriteByte('\t')
			case "br", "cr":
				out.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}
}
