package normalize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2/registry"

	// Stopword token maps and stemmer filters register themselves on import.
	_ "github.com/blevesearch/bleve/v2/analysis/lang/da"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/de"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/es"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fi"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fr"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/hu"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/it"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/nl"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/no"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/pt"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ru"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/sv"
	_ "github.com/blevesearch/bleve/v2/analysis/token/porter"
)

// StopwordSource provides the stopword set of one language.
type StopwordSource interface {
	Stopwords(lang string) (map[string]struct{}, error)
}

// analysisCache is shared by the built-in stopword and stemmer lookups.
var (
	analysisCacheOnce sync.Once
	analysisCache     *registry.Cache
)

func sharedCache() *registry.Cache {
	analysisCacheOnce.Do(func() {
		analysisCache = registry.NewCache()
	})
	return analysisCache
}

// BuiltinStopwords serves the stopword lists bundled with bleve's language
// analyzers ("stop_en", "stop_de", ...).
type BuiltinStopwords struct{}

// Stopwords implements StopwordSource.
func (BuiltinStopwords) Stopwords(lang string) (map[string]struct{}, error) {
	tm, err := sharedCache().TokenMapNamed("stop_" + strings.ToLower(lang))
	if err != nil {
		return nil, fmt.Errorf("no built-in stopwords for language %q: %w", lang, err)
	}
	set := make(map[string]struct{}, len(tm))
	for w := range tm {
		set[w] = struct{}{}
	}
	return set, nil
}

// DirStopwords reads <Dir>/stopwords_<lang>.txt. The file is split into
// words with the same tokenizer used for documents.
type DirStopwords struct {
	Dir string
}

// Stopwords implements StopwordSource.
func (d DirStopwords) Stopwords(lang string) (map[string]struct{}, error) {
	path := filepath.Join(d.Dir, "stopwords_"+lang+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stopwords %s: %w", path, err)
	}
	set := make(map[string]struct{})
	for _, w := range Tokenize(string(data)) {
		set[w] = struct{}{}
	}
	return set, nil
}

// LoadStopwords unions the sets of every language in langs.
func LoadStopwords(src StopwordSource, langs []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, lang := range langs {
		set, err := src.Stopwords(lang)
		if err != nil {
			return nil, err
		}
		for w := range set {
			out[w] = struct{}{}
		}
	}
	return out, nil
}
