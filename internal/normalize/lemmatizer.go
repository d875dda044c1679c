package normalize

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/kljensen/snowball"
)

// Lemmatizer reduces a lowercase word to its base form.
type Lemmatizer interface {
	Lemmatize(word string) string
}

type stemFunc func(string) string

// snowballLanguages maps language codes to kljensen/snowball language names.
var snowballLanguages = map[string]string{
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"hu": "hungarian",
	"no": "norwegian",
	"ru": "russian",
	"sv": "swedish",
}

// bleveStemmers lists the bleve stemmer token filters per language,
// most conservative first.
var bleveStemmers = map[string][]string{
	"da": {"stemmer_da_snowball"},
	"de": {"stemmer_de_snowball", "stemmer_de_light"},
	"en": {"stemmer_en_snowball", "stemmer_porter"},
	"es": {"stemmer_es_snowball", "stemmer_es_light"},
	"fi": {"stemmer_fi_snowball"},
	"fr": {"stemmer_fr_snowball", "stemmer_fr_min", "stemmer_fr_light"},
	"hu": {"stemmer_hu_snowball"},
	"it": {"stemmer_it_snowball", "stemmer_it_light"},
	"nl": {"stemmer_nl_snowball"},
	"no": {"stemmer_no_snowball"},
	"pt": {"stemmer_pt_light"},
	"ru": {"stemmer_ru_snowball"},
	"sv": {"stemmer_sv_snowball"},
}

// StemLemmatizer runs every stemmer available for a language. Greedy mode
// keeps the shortest result, conservative mode the first stemmer's result.
type StemLemmatizer struct {
	lang    string
	greedy  bool
	stemmer []stemFunc
}

var _ Lemmatizer = (*StemLemmatizer)(nil)

// NewLemmatizer builds the lemmatizer for lang.
func NewLemmatizer(lang string, greedy bool) (*StemLemmatizer, error) {
	lang = strings.ToLower(lang)
	l := &StemLemmatizer{lang: lang, greedy: greedy}

	if name, ok := snowballLanguages[lang]; ok {
		l.stemmer = append(l.stemmer, func(w string) string {
			out, err := snowball.Stem(w, name, true)
			if err != nil {
				return w
			}
			return out
		})
	}

	cache := sharedCache()
	for _, name := range bleveStemmers[lang] {
		f, err := cache.TokenFilterNamed(name)
		if err != nil {
			slog.Debug("stemmer_unavailable", slog.String("name", name), slog.String("error", err.Error()))
			continue
		}
		l.stemmer = append(l.stemmer, filterStem(f))
	}

	if len(l.stemmer) == 0 {
		return nil, fmt.Errorf("no lemmatizer for language %q", lang)
	}
	return l, nil
}

func filterStem(f analysis.TokenFilter) stemFunc {
	return func(w string) string {
		out := f.Filter(analysis.TokenStream{&analysis.Token{Term: []byte(w)}})
		if len(out) == 0 || len(out[0].Term) == 0 {
			return w
		}
		return string(out[0].Term)
	}
}

// Lemmatize implements Lemmatizer.
func (l *StemLemmatizer) Lemmatize(word string) string {
	if word == "" {
		return word
	}
	best := l.stemmer[0](word)
	if !l.greedy {
		return best
	}
	for _, stem := range l.stemmer[1:] {
		if s := stem(word); s != "" && len(s) < len(best) {
			best = s
		}
	}
	return best
}

// Language returns the language code the lemmatizer was built for.
func (l *StemLemmatizer) Language() string {
	return l.lang
}
