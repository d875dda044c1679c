// Package normalize turns raw text into the lemma tokens stored in the index.
//
// Documents and queries go through the same Normalizer:
//
//	links stripped -> contractions expanded -> words tokenized ->
//	stopwords dropped -> lowercased -> lemmatized
//
// Token positions count every word the tokenizer produced, so words dropped
// as stopwords still occupy a position.
package normalize

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`\b[a-zA-Z]+\b`)

// Tokenize splits text into ASCII words.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// Token is a lemma and its word offset in the source text.
type Token struct {
	Term string
	Pos  int
}

// Normalizer is safe for concurrent use once built.
type Normalizer struct {
	stopwords map[string]struct{}
	lemma     Lemmatizer
	links     LinkClassifier
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLinkClassifier sets the hook that receives extracted links.
func WithLinkClassifier(c LinkClassifier) Option {
	return func(n *Normalizer) { n.links = c }
}

// New returns a Normalizer. A nil stopword set disables stopword removal;
// a nil lemmatizer keeps lowercased words unchanged.
func New(stopwords map[string]struct{}, lemma Lemmatizer, opts ...Option) *Normalizer {
	n := &Normalizer{stopwords: stopwords, lemma: lemma}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Tokens normalizes text and returns the surviving tokens in input order.
// Links are stripped first and passed to the link classifier.
func (n *Normalizer) Tokens(text string) []Token {
	links, body := ExtractLinks(text)
	if n.links != nil {
		for _, link := range links {
			n.links.ClassifyLink(link)
		}
	}

	words := Tokenize(ExpandContractions(body))
	out := make([]Token, 0, len(words))
	for pos, w := range words {
		if w == "" {
			continue
		}
		if _, stop := n.stopwords[w]; stop {
			continue
		}
		out = append(out, Token{Term: n.lemmatize(strings.ToLower(w)), Pos: pos})
	}
	return out
}

// Terms normalizes a query phrase into its ordered lemmas.
func (n *Normalizer) Terms(phrase string) []string {
	toks := n.Tokens(phrase)
	terms := make([]string, len(toks))
	for i, t := range toks {
		terms[i] = t.Term
	}
	return terms
}

// Postings groups tokens by term: term -> ascending positions.
func Postings(tokens []Token) map[string][]int {
	out := make(map[string][]int)
	for _, t := range tokens {
		out[t.Term] = append(out[t.Term], t.Pos)
	}
	return out
}

func (n *Normalizer) lemmatize(w string) string {
	if n.lemma == nil {
		return w
	}
	if l := n.lemma.Lemmatize(w); l != "" {
		return l
	}
	return w
}
