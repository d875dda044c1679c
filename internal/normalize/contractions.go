package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Whole-word contractions whose expansion is irregular.
var irregularContractions = map[string]string{
	"can't":   "can not",
	"cannot":  "can not",
	"won't":   "will not",
	"shan't":  "shall not",
	"ain't":   "am not",
	"let's":   "let us",
	"y'all":   "you all",
	"ma'am":   "madam",
	"o'clock": "of the clock",
	"it's":    "it is",
	"that's":  "that is",
	"what's":  "what is",
	"there's": "there is",
	"here's":  "here is",
	"he's":    "he is",
	"she's":   "she is",
	"who's":   "who is",
	"where's": "where is",
	"gonna":   "going to",
	"gotta":   "got to",
	"wanna":   "want to",
}

// Regular suffixes, tried in order.
var contractionSuffixes = []struct {
	suffix, expansion string
}{
	{"n't", " not"},
	{"'re", " are"},
	{"'ll", " will"},
	{"'ve", " have"},
	{"'m", " am"},
	{"'d", " would"},
}

// contractionPattern finds words with an apostrophe and the informal
// whole-word forms.
var contractionPattern = regexp.MustCompile(`(?i)\b[a-z]+'[a-z]+\b|\b(?:cannot|gonna|gotta|wanna)\b`)

// ExpandContractions rewrites English contractions into full words
// ("can't" -> "can not"). The first letter keeps its case. Possessives
// ("fox's") are left alone.
func ExpandContractions(text string) string {
	text = strings.ReplaceAll(text, "’", "'")
	return contractionPattern.ReplaceAllStringFunc(text, expandWord)
}

func expandWord(word string) string {
	if exp, ok := irregularContractions[strings.ToLower(word)]; ok {
		return matchLeadingCase(word, exp)
	}
	for _, c := range contractionSuffixes {
		cut := len(word) - len(c.suffix)
		if cut > 0 && strings.EqualFold(word[cut:], c.suffix) {
			return word[:cut] + c.expansion
		}
	}
	return word
}

// matchLeadingCase capitalises exp when word starts with an upper-case letter.
func matchLeadingCase(word, exp string) string {
	r, _ := utf8.DecodeRuneInString(word)
	if !unicode.IsUpper(r) {
		return exp
	}
	first, size := utf8.DecodeRuneInString(exp)
	return string(unicode.ToUpper(first)) + exp[size:]
}
