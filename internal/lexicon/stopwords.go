package lexicon

import (
	"strings"
	"unicode"
)

// #region stopwords
// stopwords contains common English words that are never learned.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"being": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "not": true,
	"no": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "than": true, "so": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true,
	"of": true, "on": true, "to": true, "with": true, "about": true,
	"up": true, "out": true, "it": true, "its": true, "this": true,
	"that": true, "what": true, "which": true, "who": true, "how": true,
	"when": true, "where": true, "why": true, "you": true, "me": true,
	"i": true, "my": true, "your": true, "we": true, "they": true,
	"he": true, "she": true, "her": true, "him": true, "us": true,
	"them": true,
}

// Tokenize splits text into unique lowercase non-stopword tokens in order of
// first appearance.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range words {
		w = strings.Trim(w, "'")
		if len(w) < 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// #endregion stopwords
