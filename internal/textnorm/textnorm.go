// Package textnorm provides the shared query/transcript tokenizer.
// Policy is fixed: lowercase, split on whitespace and punctuation, drop
// stopwords and tokens shorter than three characters. No stemming.
package textnorm

import (
	"strings"
	"unicode"
)

const minTokenLen = 3

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"were": true, "been": true, "have": true, "has": true, "had": true,
	"did": true, "does": true, "will": true, "would": true, "could": true,
	"should": true, "this": true, "that": true, "these": true, "those": true,
	"with": true, "from": true, "into": true, "about": true, "but": true,
	"not": true, "you": true, "your": true, "our": true, "their": true,
	"what": true, "which": true, "who": true, "when": true, "where": true,
	"why": true, "how": true, "can": true, "may": true, "all": true,
	"any": true, "out": true, "get": true, "got": true, "her": true,
	"his": true, "him": true, "she": true, "they": true, "them": true,
}

// Tokenize returns the normalized tokens of s in occurrence order,
// duplicates included. Empty input yields nil.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, f := range fields {
		if len(f) < minTokenLen || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSet returns the distinct normalized tokens of s.
// Empty input (or all-stopword input) yields an empty set.
func TokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokenize(s) {
		set[tok] = true
	}
	return set
}
