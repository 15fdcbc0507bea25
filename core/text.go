package core

import (
	"strings"
	"unicode"
)

// Stop words excluded from tokenization and lexical scoring.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true,
}

// NormalizeText lowercases text, replaces punctuation with spaces, and
// collapses runs of whitespace. Two texts that differ only in formatting
// normalize to the same string.
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true // also trims leading whitespace
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// Tokenize splits text into index terms. The same function runs at
// ingestion time and at query time so postings and query terms always
// agree. Stop words and very short tokens are dropped.
func Tokenize(text string) []string {
	words := strings.Fields(NormalizeText(text))
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) <= 2 || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// TermFrequencies counts term occurrences in text after tokenization.
func TermFrequencies(text string) map[string]int {
	tokens := Tokenize(text)
	freqs := make(map[string]int, len(tokens))
	for _, token := range tokens {
		freqs[token]++
	}
	return freqs
}
