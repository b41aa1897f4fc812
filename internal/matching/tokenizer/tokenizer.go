// Package tokenizer provides text tokenisation for the matching engine.
// It lower-cases input, drops punctuation, splits on whitespace and keeps
// only purely alphabetic words. Features expands a token stream into the
// 1-gram and 2-gram terms the vectorizer weights.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize breaks text into lowercased alphabetic tokens. Punctuation is
// removed before splitting, so "node.js" becomes "nodejs" and "C++" becomes
// "c". Tokens that still carry a digit or underscore ("3d", "web_2") are
// dropped entirely.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	cleaned := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
	words := strings.Fields(cleaned)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if !isAlpha(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Features returns the unigrams of text followed by every contiguous pair of
// tokens joined with a single space.
func Features(text string) []string {
	return NGrams(Tokenize(text))
}

// NGrams expands tokens into 1-grams and 2-grams.
func NGrams(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	features := make([]string, 0, 2*len(tokens)-1)
	features = append(features, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		features = append(features, tokens[i]+" "+tokens[i+1])
	}
	return features
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isAlpha(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return word != ""
}
