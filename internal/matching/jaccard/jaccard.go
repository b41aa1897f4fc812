// Package jaccard builds token sets from delimiter-separated lists such as
// "Python, SQL / Excel" and compares them with the Jaccard index.
package jaccard

import (
	"regexp"
	"strings"
)

var separators = regexp.MustCompile(`[,;/|]+`)

// Split breaks text on commas, semicolons, slashes and pipes, lowercases and
// trims every part, and drops empty and repeated parts. Order of first
// appearance is preserved.
func Split(text string) []string {
	parts := separators.Split(text, -1)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// Join renders tokens as a normalised comma-separated list.
func Join(tokens []string) string {
	return strings.Join(tokens, ", ")
}

// Similarity returns |a ∩ b| / |a ∪ b|. Two empty sets score 0.
func Similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, token := range a {
		set[token] = struct{}{}
	}
	var inter int
	union := len(set)
	counted := make(map[string]struct{}, len(b))
	for _, token := range b {
		if _, dup := counted[token]; dup {
			continue
		}
		counted[token] = struct{}{}
		if _, ok := set[token]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
