// Package vectorizer fits a TF-IDF vocabulary over a corpus of short texts
// and projects arbitrary text into that fixed space.
//
// Features are the 1-grams and 2-grams produced by the tokenizer package.
// Weights are raw term counts multiplied by a smoothed inverse document
// frequency, idf(t) = ln((1+n)/(1+df(t))) + 1, and every vector is L2
// normalised. The vocabulary is frozen once Fit returns: terms that were not
// seen in the corpus contribute nothing to a transformed vector.
package vectorizer

import (
	"math"
	"sort"

	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/tokenizer"
)

// Vector is a sparse, L2-normalised TF-IDF vector. Indices are strictly
// increasing positions into the vocabulary it was produced from.
type Vector struct {
	Indices []int
	Weights []float64
}

// Len returns the number of non-zero entries.
func (v Vector) Len() int {
	return len(v.Indices)
}

// IsZero reports whether the vector has no non-zero entries.
func (v Vector) IsZero() bool {
	return len(v.Indices) == 0
}

// Vectorizer holds a fitted vocabulary and its idf weights. It is immutable
// after Fit and safe for concurrent use.
type Vectorizer struct {
	vocab map[string]int
	terms []string
	idf   []float64
	docs  int
}

// Fit builds the vocabulary over corpus. An empty corpus, or one whose texts
// produce no alphabetic tokens, yields a Vectorizer with an empty vocabulary;
// every Transform on it returns the zero vector.
func Fit(corpus []string) *Vectorizer {
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, feature := range tokenizer.Features(text) {
			if _, ok := seen[feature]; ok {
				continue
			}
			seen[feature] = struct{}{}
			df[feature]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return &Vectorizer{
		vocab: vocab,
		terms: terms,
		idf:   idf,
		docs:  len(corpus),
	}
}

// FitTransform fits the vocabulary over corpus and returns the vector of
// every document in corpus order.
func FitTransform(corpus []string) (*Vectorizer, []Vector) {
	v := Fit(corpus)
	return v, v.TransformAll(corpus)
}

// Transform projects text into the fitted space.
func (v *Vectorizer) Transform(text string) Vector {
	counts := make(map[int]float64)
	for _, feature := range tokenizer.Features(text) {
		if idx, ok := v.vocab[feature]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return Vector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	weights := make([]float64, len(indices))
	var sumSquares float64
	for i, idx := range indices {
		w := counts[idx] * v.idf[idx]
		weights[i] = w
		sumSquares += w * w
	}
	norm := math.Sqrt(sumSquares)
	for i := range weights {
		weights[i] /= norm
	}
	return Vector{Indices: indices, Weights: weights}
}

// TransformAll projects each text in order.
func (v *Vectorizer) TransformAll(texts []string) []Vector {
	vectors := make([]Vector, len(texts))
	for i, text := range texts {
		vectors[i] = v.Transform(text)
	}
	return vectors
}

// VocabularySize returns the number of fitted features.
func (v *Vectorizer) VocabularySize() int {
	return len(v.terms)
}

// Empty reports whether the fitted vocabulary has no features.
func (v *Vectorizer) Empty() bool {
	return len(v.terms) == 0
}

// Documents returns the number of documents the vocabulary was fitted on.
func (v *Vectorizer) Documents() int {
	return v.docs
}

// Term returns the feature at vocabulary index idx.
func (v *Vectorizer) Term(idx int) string {
	return v.terms[idx]
}

// IDF returns the inverse document frequency of term and whether the term is
// part of the vocabulary.
func (v *Vectorizer) IDF(term string) (float64, bool) {
	idx, ok := v.vocab[term]
	if !ok {
		return 0, false
	}
	return v.idf[idx], true
}
