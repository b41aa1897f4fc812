// Package similarity computes cosine similarity between sparse TF-IDF
// vectors and rescales per-query similarity vectors with min-max
// normalisation.
package similarity

import (
	"math"

	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/safemath"
	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/vectorizer"
)

// Cosine returns the len(a) x len(b) matrix of cosine similarities between
// every row of a and every row of b.
func Cosine(a, b []vectorizer.Vector) [][]float64 {
	bNorms := norms(b)
	out := make([][]float64, len(a))
	for i, row := range a {
		out[i] = cosineAgainst(row, b, bNorms)
	}
	return out
}

// CosineRow returns the similarity of q against every row of b.
func CosineRow(q vectorizer.Vector, b []vectorizer.Vector) []float64 {
	return cosineAgainst(q, b, norms(b))
}

// Pair returns the cosine similarity of two vectors. A zero vector on either
// side gives 0.
func Pair(a, b vectorizer.Vector) float64 {
	return safemath.Clamp01(dot(a, b) / (safemath.NonZero(norm(a)) * safemath.NonZero(norm(b))))
}

func cosineAgainst(q vectorizer.Vector, b []vectorizer.Vector, bNorms []float64) []float64 {
	qNorm := safemath.NonZero(norm(q))
	out := make([]float64, len(b))
	for j, row := range b {
		out[j] = safemath.Clamp01(dot(q, row) / (qNorm * safemath.NonZero(bNorms[j])))
	}
	return out
}

func norms(rows []vectorizer.Vector) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = norm(row)
	}
	return out
}

func norm(v vectorizer.Vector) float64 {
	var sum float64
	for _, w := range v.Weights {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// dot merges the two sorted index lists.
func dot(a, b vectorizer.Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += a.Weights[i] * b.Weights[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}
