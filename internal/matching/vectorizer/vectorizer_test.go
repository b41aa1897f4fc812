package vectorizer

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var skillsCorpus = []string{
	"python, flask",
	"java, spring",
	"python, django",
}

func norm(v Vector) float64 {
	var s float64
	for _, w := range v.Weights {
		s += w * w
	}
	return math.Sqrt(s)
}

func TestFitVocabulary(t *testing.T) {
	v := Fit(skillsCorpus)

	require.Equal(t, 8, v.VocabularySize())
	assert.Equal(t, 3, v.Documents())
	assert.Equal(t, "django", v.Term(0))
	assert.Equal(t, "spring", v.Term(7))

	idf, ok := v.IDF("python")
	require.True(t, ok)
	assert.InDelta(t, math.Log(4.0/3.0)+1, idf, 1e-12)

	idf, ok = v.IDF("python flask")
	require.True(t, ok)
	assert.InDelta(t, math.Log(2)+1, idf, 1e-12)

	_, ok = v.IDF("rust")
	assert.False(t, ok)
}

func TestTransformWeights(t *testing.T) {
	v := Fit(skillsCorpus)
	vec := v.Transform("python flask")

	require.Equal(t, []int{1, 4, 6}, vec.Indices)
	assert.InDelta(t, 1.0, norm(vec), 1e-12)

	pythonIDF := math.Log(4.0/3.0) + 1
	flaskIDF := math.Log(2) + 1
	n := math.Sqrt(pythonIDF*pythonIDF + 2*flaskIDF*flaskIDF)
	assert.InDelta(t, flaskIDF/n, vec.Weights[0], 1e-12)
	assert.InDelta(t, pythonIDF/n, vec.Weights[1], 1e-12)
	assert.InDelta(t, flaskIDF/n, vec.Weights[2], 1e-12)
}

func TestTransformRepeatedTermsCount(t *testing.T) {
	v := Fit(skillsCorpus)
	once := v.Transform("java")
	twice := v.Transform("java java")

	require.Equal(t, []int{2}, once.Indices)
	assert.InDelta(t, 1.0, once.Weights[0], 1e-12)
	// "java java" adds the unseen bigram, which is ignored; normalisation
	// leaves the single surviving term at weight 1.
	assert.Equal(t, once, twice)
}

func TestTransformIgnoresUnseenTerms(t *testing.T) {
	v := Fit(skillsCorpus)
	assert.True(t, v.Transform("rust golang").IsZero())
	assert.True(t, v.Transform("").IsZero())

	partial := v.Transform("python rust")
	require.Equal(t, 1, partial.Len())
	assert.InDelta(t, 1.0, partial.Weights[0], 1e-12)
}

func TestFitEmptyCorpus(t *testing.T) {
	v := Fit(nil)
	assert.True(t, v.Empty())
	assert.True(t, v.Transform("python").IsZero())

	v = Fit([]string{"123", "!!"})
	assert.True(t, v.Empty())
}

func TestFitTransformDeterministic(t *testing.T) {
	_, a := FitTransform(skillsCorpus)
	_, b := FitTransform(skillsCorpus)
	assert.Equal(t, a, b)
	require.Len(t, a, 3)
	for _, vec := range a {
		assert.InDelta(t, 1.0, norm(vec), 1e-12)
	}
}

func BenchmarkFit(b *testing.B) {
	for _, size := range []int{100, 1000} {
		corpus := make([]string, size)
		for i := range corpus {
			corpus[i] = fmt.Sprintf("python, sql, skill%c%c, cloud, communication", 'a'+i%26, 'a'+(i/26)%26)
		}
		b.Run(fmt.Sprintf("docs=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Fit(corpus)
			}
		})
	}
}
