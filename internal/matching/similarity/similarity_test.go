package similarity

import (
	"testing"

	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/vectorizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineRow(t *testing.T) {
	v, rows := vectorizer.FitTransform([]string{"python, flask", "java, spring", "python, django"})

	sims := CosineRow(v.Transform("python flask"), rows)
	require.Len(t, sims, 3)
	assert.InDelta(t, 1.0, sims[0], 1e-9)
	assert.Equal(t, 0.0, sims[1])
	assert.Greater(t, sims[2], 0.0)
	assert.Less(t, sims[2], sims[0])
}

func TestCosineZeroVector(t *testing.T) {
	_, rows := vectorizer.FitTransform([]string{"python", "java"})

	sims := CosineRow(vectorizer.Vector{}, rows)
	assert.Equal(t, []float64{0, 0}, sims)

	assert.Equal(t, 0.0, Pair(vectorizer.Vector{}, vectorizer.Vector{}))
}

func TestCosineMatrix(t *testing.T) {
	v, rows := vectorizer.FitTransform([]string{"go, kafka", "go, redis"})
	queries := v.TransformAll([]string{"go kafka", "redis"})

	m := Cosine(queries, rows)
	require.Len(t, m, 2)
	require.Len(t, m[0], 2)
	assert.InDelta(t, 1.0, m[0][0], 1e-9)
	assert.Equal(t, 0.0, m[1][0])
	for _, row := range m {
		for _, s := range row {
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestMinMax(t *testing.T) {
	in := []float64{0.2, 0.6, 1.0}
	out := MinMax(in)

	assert.Equal(t, []float64{0.2, 0.6, 1.0}, in, "input must not be modified")
	assert.InDelta(t, 0.0, out[0], 1e-9)
	assert.InDelta(t, 0.5, out[1], 1e-4)
	assert.InDelta(t, 1.0, out[2], 1e-4)
	assert.Less(t, out[2], 1.0)
}

func TestMinMaxSkipsNonPositiveMax(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 0}, MinMax([]float64{0, 0, 0}))
	assert.Equal(t, []float64{}, MinMax(nil))
}

func TestMinMaxConstantPositive(t *testing.T) {
	out := MinMax([]float64{0.4, 0.4})
	assert.Equal(t, []float64{0, 0}, out)
}
