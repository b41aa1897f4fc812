package similarity

import "github.com/AbaeNeupane/Placement-Assistance/internal/matching/safemath"

// MinMax rescales values to [0,1] with (x-min)/(max-min+ε). When the maximum
// is not positive the values are returned unchanged, so an all-zero
// similarity vector stays all zero. The input slice is never modified.
func MinMax(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= 0 {
		return out
	}
	for i, v := range values {
		out[i] = safemath.Div(v-lo, hi-lo)
	}
	return out
}
