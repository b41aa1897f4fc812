// Package safemath holds the division guards shared by every scorer in the
// matching pipeline. All of them use the same fixed Epsilon so that scores
// computed by different components stay comparable.
package safemath

// Epsilon is added to (or substituted for) denominators that may be zero.
const Epsilon = 1e-5

// Div returns num / (den + Epsilon). It is used where the denominator is a
// range or a count that may legitimately be zero.
func Div(num, den float64) float64 {
	return num / (den + Epsilon)
}

// NonZero returns den, or Epsilon when den is exactly zero. Vector norms go
// through it so that a zero vector divides to zero instead of NaN.
func NonZero(den float64) float64 {
	if den == 0 {
		return Epsilon
	}
	return den
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
