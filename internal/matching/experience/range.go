// Package experience parses experience requirements and scores how well a
// candidate's years of experience fit them.
//
// Two models coexist on purpose. Range and Fit drive job recommendations:
// the range comes from the integers in a job's experience text and the fit
// is a multiplicative gate with asymmetric penalties. Window and WindowFit
// drive candidate ranking: the window is parsed from phrases such as
// "5+ years" or "fresher" and the fit decays smoothly with distance.
package experience

import (
	"regexp"
	"strconv"

	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/safemath"
)

var integerPattern = regexp.MustCompile(`\d+`)

// Range is an integer (Min, Max) interval of years parsed from job text.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ParseRange scans raw for integer substrings and returns (first, last).
// Text without digits yields (0, 0). The pair is ordered so Min <= Max.
func ParseRange(raw string) Range {
	matches := integerPattern.FindAllString(raw, -1)
	if len(matches) == 0 {
		return Range{}
	}
	lo := atoi(matches[0])
	hi := atoi(matches[len(matches)-1])
	if lo > hi {
		lo, hi = hi, lo
	}
	return Range{Min: lo, Max: hi}
}

// Fit scores years against r. Inside the range the score is 1. Below it the
// shortfall is measured against the range minimum; above it the excess is
// measured against the candidate's own years, so senior candidates are
// penalised more gently than juniors.
func Fit(years float64, r Range) float64 {
	lo, hi := float64(r.Min), float64(r.Max)
	switch {
	case years < lo:
		return max(0, 1-safemath.Div(lo-years, lo))
	case years > hi:
		return max(0, 1-safemath.Div(years-hi, years))
	default:
		return 1
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		// Only overflow can fail here; treat it as the largest value.
		return int(^uint(0) >> 1)
	}
	return n
}
