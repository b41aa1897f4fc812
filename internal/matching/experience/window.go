package experience

import (
	"regexp"
	"strconv"
)

// Defaults for requirement text that states no usable bound.
const (
	FresherMax     = 0.5
	OpenEndedSpan  = 20.0
	UnboundedMax   = 50.0
	distanceFactor = 2.0
)

var (
	fresherPattern  = regexp.MustCompile(`(?i)\bfreshers?\b`)
	atLeastPattern  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*\+\s*(?:(?:years?|yrs?)\b)?`)
	betweenPattern  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:-|–|—|\bto\b)\s*(\d+(?:\.\d+)?)`)
	exactPattern    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:years?|yrs?)\b`)
	numberInPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Window is the acceptable (Min, Max) years for a job on the candidate
// ranking path.
type Window struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ParseWindow reads a free-text requirement. The first matching rule wins:
// "fresher" gives (0, 0.5), "N+ years" gives (N, N+20), "A-B" or "A to B"
// gives the ordered pair, "N years" gives (N, N). Anything else is treated
// as open: (0, 50).
func ParseWindow(text string) Window {
	if fresherPattern.MatchString(text) {
		return Window{Min: 0, Max: FresherMax}
	}
	if m := atLeastPattern.FindStringSubmatch(text); m != nil {
		n := parseFloat(m[1])
		return Window{Min: n, Max: n + OpenEndedSpan}
	}
	if m := betweenPattern.FindStringSubmatch(text); m != nil {
		a, b := parseFloat(m[1]), parseFloat(m[2])
		return Window{Min: min(a, b), Max: max(a, b)}
	}
	if m := exactPattern.FindStringSubmatch(text); m != nil {
		n := parseFloat(m[1])
		return Window{Min: n, Max: n}
	}
	return Window{Min: 0, Max: UnboundedMax}
}

// WindowFit returns 1 inside w and 1/(1+d/2) outside it, where d is the
// distance to the nearest bound.
func WindowFit(years float64, w Window) float64 {
	var distance float64
	switch {
	case years < w.Min:
		distance = w.Min - years
	case years > w.Max:
		distance = years - w.Max
	default:
		return 1
	}
	return max(0, 1/(1+distance/distanceFactor))
}

// Years extracts the first number in text, or 0 when there is none.
func Years(text string) float64 {
	m := numberInPattern.FindString(text)
	if m == "" {
		return 0
	}
	return parseFloat(m)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
