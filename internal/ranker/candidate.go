package ranker

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/experience"
)

// Field aliases accepted by FromFields, in lookup order.
var (
	idFields           = []string{"id", "_id", "username", "email"}
	nameFields         = []string{"name", "full_name", "username"}
	skillFields        = []string{"skills", "key_skills", "Key Skills", "skill_set"}
	titleFields        = []string{"title", "designation", "job_title", "current_title"}
	headlineFields     = []string{"headline"}
	desiredTitleFields = []string{"desired_title", "preferred_designation", "desired_designation"}
	experienceFields   = []string{"experience", "years_experience", "experience_years", "total_experience", "Job Experience"}
)

// Candidate is the canonical profile the ranker scores. Title is empty when
// the source record had none; the ranker then falls back to Headline,
// DesiredTitle and finally Skills.
type Candidate struct {
	ID           string         `json:"id,omitempty"`
	Name         string         `json:"name,omitempty"`
	Skills       string         `json:"skills"`
	Title        string         `json:"title,omitempty"`
	Headline     string         `json:"headline,omitempty"`
	DesiredTitle string         `json:"desired_title,omitempty"`
	Experience   float64        `json:"experience"`
	// Fields is the source record. It is never serialised because stored
	// profiles may carry data that must not reach API clients.
	Fields map[string]any `json:"-"`
}

// FromFields maps a loosely shaped record (a stored profile, a parsed résumé,
// a JSON request body) onto Candidate. Missing or malformed values become
// empty strings or zero years. The input map is copied, not retained.
func FromFields(fields map[string]any) Candidate {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Candidate{
		ID:           lookupText(fields, idFields),
		Name:         lookupText(fields, nameFields),
		Skills:       lookupText(fields, skillFields),
		Title:        lookupText(fields, titleFields),
		Headline:     lookupText(fields, headlineFields),
		DesiredTitle: lookupText(fields, desiredTitleFields),
		Experience:   lookupYears(fields, experienceFields),
		Fields:       copied,
	}
}

// FromFieldsAll adapts every record in order.
func FromFieldsAll(records []map[string]any) []Candidate {
	out := make([]Candidate, len(records))
	for i, r := range records {
		out[i] = FromFields(r)
	}
	return out
}

// effectiveTitle is the text compared with the job title.
func (c Candidate) effectiveTitle() string {
	for _, s := range []string{c.Title, c.Headline, c.DesiredTitle} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return c.Skills
}

func lookupText(fields map[string]any, aliases []string) string {
	for _, alias := range aliases {
		v, ok := fields[alias]
		if !ok || v == nil {
			continue
		}
		if s := toText(v); strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// lookupYears returns the first alias holding a usable value. Blank strings
// and values of unsupported types fall through to the next alias.
func lookupYears(fields map[string]any, aliases []string) float64 {
	for _, alias := range aliases {
		v, ok := fields[alias]
		if !ok || v == nil {
			continue
		}
		if years, ok := toYears(v); ok {
			return years
		}
	}
	return 0
}

func toText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(toText(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case fmt.Stringer:
		return val.String()
	case float64, float32, int, int64, int32, json.Number, bool:
		return fmt.Sprint(val)
	default:
		return ""
	}
}

func toYears(v any) (float64, bool) {
	var years float64
	switch val := v.(type) {
	case float64:
		years = val
	case float32:
		years = float64(val)
	case int:
		years = float64(val)
	case int32:
		years = float64(val)
	case int64:
		years = float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return experience.Years(val.String()), true
		}
		years = f
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			years = f
		} else {
			years = experience.Years(val)
		}
	default:
		return 0, false
	}
	if math.IsNaN(years) || math.IsInf(years, 0) || years < 0 {
		return 0, true
	}
	return years, true
}
