package corpus

import (
	"fmt"
	"strings"
)

const genericRequirements = " The job requires good communication skills, problem-solving ability, teamwork, and adaptability to new technologies."

// GenerateDescription writes a plain-language description for postings that
// were imported without one.
func GenerateDescription(j JobRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This role falls under %s with a focus on %s. The candidate should have skills in %s.",
		j.FunctionalArea, j.RoleCategory, j.Skills)
	if strings.Contains(j.Experience, "0 -") || strings.Contains(j.Experience, "0-") {
		b.WriteString(" Freshers may also apply for this position.")
	}
	b.WriteString(genericRequirements)
	return b.String()
}
