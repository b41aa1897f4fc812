package corpus

import (
	"fmt"
	"sort"
	"strings"
)

const (
	maxIDLength     = 255
	maxTitleLength  = 1024
	maxSkillsLength = 8192
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// ValidateJob checks that a record can be stored. A posting needs at least a
// title or a skills list to ever be matched.
func ValidateJob(j JobRecord) error {
	errs := make(map[string]string)

	if j.ID == "" {
		errs["job_id"] = "job id is required"
	} else if len(j.ID) > maxIDLength {
		errs["job_id"] = fmt.Sprintf("job id must be at most %d characters", maxIDLength)
	}
	if strings.TrimSpace(j.Title) == "" && strings.TrimSpace(j.Skills) == "" {
		errs["title"] = "title or key skills is required"
	}
	if len(j.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if len(j.Skills) > maxSkillsLength {
		errs["key_skills"] = fmt.Sprintf("key skills must be at most %d characters", maxSkillsLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Partition splits jobs into valid records and the validation errors of the
// rest, keyed by job id (or row position when the id is empty). A repeated
// id keeps its first occurrence; later ones are rejected under "id#row".
func Partition(jobs []JobRecord) ([]JobRecord, map[string]error) {
	valid := make([]JobRecord, 0, len(jobs))
	rejected := make(map[string]error)
	seen := make(map[string]struct{}, len(jobs))
	for i, j := range jobs {
		err := ValidateJob(j)
		if err == nil {
			if _, dup := seen[j.ID]; dup {
				rejected[fmt.Sprintf("%s#%d", j.ID, i+1)] = &ValidationError{
					Fields: map[string]string{"job_id": "duplicate job id"},
				}
				continue
			}
			seen[j.ID] = struct{}{}
			valid = append(valid, j)
			continue
		}
		id := j.ID
		if id == "" {
			id = fmt.Sprintf("#%d", i+1)
		}
		rejected[id] = err
	}
	return valid, rejected
}
