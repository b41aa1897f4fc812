// Package corpus defines job postings, the sources they are loaded from
// (CSV files and PostgreSQL) and the Kafka event that announces a corpus
// change to running recommender instances.
package corpus

import (
	"time"

	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/experience"
)

// JobRecord is one posting in the job corpus. ExperienceRange is derived
// from Experience when the record is loaded.
type JobRecord struct {
	ID              string           `json:"job_id"`
	CompanyID       string           `json:"company_id"`
	Title           string           `json:"title"`
	Skills          string           `json:"key_skills"`
	Experience      string           `json:"experience"`
	ExperienceRange experience.Range `json:"experience_range"`
	RoleCategory    string           `json:"role_category,omitempty"`
	FunctionalArea  string           `json:"functional_area,omitempty"`
	Description     string           `json:"description,omitempty"`
}

// WithDerivedFields returns a copy of j with ExperienceRange parsed from the
// raw experience text and a generated description when none is present.
func (j JobRecord) WithDerivedFields() JobRecord {
	j.ExperienceRange = experience.ParseRange(j.Experience)
	if j.Description == "" {
		j.Description = GenerateDescription(j)
	}
	return j
}

// UpdatedEvent is the Kafka payload published after the stored corpus
// changes. Consumers rebuild their model from the source of truth.
type UpdatedEvent struct {
	Source    string    `json:"source"`
	Jobs      int       `json:"jobs"`
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Version  string `json:"version"`
}
