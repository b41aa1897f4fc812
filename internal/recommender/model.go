// Package recommender ranks job postings for a candidate profile.
//
// Build fits one TF-IDF vocabulary over the corpus skill texts and another
// over the titles, and returns an immutable Model. Model.Recommend blends
// normalised skill and title cosine similarity 50/50 and gates the result
// with the experience fit of each job. Engine keeps the live Model behind an
// atomic pointer and swaps in a freshly built one when the corpus changes.
package recommender

import (
	"errors"
	"sort"
	"time"

	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/experience"
	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/similarity"
	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/vectorizer"
)

// MaxRecommendations bounds every recommendation list.
const MaxRecommendations = 10

var (
	// ErrEmptyCorpus is returned by Build when there are no jobs to fit.
	ErrEmptyCorpus = errors.New("job corpus is empty")
	// ErrEmptyVocabulary is returned by Build when neither skills nor titles
	// contain a single alphabetic token.
	ErrEmptyVocabulary = errors.New("job corpus has no usable vocabulary")
)

// Query is one candidate profile.
type Query struct {
	Skills string  `json:"skills"`
	Title  string  `json:"title"`
	Years  float64 `json:"years"`
}

// Recommendation is a job annotated with the signals that ranked it.
type Recommendation struct {
	Job             corpus.JobRecord `json:"job"`
	SkillScore      float64          `json:"skill_score"`
	TitleScore      float64          `json:"title_score"`
	ExperienceScore float64          `json:"experience_score"`
	FinalScore      float64          `json:"final_score"`
	ApplicationURL  string           `json:"application_url,omitempty"`
}

// Model is the fitted state for one corpus snapshot. It is never modified
// after Build, so any number of goroutines may call Recommend concurrently.
type Model struct {
	jobs      []corpus.JobRecord
	skills    *vectorizer.Vectorizer
	titles    *vectorizer.Vectorizer
	skillRows []vectorizer.Vector
	titleRows []vectorizer.Vector
	version   string
	builtAt   time.Time
}

// Build fits the skill and title vocabularies over jobs. Every record's
// experience range is re-derived from its raw text so the model does not
// depend on how the caller loaded it.
func Build(jobs []corpus.JobRecord) (*Model, error) {
	if len(jobs) == 0 {
		return nil, ErrEmptyCorpus
	}

	owned := make([]corpus.JobRecord, len(jobs))
	skillTexts := make([]string, len(jobs))
	titleTexts := make([]string, len(jobs))
	for i, j := range jobs {
		j.ExperienceRange = experience.ParseRange(j.Experience)
		owned[i] = j
		skillTexts[i] = j.Skills
		titleTexts[i] = j.Title
	}

	skills, skillRows := vectorizer.FitTransform(skillTexts)
	titles, titleRows := vectorizer.FitTransform(titleTexts)
	if skills.Empty() && titles.Empty() {
		return nil, ErrEmptyVocabulary
	}

	return &Model{
		jobs:      owned,
		skills:    skills,
		titles:    titles,
		skillRows: skillRows,
		titleRows: titleRows,
		version:   corpus.Fingerprint(owned),
		builtAt:   time.Now().UTC(),
	}, nil
}

// Recommend returns at most MaxRecommendations jobs for q, best first. Ties
// keep corpus order. An empty, non-nil slice means no job scored above zero.
func (m *Model) Recommend(q Query) []Recommendation {
	if m == nil || len(m.jobs) == 0 {
		return []Recommendation{}
	}

	skillSim := similarity.MinMax(similarity.CosineRow(m.skills.Transform(q.Skills), m.skillRows))
	titleSim := similarity.MinMax(similarity.CosineRow(m.titles.Transform(q.Title), m.titleRows))

	n := len(m.jobs)
	expScore := make([]float64, n)
	final := make([]float64, n)
	order := make([]int, n)
	for i, job := range m.jobs {
		expScore[i] = experience.Fit(q.Years, job.ExperienceRange)
		final[i] = (skillSim[i] + titleSim[i]) / 2 * expScore[i]
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return final[order[a]] > final[order[b]]
	})

	if final[order[0]] == 0 {
		return []Recommendation{}
	}
	if len(order) > MaxRecommendations {
		order = order[:MaxRecommendations]
	}

	out := make([]Recommendation, len(order))
	for k, i := range order {
		out[k] = Recommendation{
			Job:             m.jobs[i],
			SkillScore:      skillSim[i],
			TitleScore:      titleSim[i],
			ExperienceScore: expScore[i],
			FinalScore:      final[i],
		}
	}
	return out
}

// Version is the content fingerprint of the corpus the model was built on.
func (m *Model) Version() string {
	return m.version
}

// BuiltAt is when Build finished.
func (m *Model) BuiltAt() time.Time {
	return m.builtAt
}

// Len returns the number of jobs in the corpus.
func (m *Model) Len() int {
	return len(m.jobs)
}

// Job returns the job with the given id.
func (m *Model) Job(id string) (corpus.JobRecord, bool) {
	for _, j := range m.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return corpus.JobRecord{}, false
}

// JobsByCompany returns the company's jobs in corpus order.
func (m *Model) JobsByCompany(companyID string) []corpus.JobRecord {
	out := make([]corpus.JobRecord, 0)
	for _, j := range m.jobs {
		if j.CompanyID == companyID {
			out = append(out, j)
		}
	}
	return out
}

// VocabularySizes reports the number of skill and title features.
func (m *Model) VocabularySizes() (skills, titles int) {
	return m.skills.VocabularySize(), m.titles.VocabularySize()
}
