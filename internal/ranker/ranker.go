// Package ranker orders candidate profiles for one job posting.
//
// Each candidate gets a skill-set Jaccard score, a title-set Jaccard score
// and an experience-window fit. The final score is a weighted sum, so a
// title mismatch lowers but never zeroes a strong skills match.
package ranker

import (
	"sort"

	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/experience"
	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/jaccard"
	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/safemath"
)

// DefaultTopN is used when Rank is called with a non-positive limit.
const DefaultTopN = 8

const (
	skillWeight      = 0.5
	titleWeight      = 0.3
	experienceWeight = 0.2
)

// Job is the posting candidates are ranked against.
type Job struct {
	Skills     string `json:"skills"`
	Title      string `json:"title"`
	Experience string `json:"experience"`
}

// ScoredCandidate is a candidate annotated with its scores. SkillsText is
// the normalised skill list the skill score was computed from.
type ScoredCandidate struct {
	Candidate
	SkillsText      string  `json:"skills_text"`
	SkillScore      float64 `json:"skill_score"`
	TitleScore      float64 `json:"title_score"`
	ExperienceScore float64 `json:"experience_score"`
	FinalScore      float64 `json:"final_score"`
}

// Rank scores candidates against job and returns the best topN, highest
// final score first. Candidates with equal scores keep their input order.
func Rank(job Job, candidates []Candidate, topN int) []ScoredCandidate {
	if topN <= 0 {
		topN = DefaultTopN
	}
	jobSkills := jaccard.Split(job.Skills)
	jobTitle := jaccard.Split(job.Title)
	window := experience.ParseWindow(job.Experience)

	result := make([]ScoredCandidate, len(candidates))
	for i, c := range candidates {
		skills := jaccard.Split(c.Skills)
		title := jaccard.Split(c.effectiveTitle())

		sc := ScoredCandidate{
			Candidate:       c,
			SkillsText:      jaccard.Join(skills),
			SkillScore:      jaccard.Similarity(skills, jobSkills),
			TitleScore:      jaccard.Similarity(title, jobTitle),
			ExperienceScore: experience.WindowFit(c.Experience, window),
		}
		sc.FinalScore = safemath.Clamp01(skillWeight*sc.SkillScore + titleWeight*sc.TitleScore + experienceWeight*sc.ExperienceScore)
		result[i] = sc
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].FinalScore > result[j].FinalScore
	})
	if len(result) > topN {
		result = result[:topN]
	}
	return result
}

// RankFields adapts raw records with FromFields and ranks them.
func RankFields(job Job, records []map[string]any, topN int) []ScoredCandidate {
	return Rank(job, FromFieldsAll(records), topN)
}
