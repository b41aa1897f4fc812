package ranker

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var analystJob = Job{Skills: "python, sql", Title: "data analyst", Experience: "2-4 years"}

func TestRankScenario(t *testing.T) {
	records := []map[string]any{
		{"username": "c2", "skills": "java", "experience": 10},
		{"username": "c1", "skills": "python, sql, excel", "experience": 3},
	}
	ranked := RankFields(analystJob, records, 0)
	require.Len(t, ranked, 2)

	c1, c2 := ranked[0], ranked[1]
	assert.Equal(t, "c1", c1.ID)
	assert.Equal(t, "c2", c2.ID)

	assert.Equal(t, 1.0, c1.ExperienceScore)
	assert.InDelta(t, 2.0/3.0, c1.SkillScore, 1e-12)
	assert.Equal(t, 0.0, c1.TitleScore, "title falls back to skills, which do not match the job title")
	assert.InDelta(t, 0.5*2.0/3.0+0.2, c1.FinalScore, 1e-12)

	assert.Equal(t, 0.0, c2.SkillScore)
	assert.InDelta(t, 0.25, c2.ExperienceScore, 1e-12)
	assert.InDelta(t, 0.05, c2.FinalScore, 1e-12)
	assert.Greater(t, c1.FinalScore, 10*c2.FinalScore)

	assert.Equal(t, "python, sql, excel", c1.SkillsText)
	assert.Equal(t, 3.0, c1.Experience)
}

func TestRankTitleAliasesAndFallbacks(t *testing.T) {
	records := []map[string]any{
		{"id": "designation", "designation": "Data Analyst", "skills": "python"},
		{"id": "headline", "headline": "data analyst", "skills": "python"},
		{"id": "desired", "preferred_designation": "Data Analyst", "skills": "python"},
		{"id": "none", "skills": "python"},
	}
	ranked := RankFields(Job{Skills: "python", Title: "Data Analyst"}, records, 10)
	require.Len(t, ranked, 4)

	byID := make(map[string]ScoredCandidate)
	for _, c := range ranked {
		byID[c.ID] = c
	}
	assert.Equal(t, 1.0, byID["designation"].TitleScore)
	assert.Equal(t, 1.0, byID["headline"].TitleScore)
	assert.Equal(t, 1.0, byID["desired"].TitleScore)
	assert.Equal(t, 0.0, byID["none"].TitleScore)
	assert.Equal(t, "none", ranked[3].ID)
}

func TestRankTopNAndStableTies(t *testing.T) {
	records := make([]map[string]any, 12)
	for i := range records {
		records[i] = map[string]any{"id": fmt.Sprintf("c%02d", i), "skills": "go", "experience": "3"}
	}
	records[9]["skills"] = "go, kafka"

	ranked := RankFields(Job{Skills: "go, kafka", Title: "engineer", Experience: "3 years"}, records, 0)
	require.Len(t, ranked, DefaultTopN)
	assert.Equal(t, "c09", ranked[0].ID)
	got := make([]string, 0, len(ranked)-1)
	for _, c := range ranked[1:] {
		got = append(got, c.ID)
	}
	assert.Equal(t, []string{"c00", "c01", "c02", "c03", "c04", "c05", "c06"}, got)

	assert.Len(t, RankFields(analystJob, records, 3), 3)
	assert.Empty(t, Rank(analystJob, nil, 5))
}

func TestRankMalformedInputDegrades(t *testing.T) {
	records := []map[string]any{
		{"skills": nil, "experience": "unknown"},
		{"experience": []any{"x"}},
		{},
	}
	ranked := RankFields(Job{}, records, 0)
	require.Len(t, ranked, 3)
	for _, c := range ranked {
		assert.Equal(t, 0.0, c.Experience)
		assert.Equal(t, 0.0, c.SkillScore)
		assert.Equal(t, 0.0, c.TitleScore)
		assert.Equal(t, 1.0, c.ExperienceScore, "empty requirement text is the open (0,50) window")
		assert.InDelta(t, 0.2, c.FinalScore, 1e-12)
		assert.Equal(t, "", c.SkillsText)
	}
}

func TestRankBounds(t *testing.T) {
	job := Job{Skills: "a, b, c", Title: "x / y", Experience: "fresher"}
	for years := 0; years < 40; years += 3 {
		for _, skills := range []string{"", "a", "a, b, c", "a|b|c|d", "z"} {
			r := Rank(job, []Candidate{{Skills: skills, Title: "x", Experience: float64(years)}}, 1)
			require.Len(t, r, 1)
			for _, s := range []float64{r[0].SkillScore, r[0].TitleScore, r[0].ExperienceScore, r[0].FinalScore} {
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 1.0)
			}
		}
	}
}

func TestRankDeterministicAndPure(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", Skills: "Python, SQL", Title: "Analyst", Experience: 2},
		{ID: "b", Skills: "sql", Experience: 5},
	}
	snapshot, err := json.Marshal(candidates)
	require.NoError(t, err)

	first, err := json.Marshal(Rank(analystJob, candidates, 0))
	require.NoError(t, err)
	second, err := json.Marshal(Rank(analystJob, candidates, 0))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	after, err := json.Marshal(candidates)
	require.NoError(t, err)
	assert.Equal(t, snapshot, after)
}

func TestFromFields(t *testing.T) {
	fields := map[string]any{
		"_id":              "507f1f77",
		"name":             "Asha",
		"key_skills":       []any{"Python", " SQL ", nil, ""},
		"job_title":        "  Analyst ",
		"headline":         "Data person",
		"desired_title":    "Lead Analyst",
		"total_experience": json.Number("4.5"),
	}
	c := FromFields(fields)
	assert.Equal(t, "507f1f77", c.ID)
	assert.Equal(t, "Asha", c.Name)
	assert.Equal(t, "Python, SQL", c.Skills)
	assert.Equal(t, "Analyst", c.Title)
	assert.Equal(t, "Data person", c.Headline)
	assert.Equal(t, "Lead Analyst", c.DesiredTitle)
	assert.Equal(t, 4.5, c.Experience)

	c.Fields["name"] = "changed"
	assert.Equal(t, "Asha", fields["name"], "the adapter copies its input")
}

func TestFromFieldsExperienceCoercion(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{3, 3},
		{int64(7), 7},
		{2.5, 2.5},
		{float32(1.5), 1.5},
		{"6", 6},
		{" 4 years ", 4},
		{"3-5 yrs", 3},
		{"fresher", 0},
		{"", 0},
		{-2, 0},
		{true, 0},
		{nil, 0},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%v", tc.in), func(t *testing.T) {
			c := FromFields(map[string]any{"experience": tc.in})
			assert.Equal(t, tc.want, c.Experience)
		})
	}
}

func TestFromFieldsExperienceAliasFallthrough(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   float64
	}{
		{"blank first alias", map[string]any{"experience": "", "years_experience": 5}, 5},
		{"whitespace first alias", map[string]any{"experience": "  ", "experience_years": "3"}, 3},
		{"unsupported type", map[string]any{"experience": true, "total_experience": 2.5}, 2.5},
		{"nil first alias", map[string]any{"experience": nil, "Job Experience": "4 years"}, 4},
		{"first usable alias wins", map[string]any{"experience": 1, "years_experience": 9}, 1},
		{"text without digits is a value", map[string]any{"experience": "fresher", "years_experience": 6}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fields["skills"] = "python"
			assert.Equal(t, tc.want, FromFields(tc.fields).Experience)
		})
	}
}

func TestCandidateJSONOmitsSourceRecord(t *testing.T) {
	c := FromFields(map[string]any{"username": "u1", "skills": "go", "password_hash": "secret"})
	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password_hash")
	assert.Equal(t, "secret", c.Fields["password_hash"])
}

func TestFromFieldsDecodedJSON(t *testing.T) {
	var record map[string]any
	dec := json.NewDecoder(strings.NewReader(`{"username":"u1","skills":["go","sql"],"years_experience":2}`))
	require.NoError(t, dec.Decode(&record))

	c := FromFields(record)
	assert.Equal(t, "u1", c.ID)
	assert.Equal(t, "u1", c.Name)
	assert.Equal(t, "go, sql", c.Skills)
	assert.Equal(t, 2.0, c.Experience)
}
