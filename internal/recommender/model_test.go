package recommender

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioCorpus() []corpus.JobRecord {
	return []corpus.JobRecord{
		{ID: "J1", CompanyID: "1", Title: "Backend Developer", Skills: "python, flask", Experience: "2-5"},
		{ID: "J2", CompanyID: "2", Title: "Java Developer", Skills: "java, spring", Experience: "3-6"},
		{ID: "J3", CompanyID: "1", Title: "Python Developer", Skills: "python, django", Experience: "0-2"},
	}
}

func ids(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Job.ID
	}
	return out
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = Build([]corpus.JobRecord{{ID: "1", Title: "3d", Skills: "123"}})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)

	m, err := Build([]corpus.JobRecord{{ID: "1", Skills: "go"}})
	require.NoError(t, err, "one usable field is enough")
	skills, titles := m.VocabularySizes()
	assert.Equal(t, 1, skills)
	assert.Equal(t, 0, titles)
}

func TestRecommendScenario(t *testing.T) {
	m, err := Build(scenarioCorpus())
	require.NoError(t, err)

	recs := m.Recommend(Query{Skills: "python flask", Title: "backend developer", Years: 3})
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"J1", "J3", "J2"}, ids(recs))

	assert.Greater(t, recs[0].FinalScore, recs[1].FinalScore)
	assert.Greater(t, recs[1].FinalScore, recs[2].FinalScore)
	assert.Equal(t, 1.0, recs[0].ExperienceScore)
	assert.InDelta(t, 1-1/3.0, recs[1].ExperienceScore, 1e-4)
	assert.Equal(t, 0.0, recs[2].SkillScore)
}

func TestRecommendScenarioWithoutTitles(t *testing.T) {
	jobs := scenarioCorpus()
	for i := range jobs {
		jobs[i].Title = ""
	}
	m, err := Build(jobs)
	require.NoError(t, err)

	recs := m.Recommend(Query{Skills: "python flask", Title: "backend developer", Years: 3})
	assert.Equal(t, []string{"J1", "J3", "J2"}, ids(recs))
	for _, r := range recs {
		assert.Equal(t, 0.0, r.TitleScore)
	}
}

func TestRecommendBounds(t *testing.T) {
	m, err := Build(scenarioCorpus())
	require.NoError(t, err)

	queries := []Query{
		{Skills: "python", Title: "developer", Years: 0},
		{Skills: "java spring python", Title: "java developer", Years: 12},
		{Skills: "python flask", Title: "backend developer", Years: 2},
	}
	for _, q := range queries {
		for _, r := range m.Recommend(q) {
			for _, s := range []float64{r.SkillScore, r.TitleScore, r.ExperienceScore, r.FinalScore} {
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 1.0)
			}
		}
	}
}

func TestRecommendNoMatch(t *testing.T) {
	m, err := Build(scenarioCorpus())
	require.NoError(t, err)

	recs := m.Recommend(Query{Skills: "rust", Title: "chef", Years: 3})
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestRecommendZeroExperienceFitGatesEverything(t *testing.T) {
	m, err := Build(scenarioCorpus())
	require.NoError(t, err)

	recs := m.Recommend(Query{Skills: "python flask", Title: "backend developer", Years: -1})
	assert.Empty(t, recs)
}

func TestRecommendNilModel(t *testing.T) {
	var m *Model
	assert.Empty(t, m.Recommend(Query{Skills: "python"}))
}

func TestRecommendTopTenStableTies(t *testing.T) {
	jobs := make([]corpus.JobRecord, 15)
	for i := range jobs {
		jobs[i] = corpus.JobRecord{
			ID:         fmt.Sprintf("J%02d", i),
			Title:      "Data Analyst",
			Skills:     "sql, excel",
			Experience: "1 - 3 yrs",
		}
	}
	jobs[12].Skills = "sql, excel, tableau"

	m, err := Build(jobs)
	require.NoError(t, err)

	recs := m.Recommend(Query{Skills: "sql excel", Title: "data analyst", Years: 2})
	require.Len(t, recs, MaxRecommendations)

	got := ids(recs)
	assert.Equal(t, []string{"J00", "J01", "J02", "J03", "J04", "J05", "J06", "J07", "J08", "J09"}, got,
		"equal scores keep corpus order and the weaker J12 is cut")
}

func TestRecommendDeterministic(t *testing.T) {
	q := Query{Skills: "python, django, flask", Title: "python developer", Years: 1}

	a, err := Build(scenarioCorpus())
	require.NoError(t, err)
	b, err := Build(scenarioCorpus())
	require.NoError(t, err)

	first, err := json.Marshal(a.Recommend(q))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(a.Recommend(q))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	other, err := json.Marshal(b.Recommend(q))
	require.NoError(t, err)
	assert.Equal(t, first, other)
	assert.Equal(t, a.Version(), b.Version())
}

func TestRecommendDoesNotMutateCorpus(t *testing.T) {
	jobs := scenarioCorpus()
	m, err := Build(jobs)
	require.NoError(t, err)

	recs := m.Recommend(Query{Skills: "python", Title: "developer", Years: 3})
	require.NotEmpty(t, recs)
	recs[0].Job.Title = "changed"

	j, ok := m.Job(recs[0].Job.ID)
	require.True(t, ok)
	assert.NotEqual(t, "changed", j.Title)
	assert.Equal(t, scenarioCorpus(), jobs)
}

func TestModelLookups(t *testing.T) {
	m, err := Build(scenarioCorpus())
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())
	assert.Len(t, m.Version(), 16)
	assert.False(t, m.BuiltAt().IsZero())

	byCompany := m.JobsByCompany("1")
	require.Len(t, byCompany, 2)
	assert.Equal(t, "J1", byCompany[0].ID)
	assert.Equal(t, "J3", byCompany[1].ID)
	assert.Empty(t, m.JobsByCompany("404"))

	_, ok := m.Job("missing")
	assert.False(t, ok)
}

func BenchmarkRecommend(b *testing.B) {
	jobs := make([]corpus.JobRecord, 2000)
	skills := []string{"python", "java", "sql", "excel", "spring", "django", "react", "aws", "docker", "kafka"}
	for i := range jobs {
		jobs[i] = corpus.JobRecord{
			ID:         fmt.Sprint(i),
			Title:      fmt.Sprintf("%s developer", skills[i%len(skills)]),
			Skills:     fmt.Sprintf("%s, %s, %s", skills[i%10], skills[(i/10)%10], skills[(i/100)%10]),
			Experience: fmt.Sprintf("%d - %d yrs", i%5, i%5+3),
		}
	}
	m, err := Build(jobs)
	require.NoError(b, err)
	q := Query{Skills: "python, django, aws", Title: "python developer", Years: 3}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Recommend(q)
	}
}
