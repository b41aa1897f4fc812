package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
)

const corpusCSV = `Job Id,Company Id,Job Title,Key Skills,Job Experience,Role Category,Functional Area,Job Description
J1,1,Backend Developer,"python, flask",2-5,Programming,IT Software,
J2,2,Java Developer,"java, spring",3-6,Programming,IT Software,Builds services.
J3,1,Python Developer,"python, django",0-2,Programming,IT Software,
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRecommendCommand(t *testing.T) {
	path := writeFile(t, "jobs.csv", corpusCSV)

	out, err := execute(t, "", "recommend", "--corpus", path,
		"--skills", "python flask", "--title", "backend developer", "--years", "3")
	require.NoError(t, err)

	var got recommendOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, 3, got.Count)
	ids := []string{got.Recommendations[0].Job.ID, got.Recommendations[1].Job.ID, got.Recommendations[2].Job.ID}
	assert.Equal(t, []string{"J1", "J3", "J2"}, ids)
	assert.NotEmpty(t, got.CorpusVersion)
}

func TestRecommendCommandErrors(t *testing.T) {
	path := writeFile(t, "jobs.csv", corpusCSV)

	_, err := execute(t, "", "recommend", "--corpus", path)
	assert.ErrorContains(t, err, "--skills or --title")

	_, err = execute(t, "", "recommend", "--skills", "go")
	assert.ErrorContains(t, err, `"corpus" not set`)

	_, err = execute(t, "", "recommend", "--corpus", filepath.Join(t.TempDir(), "missing.csv"), "--skills", "go")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRankCommandFromStdin(t *testing.T) {
	candidates := `[
		{"username": "c2", "skills": "java", "experience": 10},
		{"username": "c1", "skills": "python, sql, excel", "experience": 3}
	]`
	out, err := execute(t, candidates, "rank",
		"--job-skills", "python, sql", "--job-title", "data analyst", "--job-experience", "2-4 years",
		"--candidates", "-")
	require.NoError(t, err)

	var got rankOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, 2, got.Count)
	assert.Equal(t, "c1", got.Candidates[0].ID)
	assert.Equal(t, 3.0, got.Candidates[0].Experience)
	assert.InDelta(t, 0.05, got.Candidates[1].FinalScore, 1e-12)
}

func TestRankCommandFileAndTopN(t *testing.T) {
	path := writeFile(t, "candidates.json", `[{"id":1,"skills":"go"},{"id":2,"skills":"rust"},{"id":3,"skills":"go, sql"}]`)
	out, err := execute(t, "", "rank", "--job-skills", "go", "--candidates", path, "--top-n", "1")
	require.NoError(t, err)

	var got rankOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "1", got.Candidates[0].ID)

	_, err = execute(t, "{", "rank", "--job-skills", "go", "--candidates", "-")
	assert.ErrorContains(t, err, "decoding candidates")
}

func TestDescribeCommand(t *testing.T) {
	in := writeFile(t, "jobs.csv", corpusCSV)
	out := filepath.Join(t.TempDir(), "described.csv")

	_, err := execute(t, "", "describe", "--corpus", in, "--out", out)
	require.NoError(t, err)

	jobs, err := corpus.LoadCSVFile(out)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, corpus.GenerateDescription(jobs[0]), jobs[0].Description)
	assert.Contains(t, jobs[2].Description, "Freshers may also apply")
	assert.Equal(t, "Builds services.", jobs[1].Description)

	stdout, err := execute(t, "", "describe", "--corpus", in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Job Id,Company Id,Job Title"))
}
