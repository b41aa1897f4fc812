package corpus

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/experience"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "\ufeffJob Id,Company Id,Job Title,Key Skills,Job Experience,Role Category,Functional Area,Job Description,Location\n" +
	"J1,101,Backend Developer,\"python, flask\",2 - 5 yrs,Programming & Design,\"IT Software - Application Programming\",,Pune\n" +
	"J2,102,Java Developer,\"java, spring\",3 - 6 yrs,Programming & Design,IT Software,Builds services,Delhi\n" +
	",103,Junior Developer,\"python, django\",0 - 2 yrs,,,,\n"

func TestLoadCSV(t *testing.T) {
	jobs, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, "J1", jobs[0].ID)
	assert.Equal(t, "101", jobs[0].CompanyID)
	assert.Equal(t, "python, flask", jobs[0].Skills)
	assert.Equal(t, experience.Range{Min: 2, Max: 5}, jobs[0].ExperienceRange)
	assert.Contains(t, jobs[0].Description, "This role falls under IT Software - Application Programming")

	assert.Equal(t, "Builds services", jobs[1].Description)

	assert.Equal(t, "3", jobs[2].ID, "missing ids fall back to the row number")
	assert.Equal(t, experience.Range{Min: 0, Max: 2}, jobs[2].ExperienceRange)
}

func TestLoadCSVMissingColumns(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("Job Id,Job Title\n1,Dev\n"))
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = LoadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestCSVRoundTripThroughFile(t *testing.T) {
	jobs, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, jobs))

	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	src := CSVSource{Path: path}
	reloaded, err := src.LoadJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, jobs, reloaded)
	assert.Equal(t, "csv:"+path, src.Name())
}

func TestGenerateDescription(t *testing.T) {
	desc := GenerateDescription(JobRecord{
		Skills:         "python, sql",
		Experience:     "0 - 1 yrs",
		RoleCategory:   "Analytics",
		FunctionalArea: "Data",
	})
	assert.Equal(t,
		"This role falls under Data with a focus on Analytics. The candidate should have skills in python, sql."+
			" Freshers may also apply for this position."+genericRequirements,
		desc)

	desc = GenerateDescription(JobRecord{Experience: "3 - 6 yrs"})
	assert.NotContains(t, desc, "Freshers")
}

func TestFingerprint(t *testing.T) {
	a := []JobRecord{{ID: "1", Title: "Dev", Skills: "go"}}
	b := []JobRecord{{ID: "1", Title: "Dev", Skills: "go", Description: "ignored"}}
	c := []JobRecord{{ID: "1", Title: "Dev", Skills: "rust"}}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
	assert.Len(t, Fingerprint(nil), 16)
}

func TestValidateJob(t *testing.T) {
	assert.NoError(t, ValidateJob(JobRecord{ID: "1", Title: "Dev"}))
	assert.NoError(t, ValidateJob(JobRecord{ID: "1", Skills: "go"}))

	err := ValidateJob(JobRecord{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "job_id")
	assert.Contains(t, verr.Fields, "title")
	assert.Equal(t, "job_id:job id is required; title:title or key skills is required", err.Error())
}

// memStore mirrors the jobs table: rows keyed by id with a position column,
// read back ordered by (position, id).
type memStore struct {
	rows map[string]storedJob
	jobs []JobRecord
	err  error
}

type storedJob struct {
	job      JobRecord
	position int
}

func (m *memStore) ReplaceJobs(_ context.Context, jobs []JobRecord) error {
	if m.err != nil {
		return m.err
	}
	keep := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		keep[j.ID] = struct{}{}
	}
	if m.rows == nil {
		m.rows = make(map[string]storedJob)
	}
	for id := range m.rows {
		if _, ok := keep[id]; !ok {
			delete(m.rows, id)
		}
	}
	for i, j := range jobs {
		m.rows[j.ID] = storedJob{job: j, position: i}
	}
	m.jobs = m.load()
	return nil
}

func (m *memStore) load() []JobRecord {
	stored := make([]storedJob, 0, len(m.rows))
	for _, r := range m.rows {
		stored = append(stored, r)
	}
	sort.Slice(stored, func(i, j int) bool {
		if stored[i].position != stored[j].position {
			return stored[i].position < stored[j].position
		}
		return stored[i].job.ID < stored[j].job.ID
	})
	out := make([]JobRecord, len(stored))
	for i, r := range stored {
		out[i] = r.job
	}
	return out
}

type memProducer struct {
	events []kafka.Event
	err    error
}

func (m *memProducer) Publish(_ context.Context, event kafka.Event) error {
	m.events = append(m.events, event)
	return m.err
}

func TestPublisherImport(t *testing.T) {
	store := &memStore{}
	producer := &memProducer{}
	pub := NewPublisher(store, producer)

	jobs := []JobRecord{
		{ID: "1", Title: "Dev", Skills: "go"},
		{ID: "2"},
		{ID: "3", Title: "Analyst"},
	}
	res, err := pub.Import(context.Background(), "test", jobs)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, store.jobs, 2)
	assert.Equal(t, "3", store.jobs[1].ID)

	require.Len(t, producer.events, 1)
	event, ok := producer.events[0].Value.(UpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, res.Version, event.Version)
	assert.Equal(t, 2, event.Jobs)
}

func TestPublisherImportReplacesCorpus(t *testing.T) {
	store := &memStore{}
	pub := NewPublisher(store, nil)

	_, err := pub.Import(context.Background(), "a", []JobRecord{
		{ID: "1", Title: "Dev"},
		{ID: "2", Title: "Analyst"},
		{ID: "3", Title: "Tester"},
	})
	require.NoError(t, err)

	second := []JobRecord{
		{ID: "3", Title: "Tester"},
		{ID: "4", Title: "Designer"},
	}
	res, err := pub.Import(context.Background(), "b", second)
	require.NoError(t, err)

	stored := store.load()
	assert.Equal(t, second, stored, "jobs missing from the new import are removed")
	assert.Equal(t, Fingerprint(stored), res.Version)
}

func TestPartitionRejectsDuplicateIDs(t *testing.T) {
	valid, rejected := Partition([]JobRecord{
		{ID: "1", Title: "Dev"},
		{ID: "1", Title: "Other"},
		{ID: "2"},
	})
	require.Len(t, valid, 1)
	assert.Equal(t, "Dev", valid[0].Title)
	assert.Len(t, rejected, 2)
	assert.Contains(t, rejected, "1#2")
	assert.Contains(t, rejected, "2")
}

func TestCSVSourceDropsUnusableRows(t *testing.T) {
	csvText := "Job Id,Job Title,Key Skills\n" +
		"1,Backend Developer,go\n" +
		"2,,\n" +
		"3,,sql\n"
	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvText), 0o644))

	raw, err := LoadCSVFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 3)

	jobs, err := CSVSource{Path: path}.LoadJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "1", jobs[0].ID)
	assert.Equal(t, "3", jobs[1].ID)

	valid, _ := Partition(raw)
	assert.Equal(t, Fingerprint(valid), Fingerprint(jobs))
}

func TestPublisherImportFailures(t *testing.T) {
	pub := NewPublisher(&memStore{}, nil)
	_, err := pub.Import(context.Background(), "test", []JobRecord{{}})
	assert.Error(t, err)

	boom := errors.New("boom")
	pub = NewPublisher(&memStore{err: boom}, nil)
	_, err = pub.Import(context.Background(), "test", []JobRecord{{ID: "1", Title: "Dev"}})
	assert.ErrorIs(t, err, boom)

	producer := &memProducer{err: boom}
	pub = NewPublisher(&memStore{}, producer)
	res, err := pub.Import(context.Background(), "test", []JobRecord{{ID: "1", Title: "Dev"}})
	require.NoError(t, err, "publish failures are logged, not returned")
	assert.Equal(t, 1, res.Imported)
}
