package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumns is returned when a CSV file lacks the title or key
// skills column.
var ErrMissingColumns = errors.New("csv is missing required columns")

// Column headers of the jobs CSV. Headers are matched case-insensitively.
const (
	ColJobID          = "Job Id"
	ColCompanyID      = "Company Id"
	ColTitle          = "Job Title"
	ColSkills         = "Key Skills"
	ColExperience     = "Job Experience"
	ColRoleCategory   = "Role Category"
	ColFunctionalArea = "Functional Area"
	ColDescription    = "Job Description"
)

var csvColumns = []string{
	ColJobID, ColCompanyID, ColTitle, ColSkills, ColExperience,
	ColRoleCategory, ColFunctionalArea, ColDescription,
}

// LoadCSV reads job postings in file order. Rows without an id are given
// their 1-based row number. Derived fields are filled in on every record.
func LoadCSV(r io.Reader) ([]JobRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	index := headerIndex(header)
	if _, ok := index[key(ColTitle)]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumns, ColTitle)
	}
	if _, ok := index[key(ColSkills)]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumns, ColSkills)
	}

	var jobs []JobRecord
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", row, err)
		}
		cell := func(col string) string {
			i, ok := index[key(col)]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		job := JobRecord{
			ID:             cell(ColJobID),
			CompanyID:      cell(ColCompanyID),
			Title:          cell(ColTitle),
			Skills:         cell(ColSkills),
			Experience:     cell(ColExperience),
			RoleCategory:   cell(ColRoleCategory),
			FunctionalArea: cell(ColFunctionalArea),
			Description:    cell(ColDescription),
		}
		if job.ID == "" {
			job.ID = strconv.Itoa(row)
		}
		jobs = append(jobs, job.WithDerivedFields())
	}
	return jobs, nil
}

// LoadCSVFile opens path and reads it with LoadCSV.
func LoadCSVFile(path string) ([]JobRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file %s: %w", path, err)
	}
	defer f.Close()
	jobs, err := LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("loading corpus file %s: %w", path, err)
	}
	return jobs, nil
}

// WriteCSV writes jobs with the standard column layout.
func WriteCSV(w io.Writer, jobs []JobRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, j := range jobs {
		row := []string{
			j.ID, j.CompanyID, j.Title, j.Skills, j.Experience,
			j.RoleCategory, j.FunctionalArea, j.Description,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing job %s: %w", j.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// CSVSource loads the corpus from a file on every call.
type CSVSource struct {
	Path string
}

// LoadJobs implements the recommender's corpus source. Rows the loader
// would reject are dropped here too, so a file yields the same corpus
// whether it is served directly or imported into PostgreSQL first.
func (s CSVSource) LoadJobs(ctx context.Context) ([]JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	jobs, err := LoadCSVFile(s.Path)
	if err != nil {
		return nil, err
	}
	valid, rejected := Partition(jobs)
	if len(rejected) > 0 {
		slog.Default().With("component", "corpus-csv").Warn("skipping invalid jobs",
			"csv", s.Path,
			"skipped", len(rejected),
		)
	}
	return valid, nil
}

// Name identifies the source in logs and events.
func (s CSVSource) Name() string {
	return "csv:" + s.Path
}

// Fingerprint returns a stable content hash of the fields that influence
// matching. Two corpora with the same jobs in the same order share a
// fingerprint.
func Fingerprint(jobs []JobRecord) string {
	h := sha256.New()
	for _, j := range jobs {
		for _, field := range []string{j.ID, j.CompanyID, j.Title, j.Skills, j.Experience} {
			io.WriteString(h, field)
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[key(name)] = i
	}
	return index
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
