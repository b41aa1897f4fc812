package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/AbaeNeupane/Placement-Assistance/pkg/errors"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/postgres"
	"github.com/lib/pq"
)

// DefaultApplicationURL is used when a company has no known domain.
const DefaultApplicationURL = "https://example.com"

// Repository reads and writes the job corpus and its satellite tables
// (companies, candidate profiles, applications, recommendation history) in
// PostgreSQL. The schema is applied by postgres.Client.Migrate.
type Repository struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewRepository creates a Repository on an open connection pool.
func NewRepository(db *postgres.Client) *Repository {
	return &Repository{
		db:     db,
		logger: slog.Default().With("component", "corpus-repository"),
	}
}

// Name identifies the source in logs and events.
func (r *Repository) Name() string {
	return "postgres"
}

// LoadJobs returns every stored job in import order.
func (r *Repository) LoadJobs(ctx context.Context) ([]JobRecord, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT job_id, company_id, title, key_skills, experience,
		       role_category, functional_area, description
		FROM jobs
		ORDER BY position, job_id`)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var j JobRecord
		if err := rows.Scan(&j.ID, &j.CompanyID, &j.Title, &j.Skills, &j.Experience,
			&j.RoleCategory, &j.FunctionalArea, &j.Description); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, j.WithDerivedFields())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

// ReplaceJobs makes jobs the stored corpus in a single transaction. Rows
// whose id is not in jobs are deleted, the rest are upserted, and the slice
// order becomes the stored corpus order.
func (r *Repository) ReplaceJobs(ctx context.Context, jobs []JobRecord) error {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE job_id <> ALL($1)`, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("deleting replaced jobs: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			r.logger.Info("removed jobs missing from import", "count", n)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO jobs (job_id, company_id, title, key_skills, experience,
			                  role_category, functional_area, description, position, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			ON CONFLICT (job_id) DO UPDATE SET
				company_id = EXCLUDED.company_id,
				title = EXCLUDED.title,
				key_skills = EXCLUDED.key_skills,
				experience = EXCLUDED.experience,
				role_category = EXCLUDED.role_category,
				functional_area = EXCLUDED.functional_area,
				description = EXCLUDED.description,
				position = EXCLUDED.position,
				updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("preparing job upsert: %w", err)
		}
		defer stmt.Close()

		for i, j := range jobs {
			if _, err := stmt.ExecContext(ctx, j.ID, j.CompanyID, j.Title, j.Skills, j.Experience,
				j.RoleCategory, j.FunctionalArea, j.Description, i); err != nil {
				return fmt.Errorf("upserting job %s: %w", j.ID, err)
			}
		}
		return nil
	})
}

// ApplicationURLs maps each company id to the URL candidates apply on.
// Companies without a stored domain get DefaultApplicationURL.
func (r *Repository) ApplicationURLs(ctx context.Context, companyIDs []string) (map[string]string, error) {
	urls := make(map[string]string, len(companyIDs))
	for _, id := range companyIDs {
		urls[id] = DefaultApplicationURL
	}
	if len(companyIDs) == 0 {
		return urls, nil
	}

	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT company_id, domain FROM companies WHERE company_id = ANY($1) AND domain <> ''`,
		pq.Array(companyIDs))
	if err != nil {
		return nil, fmt.Errorf("querying company domains: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, domain string
		if err := rows.Scan(&id, &domain); err != nil {
			return nil, fmt.Errorf("scanning company domain: %w", err)
		}
		urls[id] = "https://" + domain
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating company domains: %w", err)
	}
	return urls, nil
}

// Applicants returns the stored profiles of users who applied to companyID,
// in application order. Profiles are free-form JSON objects.
func (r *Repository) Applicants(ctx context.Context, companyID string) ([]map[string]any, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT c.username, c.profile
		FROM candidates c
		JOIN (
			SELECT username, MIN(applied_at) AS first_applied
			FROM applications
			WHERE company_id = $1
			GROUP BY username
		) a ON a.username = c.username
		ORDER BY a.first_applied, c.username`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying applicants for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var profiles []map[string]any
	for rows.Next() {
		var username string
		var raw []byte
		if err := rows.Scan(&username, &raw); err != nil {
			return nil, fmt.Errorf("scanning applicant: %w", err)
		}
		profile := make(map[string]any)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &profile); err != nil {
				r.logger.Warn("skipping malformed candidate profile", "username", username, "error", err)
				continue
			}
		}
		if _, ok := profile["username"]; !ok {
			profile["username"] = username
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applicants: %w", err)
	}
	return profiles, nil
}

// SaveCandidate creates or replaces the stored profile of username.
func (r *Repository) SaveCandidate(ctx context.Context, username string, profile map[string]any) error {
	if username == "" {
		return apperrors.Invalid("username is required")
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	if _, err := r.db.DB.ExecContext(ctx, `
		INSERT INTO candidates (username, profile, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (username) DO UPDATE SET
			profile = EXCLUDED.profile,
			updated_at = NOW()`,
		username, raw); err != nil {
		return fmt.Errorf("saving candidate %s: %w", username, err)
	}
	return nil
}

// Apply records an application by username to jobID at companyID. The
// candidate must have a stored profile.
func (r *Repository) Apply(ctx context.Context, username, jobID, companyID string) error {
	res, err := r.db.DB.ExecContext(ctx, `
		INSERT INTO applications (username, company_id, job_id)
		SELECT username, $2, $3 FROM candidates WHERE username = $1`,
		username, companyID, jobID)
	if err != nil {
		return fmt.Errorf("recording application of %s to job %s: %w", username, jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("recording application of %s to job %s: %w", username, jobID, err)
	}
	if n == 0 {
		return apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "candidate %s has no profile", username)
	}
	return nil
}

// SaveRecommendations appends one delivered recommendation list to the
// user's history.
func (r *Repository) SaveRecommendations(ctx context.Context, username, corpusVersion string, recommendations any) error {
	if username == "" {
		return apperrors.Invalid("username is required")
	}
	payload, err := json.Marshal(recommendations)
	if err != nil {
		return fmt.Errorf("marshaling recommendations: %w", err)
	}
	if _, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO recommendations (username, corpus_version, payload) VALUES ($1, $2, $3)`,
		username, corpusVersion, payload); err != nil {
		return fmt.Errorf("inserting recommendations for %s: %w", username, err)
	}
	return nil
}
