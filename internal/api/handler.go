// Package api serves the matching HTTP API: job recommendations for a
// candidate, candidate rankings for a job, corpus inspection and reloads,
// and result-cache administration.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AbaeNeupane/Placement-Assistance/internal/analytics"
	"github.com/AbaeNeupane/Placement-Assistance/internal/cache"
	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
	"github.com/AbaeNeupane/Placement-Assistance/internal/ranker"
	"github.com/AbaeNeupane/Placement-Assistance/internal/recommender"
	apperrors "github.com/AbaeNeupane/Placement-Assistance/pkg/errors"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/logger"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/metrics"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/middleware"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/tracing"
)

// ResultCache memoises recommendation lists. *cache.ResultCache satisfies
// it, including a nil one.
type ResultCache interface {
	GetOrCompute(ctx context.Context, corpusVersion string, q recommender.Query, compute func() (*cache.Entry, error)) (*cache.Entry, bool, error)
	Invalidate(ctx context.Context) error
	Stats(ctx context.Context) cache.Stats
}

// Store is the persistence the API uses beyond the corpus itself.
// *corpus.Repository satisfies it.
type Store interface {
	ApplicationURLs(ctx context.Context, companyIDs []string) (map[string]string, error)
	Applicants(ctx context.Context, companyID string) ([]map[string]any, error)
	SaveRecommendations(ctx context.Context, username, corpusVersion string, recommendations any) error
	SaveCandidate(ctx context.Context, username string, profile map[string]any) error
	Apply(ctx context.Context, username, jobID, companyID string) error
}

// Options wires a Handler. Engine is required; everything else is optional.
type Options struct {
	Engine        *recommender.Engine
	Cache         ResultCache
	Store         Store
	Tracker       analytics.Tracker
	Metrics       *metrics.Metrics
	DefaultTopN   int
	MaxTopN       int
	MaxCandidates int
}

type Handler struct {
	engine        *recommender.Engine
	cache         ResultCache
	store         Store
	tracker       analytics.Tracker
	metrics       *metrics.Metrics
	validate      *validator.Validate
	defaultTopN   int
	maxTopN       int
	maxCandidates int
	logger        *slog.Logger
}

func New(opts Options) *Handler {
	h := &Handler{
		engine:        opts.Engine,
		cache:         opts.Cache,
		store:         opts.Store,
		tracker:       opts.Tracker,
		metrics:       opts.Metrics,
		validate:      newValidator(),
		defaultTopN:   opts.DefaultTopN,
		maxTopN:       opts.MaxTopN,
		maxCandidates: opts.MaxCandidates,
		logger:        slog.Default().With("component", "api-handler"),
	}
	if h.cache == nil {
		h.cache = (*cache.ResultCache)(nil)
	}
	if h.tracker == nil {
		h.tracker = analytics.Multi()
	}
	if h.defaultTopN <= 0 {
		h.defaultTopN = ranker.DefaultTopN
	}
	if h.maxTopN < h.defaultTopN {
		h.maxTopN = h.defaultTopN
	}
	return h
}

// Register mounts every endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/recommendations", h.Recommend)
	mux.HandleFunc("POST /api/v1/rankings", h.Rank)
	mux.HandleFunc("GET /api/v1/companies/{id}/jobs", h.CompanyJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}/candidates", h.JobCandidates)
	mux.HandleFunc("POST /api/v1/jobs/{id}/applications", h.ApplyToJob)
	mux.HandleFunc("PUT /api/v1/candidates/{username}", h.SaveCandidate)
	mux.HandleFunc("GET /api/v1/corpus", h.CorpusInfo)
	mux.HandleFunc("POST /api/v1/corpus/reload", h.ReloadCorpus)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

type recommendResponse struct {
	Recommendations []recommender.Recommendation `json:"recommendations"`
	Count           int                          `json:"count"`
	CorpusVersion   string                       `json:"corpus_version"`
	CacheHit        bool                         `json:"cache_hit"`
}

func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req RecommendRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateStruct(h.validate, &req); err != nil {
		h.writeValidation(w, err)
		return
	}

	model := h.engine.Model()
	if model == nil {
		h.countRecommendation(metrics.OutcomeError)
		h.writeErr(w, notReady())
		return
	}

	ctx, span := tracing.StartSpan(ctx, "recommend", middleware.GetRequestID(ctx))
	defer func() {
		span.End()
		span.Log(log)
	}()
	span.SetAttr("corpus_version", model.Version())

	q := req.query()
	_, cacheSpan := tracing.StartChildSpan(ctx, "cache")
	entry, hit, err := h.cache.GetOrCompute(ctx, model.Version(), q, func() (*cache.Entry, error) {
		return &cache.Entry{CorpusVersion: model.Version(), Recommendations: model.Recommend(q)}, nil
	})
	cacheSpan.SetAttr("hit", hit)
	cacheSpan.End()
	if err != nil {
		h.countRecommendation(metrics.OutcomeError)
		log.Error("recommendation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "recommendation failed")
		return
	}

	// Cached entries are shared; enrich a copy.
	recs := make([]recommender.Recommendation, len(entry.Recommendations))
	copy(recs, entry.Recommendations)

	enrichCtx, enrichSpan := tracing.StartChildSpan(ctx, "enrich")
	h.attachApplicationURLs(enrichCtx, recs)
	enrichSpan.End()

	if req.Username != "" && h.store != nil && len(recs) > 0 {
		historyCtx, historySpan := tracing.StartChildSpan(ctx, "history")
		if err := h.store.SaveRecommendations(historyCtx, req.Username, model.Version(), recs); err != nil {
			log.Warn("failed to save recommendation history", "username", req.Username, "error", err)
		}
		historySpan.End()
	}

	latency := time.Since(start)
	outcome := metrics.OutcomeOK
	if len(recs) == 0 {
		outcome = metrics.OutcomeNoMatch
	}
	h.countRecommendation(outcome)
	if h.metrics != nil {
		status := "miss"
		if hit {
			status = "hit"
		}
		h.metrics.RecommendationLatency.WithLabelValues(status).Observe(latency.Seconds())
		h.metrics.RecommendationResults.Observe(float64(len(recs)))
	}

	event := analytics.MatchEvent{
		Type:          analytics.EventRecommendation,
		RequestID:     middleware.GetRequestID(ctx),
		Username:      req.Username,
		CorpusVersion: model.Version(),
		QueryTitle:    req.Title,
		QuerySkills:   req.Skills,
		Years:         req.Years,
		JobIDs:        make([]string, len(recs)),
		Results:       len(recs),
		CacheHit:      hit,
		LatencyMs:     latency.Milliseconds(),
		Timestamp:     time.Now().UTC(),
	}
	for i, rec := range recs {
		event.JobIDs[i] = rec.Job.ID
	}
	if len(recs) > 0 {
		event.TopScore = recs[0].FinalScore
	}
	h.tracker.Track(event)

	log.Info("recommendation completed",
		"returned", len(recs),
		"cache_hit", hit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, recommendResponse{
		Recommendations: recs,
		Count:           len(recs),
		CorpusVersion:   model.Version(),
		CacheHit:        hit,
	})
}

type rankResponse struct {
	JobID      string                   `json:"job_id,omitempty"`
	Candidates []ranker.ScoredCandidate `json:"candidates"`
	Count      int                      `json:"count"`
}

func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req RankRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateStruct(h.validate, &req); err != nil {
		h.writeValidation(w, err)
		return
	}
	if h.maxCandidates > 0 && len(req.Candidates) > h.maxCandidates {
		h.writeErr(w, apperrors.Invalid("at most %d candidates can be ranked per request", h.maxCandidates))
		return
	}

	ranked := ranker.RankFields(req.job(), req.Candidates, h.topN(req.TopN))
	h.recordRanking(ctx, "", len(req.Candidates), ranked, time.Since(start))
	h.writeJSON(w, http.StatusOK, rankResponse{Candidates: ranked, Count: len(ranked)})
}

// CompanyJobs lists the corpus jobs posted by one company.
func (h *Handler) CompanyJobs(w http.ResponseWriter, r *http.Request) {
	model := h.engine.Model()
	if model == nil {
		h.writeErr(w, notReady())
		return
	}
	companyID := r.PathValue("id")
	jobs := model.JobsByCompany(companyID)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"company_id": companyID,
		"jobs":       jobs,
		"count":      len(jobs),
	})
}

// JobCandidates ranks the users who applied to a job's company against that
// job.
func (h *Handler) JobCandidates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	topN, err := h.topNParam(r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	model := h.engine.Model()
	if model == nil {
		h.writeErr(w, notReady())
		return
	}
	jobID := r.PathValue("id")
	job, ok := model.Job(jobID)
	if !ok {
		h.writeErr(w, apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "job %s not found", jobID))
		return
	}
	if h.store == nil {
		h.writeErr(w, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "candidate store is not configured"))
		return
	}

	profiles, err := h.store.Applicants(ctx, job.CompanyID)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RankingsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		log.Error("loading applicants failed", "job_id", jobID, "company_id", job.CompanyID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load applicants")
		return
	}

	ranked := ranker.RankFields(ranker.Job{Skills: job.Skills, Title: job.Title, Experience: job.Experience}, profiles, topN)
	h.recordRanking(ctx, jobID, len(profiles), ranked, time.Since(start))
	h.writeJSON(w, http.StatusOK, rankResponse{JobID: jobID, Candidates: ranked, Count: len(ranked)})
}

const maxUsernameLength = 255

// SaveCandidate stores the profile that applicant rankings read. The body is
// a loosely shaped record, see ranker.FromFields; it must carry skills or
// some kind of title. The response is the canonical view the ranker scores.
func (h *Handler) SaveCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.PathValue("username")
	if len(username) > maxUsernameLength {
		h.writeErr(w, apperrors.Invalid("username must be at most %d characters", maxUsernameLength))
		return
	}

	var profile map[string]any
	if !h.decode(w, r, &profile) {
		return
	}
	if profile == nil {
		h.writeError(w, http.StatusBadRequest, "profile must be a JSON object")
		return
	}
	profile["username"] = username
	candidate := ranker.FromFields(profile)
	if candidate.Skills == "" && candidate.Title == "" && candidate.Headline == "" && candidate.DesiredTitle == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": map[string]string{"skills": "is required when no title is given"},
		})
		return
	}
	if h.store == nil {
		h.writeErr(w, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "candidate store is not configured"))
		return
	}

	if err := h.store.SaveCandidate(ctx, username, profile); err != nil {
		logger.FromContext(ctx).Error("saving candidate failed", "username", username, "error", err)
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, candidate)
}

type applyResponse struct {
	Username  string `json:"username"`
	JobID     string `json:"job_id"`
	CompanyID string `json:"company_id"`
}

// ApplyToJob records that a candidate applied to a job. The application is
// filed under the job's company, which is what applicant rankings read.
func (h *Handler) ApplyToJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ApplyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateStruct(h.validate, &req); err != nil {
		h.writeValidation(w, err)
		return
	}

	model := h.engine.Model()
	if model == nil {
		h.writeErr(w, notReady())
		return
	}
	jobID := r.PathValue("id")
	job, ok := model.Job(jobID)
	if !ok {
		h.writeErr(w, apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "job %s not found", jobID))
		return
	}
	if h.store == nil {
		h.writeErr(w, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "candidate store is not configured"))
		return
	}

	if err := h.store.Apply(ctx, req.Username, job.ID, job.CompanyID); err != nil {
		logger.FromContext(ctx).Warn("application failed", "username", req.Username, "job_id", jobID, "error", err)
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, applyResponse{Username: req.Username, JobID: job.ID, CompanyID: job.CompanyID})
}

type corpusInfo struct {
	Version       string    `json:"version"`
	Source        string    `json:"source"`
	Jobs          int       `json:"jobs"`
	SkillFeatures int       `json:"skill_features"`
	TitleFeatures int       `json:"title_features"`
	BuiltAt       time.Time `json:"built_at"`
}

func (h *Handler) CorpusInfo(w http.ResponseWriter, r *http.Request) {
	model := h.engine.Model()
	if model == nil {
		h.writeErr(w, notReady())
		return
	}
	h.writeJSON(w, http.StatusOK, h.describe(model))
}

// ReloadCorpus rebuilds the model from its source and drops cached results.
// The rebuild is not tied to the client connection; the engine's reload
// timeout bounds it.
func (h *Handler) ReloadCorpus(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	log := logger.FromContext(ctx)

	model, err := h.engine.Reload(ctx)
	if err != nil {
		log.Error("corpus reload failed", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "corpus reload failed")
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		log.Warn("cache invalidation after reload failed", "error", err)
	}
	h.writeJSON(w, http.StatusOK, h.describe(model))
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cache.Stats(r.Context()))
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) describe(model *recommender.Model) corpusInfo {
	skills, titles := model.VocabularySizes()
	return corpusInfo{
		Version:       model.Version(),
		Source:        h.engine.SourceName(),
		Jobs:          model.Len(),
		SkillFeatures: skills,
		TitleFeatures: titles,
		BuiltAt:       model.BuiltAt(),
	}
}

// attachApplicationURLs fills ApplicationURL on every recommendation. Lookup
// failures fall back to the default URL rather than failing the request.
func (h *Handler) attachApplicationURLs(ctx context.Context, recs []recommender.Recommendation) {
	if len(recs) == 0 {
		return
	}
	var urls map[string]string
	if h.store != nil {
		seen := make(map[string]bool, len(recs))
		ids := make([]string, 0, len(recs))
		for _, rec := range recs {
			if id := rec.Job.CompanyID; !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		var err error
		urls, err = h.store.ApplicationURLs(ctx, ids)
		if err != nil {
			logger.FromContext(ctx).Warn("application url lookup failed", "error", err)
		}
	}
	for i := range recs {
		if url, ok := urls[recs[i].Job.CompanyID]; ok && url != "" {
			recs[i].ApplicationURL = url
		} else {
			recs[i].ApplicationURL = corpus.DefaultApplicationURL
		}
	}
}

func (h *Handler) recordRanking(ctx context.Context, jobID string, scored int, ranked []ranker.ScoredCandidate, took time.Duration) {
	outcome := metrics.OutcomeOK
	if len(ranked) == 0 {
		outcome = metrics.OutcomeNoMatch
	}
	if h.metrics != nil {
		h.metrics.RankingsTotal.WithLabelValues(outcome).Inc()
		h.metrics.CandidatesScored.Add(float64(scored))
	}

	event := analytics.MatchEvent{
		Type:             analytics.EventRanking,
		RequestID:        middleware.GetRequestID(ctx),
		JobID:            jobID,
		CandidatesScored: scored,
		Results:          len(ranked),
		LatencyMs:        took.Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
	if len(ranked) > 0 {
		event.TopScore = ranked[0].FinalScore
	}
	h.tracker.Track(event)

	logger.FromContext(ctx).Info("ranking completed",
		"job_id", jobID,
		"candidates", scored,
		"returned", len(ranked),
		"latency_ms", took.Milliseconds(),
	)
}

func (h *Handler) countRecommendation(outcome string) {
	if h.metrics != nil {
		h.metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()
	}
}

// topN clamps a requested limit into [1, maxTopN]; zero means the default.
func (h *Handler) topN(requested int) int {
	if requested <= 0 {
		return h.defaultTopN
	}
	if requested > h.maxTopN {
		return h.maxTopN
	}
	return requested
}

func (h *Handler) topNParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("top_n")
	if raw == "" {
		return h.defaultTopN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.Invalid("top_n must be a positive integer")
	}
	return h.topN(n), nil
}

func notReady() error {
	return apperrors.New(apperrors.ErrCorpusNotReady, http.StatusServiceUnavailable, "job corpus is not loaded yet")
}

// decode reads a JSON body into v, writing the error response itself when it
// fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	h.writeError(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}
	h.writeError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	h.writeError(w, apperrors.HTTPStatusCode(err), apperrors.Message(err))
}
