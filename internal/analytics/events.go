// Package analytics records what the matching service was asked and what it
// answered. Handlers emit MatchEvents through a Tracker; the Collector ships
// them to Kafka in batches and the Aggregator folds them into running
// statistics, optionally snapshotted to PostgreSQL.
package analytics

import "time"

type EventType string

const (
	EventRecommendation EventType = "recommendation"
	EventRanking        EventType = "ranking"
)

// MatchEvent describes one recommendation or ranking request.
type MatchEvent struct {
	Type          EventType `json:"type"`
	RequestID     string    `json:"request_id,omitempty"`
	Username      string    `json:"username,omitempty"`
	CorpusVersion string    `json:"corpus_version,omitempty"`

	// Recommendation fields.
	QueryTitle  string   `json:"query_title,omitempty"`
	QuerySkills string   `json:"query_skills,omitempty"`
	Years       float64  `json:"years,omitempty"`
	JobIDs      []string `json:"job_ids,omitempty"`

	// Ranking fields.
	JobID            string `json:"job_id,omitempty"`
	CandidatesScored int    `json:"candidates_scored,omitempty"`

	Results   int       `json:"results"`
	TopScore  float64   `json:"top_score"`
	CacheHit  bool      `json:"cache_hit"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Tracker accepts events without blocking the request path.
type Tracker interface {
	Track(event MatchEvent)
}

// Multi fans one event out to several trackers. Nil entries are skipped.
func Multi(trackers ...Tracker) Tracker {
	var live []Tracker
	for _, t := range trackers {
		if t != nil {
			live = append(live, t)
		}
	}
	return multi(live)
}

type multi []Tracker

func (m multi) Track(event MatchEvent) {
	for _, t := range m {
		t.Track(event)
	}
}
