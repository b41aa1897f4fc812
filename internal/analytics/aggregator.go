package analytics

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AbaeNeupane/Placement-Assistance/pkg/kafka"
)

const (
	latencyWindow = 10000
	topLimit      = 10
	// maxTrackedTerms bounds each count map. Free-text titles are unbounded,
	// so when a map is full the least frequent half is dropped.
	maxTrackedTerms = 5000
)

// AggregatedStats summarises the events seen since start.
type AggregatedStats struct {
	TotalRecommendations int64       `json:"total_recommendations"`
	TotalRankings        int64       `json:"total_rankings"`
	NoMatchCount         int64       `json:"no_match_count"`
	NoMatchRate          float64     `json:"no_match_rate"`
	CacheHits            int64       `json:"cache_hits"`
	CacheMisses          int64       `json:"cache_misses"`
	CacheHitRate         float64     `json:"cache_hit_rate"`
	CandidatesScored     int64       `json:"candidates_scored"`
	AvgLatencyMs         float64     `json:"avg_latency_ms"`
	P50LatencyMs         int64       `json:"p50_latency_ms"`
	P95LatencyMs         int64       `json:"p95_latency_ms"`
	P99LatencyMs         int64       `json:"p99_latency_ms"`
	TopTitles            []TermCount `json:"top_titles"`
	NoMatchTitles        []TermCount `json:"no_match_titles"`
	TopJobs              []TermCount `json:"top_jobs"`
	RequestsPerMinute    float64     `json:"requests_per_minute"`
	Since                time.Time   `json:"since"`
}

// TermCount is one entry of a top-N list.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Aggregator folds MatchEvents into AggregatedStats. Latency percentiles
// cover the most recent events only.
type Aggregator struct {
	mu                   sync.RWMutex
	totalRecommendations int64
	totalRankings        int64
	noMatch              int64
	cacheHits            int64
	cacheMisses          int64
	candidatesScored     int64
	latencies            []int64
	next                 int
	titleCounts          map[string]int64
	noMatchTitles        map[string]int64
	jobCounts            map[string]int64
	termCap              int
	startTime            time.Time
	now                  func() time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:     make([]int64, 0, latencyWindow),
		titleCounts:   make(map[string]int64),
		noMatchTitles: make(map[string]int64),
		jobCounts:     make(map[string]int64),
		termCap:       maxTrackedTerms,
		startTime:     time.Now().UTC(),
		now:           time.Now,
		logger:        slog.Default().With("component", "analytics-aggregator"),
	}
}

// Start consumes events until ctx is cancelled. consumer must have been
// created with HandleEvent for this aggregator.
func (a *Aggregator) Start(ctx context.Context, consumer *kafka.Consumer) error {
	a.logger.Info("analytics aggregator starting")
	return consumer.Start(ctx)
}

// HandleEvent returns the Kafka handler feeding agg. Undecodable messages
// are logged and acknowledged.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[MatchEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "key", string(key), "error", err)
			return nil
		}
		agg.Track(event)
		return nil
	}
}

// Track records one event. It satisfies Tracker, so the recommender can
// keep local statistics without a round trip through Kafka.
func (a *Aggregator) Track(event MatchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch event.Type {
	case EventRecommendation:
		a.totalRecommendations++
		if event.CacheHit {
			a.cacheHits++
		} else {
			a.cacheMisses++
		}
		title := normalizeTitle(event.QueryTitle)
		if title != "" {
			a.bump(a.titleCounts, title)
		}
		if event.Results == 0 {
			a.noMatch++
			if title != "" {
				a.bump(a.noMatchTitles, title)
			}
		}
		for _, id := range event.JobIDs {
			a.bump(a.jobCounts, id)
		}
	case EventRanking:
		a.totalRankings++
		a.candidatesScored += int64(event.CandidatesScored)
	default:
		a.logger.Debug("ignoring unknown analytics event", "type", event.Type)
		return
	}

	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalRecommendations: a.totalRecommendations,
		TotalRankings:        a.totalRankings,
		NoMatchCount:         a.noMatch,
		CacheHits:            a.cacheHits,
		CacheMisses:          a.cacheMisses,
		CandidatesScored:     a.candidatesScored,
		Since:                a.startTime,
	}
	if a.totalRecommendations > 0 {
		stats.NoMatchRate = float64(a.noMatch) / float64(a.totalRecommendations)
	}
	if lookups := a.cacheHits + a.cacheMisses; lookups > 0 {
		stats.CacheHitRate = float64(a.cacheHits) / float64(lookups)
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopTitles = topN(a.titleCounts, topLimit)
	stats.NoMatchTitles = topN(a.noMatchTitles, topLimit)
	stats.TopJobs = topN(a.jobCounts, topLimit)
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.RequestsPerMinute = float64(a.totalRecommendations+a.totalRankings) / elapsed
	}
	return stats
}

// bump increments term, pruning counts to the most frequent half of termCap
// first when term is new and the map is full. Callers hold a.mu.
func (a *Aggregator) bump(counts map[string]int64, term string) {
	if _, ok := counts[term]; !ok && len(counts) >= a.termCap {
		keep := topN(counts, a.termCap/2)
		clear(counts)
		for _, tc := range keep {
			counts[tc.Term] = tc.Count
		}
	}
	counts[term]++
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count, then term, so equal counts list deterministically.
func topN(counts map[string]int64, n int) []TermCount {
	result := make([]TermCount, 0, len(counts))
	for term, count := range counts {
		result = append(result, TermCount{Term: term, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Term < result[j].Term
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
