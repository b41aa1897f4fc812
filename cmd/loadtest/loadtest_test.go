package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}
	assert.Equal(t, 50*time.Millisecond, percentile(sorted, 50))
	assert.Equal(t, 99*time.Millisecond, percentile(sorted, 99))
	assert.Equal(t, 1*time.Millisecond, percentile(sorted, 0))
	assert.Equal(t, time.Duration(0), percentile(nil, 50))
}

func TestStatsReport(t *testing.T) {
	s := NewStats()
	s.Record(Result{Latency: 10 * time.Millisecond, StatusCode: 200, CacheHit: true, Count: 3})
	s.Record(Result{Latency: 30 * time.Millisecond, StatusCode: 200, Count: 0})
	s.Record(Result{Latency: 20 * time.Millisecond, StatusCode: 503})
	s.Record(Result{Err: errors.New("connection refused")})

	r := s.Report(2 * time.Second)
	assert.Equal(t, int64(4), r.Total)
	assert.Equal(t, int64(2), r.Success)
	assert.Equal(t, int64(2), r.Errors)
	assert.Equal(t, 0.5, r.CacheHitRate)
	assert.Equal(t, 0.5, r.NoMatchRate)
	assert.Equal(t, 2.0, r.RPS)
	assert.Equal(t, 10*time.Millisecond, r.Min)
	assert.Equal(t, 20*time.Millisecond, r.Avg)
	assert.Equal(t, 30*time.Millisecond, r.Max)
	assert.Equal(t, map[int]int64{200: 2, 503: 1}, r.StatusCodes)

	var out bytes.Buffer
	r.Print(&out)
	assert.Contains(t, out.String(), "Cache Hit Rate:  50.00%")
	assert.Contains(t, out.String(), "  503: 1")
}

func TestRunAgainstServer(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var p Profile
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&p)) || r.URL.Path != "/api/v1/recommendations" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"count": 1, "cache_hit": calls.Load() > 1})
	}))
	defer srv.Close()

	stats := run(context.Background(), Config{
		BaseURL:     srv.URL,
		Concurrency: 2,
		Duration:    100 * time.Millisecond,
		Profiles:    defaultProfiles[:2],
	})
	r := stats.Report(100 * time.Millisecond)
	require.Positive(t, r.Total)
	assert.Equal(t, r.Total, r.Success)
	assert.Positive(t, r.CacheHitRate)
}
