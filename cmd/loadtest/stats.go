package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"
)

// Stats accumulates request outcomes across workers.
type Stats struct {
	mu          sync.Mutex
	total       int64
	success     int64
	errors      int64
	cacheHits   int64
	noMatch     int64
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

// Result is the outcome of one request. StatusCode is 0 when the request
// never got a response.
type Result struct {
	Latency    time.Duration
	StatusCode int
	CacheHit   bool
	Count      int
	Err        error
}

func (s *Stats) Record(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if r.Err != nil {
		s.errors++
		return
	}
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		s.success++
		if r.CacheHit {
			s.cacheHits++
		}
		if r.Count == 0 {
			s.noMatch++
		}
	} else {
		s.errors++
	}
	s.latencies = append(s.latencies, r.Latency)
	s.statusCodes[r.StatusCode]++
}

// Report is the summary printed at the end of a run.
type Report struct {
	Total        int64
	Success      int64
	Errors       int64
	CacheHitRate float64
	NoMatchRate  float64
	RPS          float64
	Min, Avg     time.Duration
	P50, P90     time.Duration
	P95, P99     time.Duration
	Max, StdDev  time.Duration
	StatusCodes  map[int]int64
}

func (s *Stats) Report(elapsed time.Duration) Report {
	s.mu.Lock()
	latencies := append([]time.Duration(nil), s.latencies...)
	r := Report{
		Total:       s.total,
		Success:     s.success,
		Errors:      s.errors,
		StatusCodes: make(map[int]int64, len(s.statusCodes)),
	}
	for code, n := range s.statusCodes {
		r.StatusCodes[code] = n
	}
	if s.success > 0 {
		r.CacheHitRate = float64(s.cacheHits) / float64(s.success)
		r.NoMatchRate = float64(s.noMatch) / float64(s.success)
	}
	s.mu.Unlock()

	if elapsed > 0 {
		r.RPS = float64(r.Total) / elapsed.Seconds()
	}
	if len(latencies) == 0 {
		return r
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	r.Avg = sum / time.Duration(len(latencies))
	r.Min = latencies[0]
	r.Max = latencies[len(latencies)-1]
	r.P50 = percentile(latencies, 50)
	r.P90 = percentile(latencies, 90)
	r.P95 = percentile(latencies, 95)
	r.P99 = percentile(latencies, 99)

	var sumSquared float64
	for _, l := range latencies {
		diff := float64(l - r.Avg)
		sumSquared += diff * diff
	}
	r.StdDev = time.Duration(math.Sqrt(sumSquared / float64(len(latencies))))
	return r
}

func (r Report) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", r.Total)
	fmt.Fprintf(w, "Successful:      %d\n", r.Success)
	fmt.Fprintf(w, "Errors:          %d\n", r.Errors)
	if r.Total > 0 {
		fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(r.Errors)/float64(r.Total)*100)
		fmt.Fprintf(w, "Requests/sec:    %.2f\n", r.RPS)
	}
	fmt.Fprintf(w, "Cache Hit Rate:  %.2f%%\n", r.CacheHitRate*100)
	fmt.Fprintf(w, "No-Match Rate:   %.2f%%\n", r.NoMatchRate*100)

	if r.Max > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", r.Min)
		fmt.Fprintf(w, "Avg:    %s\n", r.Avg)
		fmt.Fprintf(w, "P50:    %s\n", r.P50)
		fmt.Fprintf(w, "P90:    %s\n", r.P90)
		fmt.Fprintf(w, "P95:    %s\n", r.P95)
		fmt.Fprintf(w, "P99:    %s\n", r.P99)
		fmt.Fprintf(w, "Max:    %s\n", r.Max)
		fmt.Fprintf(w, "StdDev: %s\n", r.StdDev)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Status Codes ===")
	codes := make([]int, 0, len(r.StatusCodes))
	for code := range r.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, r.StatusCodes[code])
	}
}

// percentile uses the nearest-rank method on an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
