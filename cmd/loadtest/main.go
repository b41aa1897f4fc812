// Command loadtest drives POST /api/v1/recommendations with a rotating set
// of candidate profiles and prints throughput, cache hit rate and latency
// percentiles.
//
// Usage:
//
//	go run ./cmd/loadtest [-url http://localhost:8080] [-concurrency 10] [-duration 30s]
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// Profile is one recommendation request body.
type Profile struct {
	Skills string  `json:"skills"`
	Title  string  `json:"title"`
	Years  float64 `json:"years"`
}

var defaultProfiles = []Profile{
	{Skills: "python, flask, postgresql", Title: "backend developer", Years: 3},
	{Skills: "java, spring boot, microservices", Title: "java developer", Years: 5},
	{Skills: "sql, excel, tableau", Title: "data analyst", Years: 2},
	{Skills: "javascript, react, css", Title: "frontend developer", Years: 1},
	{Skills: "docker, kubernetes, aws", Title: "devops engineer", Years: 6},
	{Skills: "go, kafka, redis", Title: "software engineer", Years: 4},
	{Skills: "selenium, test automation", Title: "qa engineer", Years: 0},
	{Skills: "python, tensorflow, machine learning", Title: "ml engineer", Years: 3},
	{Skills: "requirement gathering, sql", Title: "business analyst", Years: 7},
	{Skills: "cobol, mainframe", Title: "mainframe developer", Years: 15},
}

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Profiles    []Profile
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the recommender service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	flag.Parse()

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Profiles:    defaultProfiles,
	}

	fmt.Println("=== Recommender Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Profiles:    %d unique\n", len(cfg.Profiles))
	fmt.Println()

	start := time.Now()
	stats := run(context.Background(), cfg)
	report := stats.Report(time.Since(start))
	report.Print(os.Stdout)

	if report.Total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func run(parent context.Context, cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	bodies := make([][]byte, len(cfg.Profiles))
	for i, p := range cfg.Profiles {
		bodies[i], _ = json.Marshal(p)
	}
	target := cfg.BaseURL + "/api/v1/recommendations"

	ctx, cancel := context.WithTimeout(parent, cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(next int) {
			defer wg.Done()
			for ctx.Err() == nil {
				body := bodies[next%len(bodies)]
				next++
				result := recommend(ctx, client, target, body)
				if ctx.Err() != nil && result.Err != nil {
					return
				}
				stats.Record(result)
			}
		}(w)
	}
	wg.Wait()
	return stats
}

func recommend(ctx context.Context, client *http.Client, target string, body []byte) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return Result{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Result{Latency: time.Since(start), Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Count    int  `json:"count"`
		CacheHit bool `json:"cache_hit"`
	}
	if resp.StatusCode == http.StatusOK {
		_ = json.NewDecoder(resp.Body).Decode(&payload)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return Result{
		Latency:    time.Since(start),
		StatusCode: resp.StatusCode,
		CacheHit:   payload.CacheHit,
		Count:      payload.Count,
	}
}
