package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AbaeNeupane/Placement-Assistance/internal/ranker"
)

type rankOutput struct {
	Count      int                      `json:"count"`
	Candidates []ranker.ScoredCandidate `json:"candidates"`
}

func newRankCmd() *cobra.Command {
	var (
		job            ranker.Job
		candidatesPath string
		topN           int
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank candidate profiles from a JSON file against one job",
		Long: "Reads a JSON array of candidate objects (\"-\" for stdin) and ranks them by " +
			"skill overlap, title overlap and experience fit against the job.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := readCandidates(cmd.InOrStdin(), candidatesPath)
			if err != nil {
				return err
			}
			ranked := ranker.RankFields(job, records, topN)
			return writeJSON(cmd.OutOrStdout(), rankOutput{Count: len(ranked), Candidates: ranked})
		},
	}
	cmd.Flags().StringVar(&job.Skills, "job-skills", "", "required skills, comma or pipe separated")
	cmd.Flags().StringVar(&job.Title, "job-title", "", "job title")
	cmd.Flags().StringVar(&job.Experience, "job-experience", "", `required experience, e.g. "2-4 years" or "5+ years"`)
	cmd.Flags().StringVar(&candidatesPath, "candidates", "", `candidates JSON file, "-" for stdin (required)`)
	cmd.Flags().IntVarP(&topN, "top-n", "n", ranker.DefaultTopN, "number of candidates to return")
	mustRequire(cmd, "candidates")
	return cmd
}

func readCandidates(stdin io.Reader, path string) ([]map[string]any, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening candidates file %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding candidates from %s: %w", path, err)
	}
	return records, nil
}
