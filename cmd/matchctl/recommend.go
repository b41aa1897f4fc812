package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
	"github.com/AbaeNeupane/Placement-Assistance/internal/recommender"
)

type recommendOutput struct {
	CorpusVersion   string                       `json:"corpus_version"`
	Count           int                          `json:"count"`
	Recommendations []recommender.Recommendation `json:"recommendations"`
}

func newRecommendCmd() *cobra.Command {
	var (
		corpusPath string
		q          recommender.Query
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend up to ten jobs from a corpus CSV for one profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if q.Skills == "" && q.Title == "" {
				return fmt.Errorf("at least one of --skills or --title is required")
			}
			jobs, err := corpus.CSVSource{Path: corpusPath}.LoadJobs(cmd.Context())
			if err != nil {
				return err
			}
			model, err := recommender.Build(jobs)
			if err != nil {
				return fmt.Errorf("building model from %s: %w", corpusPath, err)
			}
			recs := model.Recommend(q)
			return writeJSON(cmd.OutOrStdout(), recommendOutput{
				CorpusVersion:   model.Version(),
				Count:           len(recs),
				Recommendations: recs,
			})
		},
	}
	cmd.Flags().StringVarP(&corpusPath, "corpus", "c", "", "path to the jobs CSV (required)")
	cmd.Flags().StringVarP(&q.Skills, "skills", "s", "", "candidate skills, comma separated")
	cmd.Flags().StringVarP(&q.Title, "title", "t", "", "candidate's current or desired title")
	cmd.Flags().Float64VarP(&q.Years, "years", "y", 0, "years of experience")
	mustRequire(cmd, "corpus")
	return cmd
}
