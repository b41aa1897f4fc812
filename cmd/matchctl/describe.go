package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AbaeNeupane/Placement-Assistance/internal/corpus"
)

func newDescribeCmd() *cobra.Command {
	var corpusPath, outPath string
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Fill in missing job descriptions in a corpus CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := corpus.LoadCSVFile(corpusPath)
			if err != nil {
				return err
			}
			if outPath == "" {
				return corpus.WriteCSV(cmd.OutOrStdout(), jobs)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			if err := corpus.WriteCSV(f, jobs); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d jobs to %s\n", len(jobs), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&corpusPath, "corpus", "c", "", "input jobs CSV (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output CSV, stdout when empty")
	mustRequire(cmd, "corpus")
	return cmd
}
