package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/rostra-research/rostra/core/similarity"
	"github.com/rostra-research/rostra/model"
	"github.com/spf13/cobra"
)

const defaultRounding = 100 * time.Millisecond

// similarityAbortMessage names the failed wave and batches. The failed wave
// is counted in Report.Waves because its successful batches were persisted,
// so the completed-wave count shown to the user is one less.
func similarityAbortMessage(report *similarity.Report) string {
	return fmt.Sprintf(
		"aborted in wave %v: batches %v failed, %v earlier waves completed, %v edges committed, rerun without --force to resume",
		report.Waves, report.FailedBatches, report.Waves-1, report.Edges,
	)
}

func similarityCommand() *cobra.Command {
	var year int
	var force bool
	var batchSize int
	var threshold float64
	var workers int

	cmd := &cobra.Command{
		Use:   "similarity",
		Short: "Compute pairwise speech similarity edges",
		Long: `Scores every pair of speeches with a stored embedding and persists edges
at or above the threshold. Already scored pairs are skipped, so an aborted
run can be resumed by running the command again. --force recomputes
everything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, _, err := openArchive(false)
			if err != nil {
				return err
			}
			defer archive.Close()

			config := model.DefaultSimilarityConfig()
			config.Force = force
			config.BatchSize = batchSize
			config.Threshold = threshold
			config.MaxWorkers = workers
			if year > 0 {
				config.YearFilter = &year
			}

			report, err := archive.ComputeSimilarities(cmd.Context(), config)
			if err != nil {
				if report != nil && len(report.FailedBatches) > 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), similarityAbortMessage(report))
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"%v candidates, %v pairs scored, %v edges in %v waves (%v)\n",
				report.Candidates, report.Pairs, report.Edges, report.Waves, report.Elapsed.Round(defaultRounding),
			)
			return nil
		},
	}

	defaults := model.DefaultSimilarityConfig()
	cmd.Flags().IntVar(&year, "year", 0, "only score speeches of this year")
	cmd.Flags().BoolVar(&force, "force", false, "delete existing edges and recompute everything")
	cmd.Flags().IntVar(&batchSize, "batch-size", defaults.BatchSize, "speeches per worker batch")
	cmd.Flags().Float64Var(&threshold, "threshold", defaults.Threshold, "minimum similarity to persist")
	cmd.Flags().IntVar(&workers, "workers", defaults.MaxWorkers, fmt.Sprintf("parallel workers per wave (default min(%v cores, 8))", runtime.NumCPU()))

	return cmd
}
