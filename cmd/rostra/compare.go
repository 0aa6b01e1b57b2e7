package main

import (
	"fmt"
	"strings"

	"github.com/rostra-research/rostra/core/answer"
	"github.com/spf13/cobra"
)

func compareCommand() *cobra.Command {
	var countries []string
	var topK int

	cmd := &cobra.Command{
		Use:     "compare <topic>",
		Short:   "Answer the same topic per country and show the perspectives side by side",
		Example: `  rostra compare "nuclear disarmament" --countries USA,RUS,FRA`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(countries) < 2 {
				return fmt.Errorf("at least two --countries are required")
			}

			archive, config, err := openArchive(true)
			if err != nil {
				return err
			}
			defer archive.Close()

			err = archive.UseGenerator(answer.NewAnthropicGenerator())
			if err != nil {
				return err
			}

			options := config.Answer
			if topK > 0 {
				options.SearchCount = topK
			}

			comparison, err := archive.ComparePerspectives(cmd.Context(), strings.Join(args, " "), countries, options)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Topic: %v\n", comparison.Topic)
			if len(comparison.Years) > 0 {
				fmt.Fprintf(out, "Years represented: %v\n", comparison.Years)
			}
			for _, perspective := range comparison.Perspectives {
				fmt.Fprintf(out, "\n=== %v ===\n", perspective.Entity)
				printAnswer(cmd, perspective.Answer)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&countries, "countries", nil, "3-letter country codes to compare")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of passages to retrieve per country")

	return cmd
}
