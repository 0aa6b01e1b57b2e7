package main

import (
	"fmt"
	"strings"

	"github.com/rostra-research/rostra/core/answer"
	"github.com/rostra-research/rostra/model"
	"github.com/spf13/cobra"
)

func askCommand() *cobra.Command {
	var country string
	var yearFrom int
	var yearTo int
	var topK int
	var expand bool
	var maxDistance float64

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the archive with source attribution",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, config, err := openArchive(true)
			if err != nil {
				return err
			}
			defer archive.Close()

			err = archive.UseGenerator(answer.NewAnthropicGenerator())
			if err != nil {
				return err
			}

			options := askOptions(config, country, yearFrom, yearTo, maxDistance, topK, expand)
			result, err := archive.Ask(cmd.Context(), strings.Join(args, " "), options)
			if err != nil {
				return err
			}

			printAnswer(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "3-letter country code filter")
	cmd.Flags().IntVar(&yearFrom, "year-from", 0, "earliest year, inclusive")
	cmd.Flags().IntVar(&yearTo, "year-to", 0, "latest year, inclusive")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of passages to retrieve")
	cmd.Flags().BoolVar(&expand, "expand", true, "include neighboring chunks as context")
	cmd.Flags().Float64Var(&maxDistance, "max-distance", 0, "drop passages farther than this cosine distance (0 = no cutoff)")

	return cmd
}

func askOptions(config fileConfig, country string, yearFrom int, yearTo int, maxDistance float64, topK int, expand bool) model.AnswerOptions {
	options := config.Answer
	if filter := searchFilter(country, yearFrom, yearTo, maxDistance); filter != nil {
		options.Filter = *filter
	}
	if topK > 0 {
		options.SearchCount = topK
	}
	options.ExpandContext = expand
	return options
}

func printAnswer(cmd *cobra.Command, result *model.Answer) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Text)
	if len(result.Sources) == 0 {
		return
	}
	fmt.Fprintln(out, "\nSources:")
	for _, source := range result.Sources {
		speaker := ""
		if source.Speaker != "" {
			speaker = ", " + source.Speaker
		}
		fmt.Fprintf(out, "[%v] %v %v (session %v%v, distance %.3f): %v\n",
			source.Index, source.Country, source.Year, source.Session, speaker, source.Distance, source.Preview)
	}
	fmt.Fprintf(out, "\n%v, %v input / %v output tokens\n",
		result.Meta.Model, result.Meta.Usage.InputTokens, result.Meta.Usage.OutputTokens)
}
