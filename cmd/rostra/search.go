package main

import (
	"fmt"
	"strings"

	"github.com/rostra-research/rostra/model"
	"github.com/spf13/cobra"
)

func searchCommand() *cobra.Command {
	var country string
	var yearFrom int
	var yearTo int
	var topK int
	var expand int
	var maxDistance float64

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the speech passages nearest to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, _, err := openArchive(true)
			if err != nil {
				return err
			}
			defer archive.Close()

			query := strings.Join(args, " ")
			filter := searchFilter(country, yearFrom, yearTo, maxDistance)

			var hits []*model.SearchHit
			if expand > 0 {
				hits, err = archive.ExpandedSearch(cmd.Context(), query, topK, filter, expand)
			} else {
				hits, err = archive.Search(cmd.Context(), query, topK, filter)
			}
			if err != nil {
				return err
			}

			if len(hits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no matching passages")
				return nil
			}
			for i, hit := range hits {
				fmt.Fprintf(cmd.OutOrStdout(), "[%v] %v %v (session %v, distance %.3f)\n%v\n\n",
					i+1, hit.CountryName, hit.Year, hit.Session, hit.Distance, hit.ContextText())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "3-letter country code filter")
	cmd.Flags().IntVar(&yearFrom, "year-from", 0, "earliest year, inclusive")
	cmd.Flags().IntVar(&yearTo, "year-to", 0, "latest year, inclusive")
	cmd.Flags().IntVar(&topK, "top-k", 5, "number of passages to return")
	cmd.Flags().IntVar(&expand, "expand", 0, "attach this many neighboring chunks on each side")
	cmd.Flags().Float64Var(&maxDistance, "max-distance", 0, "drop passages farther than this cosine distance (0 = no cutoff)")

	return cmd
}

func searchFilter(country string, yearFrom int, yearTo int, maxDistance float64) *model.SearchFilter {
	filter := model.SearchFilter{
		Country:     strings.ToUpper(country),
		YearFrom:    yearFrom,
		YearTo:      yearTo,
		MaxDistance: maxDistance,
	}
	if filter.IsZero() {
		return nil
	}
	return &filter
}
