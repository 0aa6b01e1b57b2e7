package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rostra-research/rostra/model"
	"github.com/spf13/cobra"
)

func ingestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <directory>",
		Short: "Chunk, embed and store all speech transcripts in a directory",
		Long: `Reads every .txt file in the directory, chunks and embeds it and stores
speech and chunks in the archive. Files are named <ISO3>_<session>_<year>.txt,
the naming convention of the UN General Debate corpus, for example
FRA_42_1987.txt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, _, err := openArchive(true)
			if err != nil {
				return err
			}
			defer archive.Close()

			entries, err := os.ReadDir(args[0])
			if err != nil {
				return fmt.Errorf("failed to read directory: %w", err)
			}

			ingested := 0
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
					continue
				}

				speech, err := speechFromFilename(entry.Name())
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %v: %v\n", entry.Name(), err)
					continue
				}

				content, err := os.ReadFile(filepath.Join(args[0], entry.Name()))
				if err != nil {
					return fmt.Errorf("failed to read %v: %w", entry.Name(), err)
				}
				speech.Text = string(content)

				chunks, err := archive.ProcessAndInsertSpeech(speech)
				if err != nil {
					return fmt.Errorf("failed to ingest %v: %w", entry.Name(), err)
				}
				ingested++
				fmt.Fprintf(cmd.OutOrStdout(), "%v: %v chunks\n", entry.Name(), chunks)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ingested %v speeches\n", ingested)
			return nil
		},
	}

	return cmd
}

// speechFromFilename parses the <ISO3>_<session>_<year>.txt convention.
func speechFromFilename(name string) (*model.Speech, error) {
	base := strings.TrimSuffix(name, ".txt")
	parts := strings.Split(base, "_")
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected <country>_<session>_<year>.txt, got %v", name)
	}

	country := strings.ToUpper(parts[0])
	if len(country) != 3 {
		return nil, fmt.Errorf("country code %v is not 3 letters", parts[0])
	}
	session, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid session %v", parts[1])
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid year %v", parts[2])
	}

	return &model.Speech{
		CountryCode: country,
		CountryName: countryName(country),
		Session:     session,
		Year:        year,
	}, nil
}
