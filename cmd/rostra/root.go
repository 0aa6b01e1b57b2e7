package main

import (
	"github.com/rostra-research/rostra"
	"github.com/rostra-research/rostra/core/pipeline"
	"github.com/rostra-research/rostra/helper"
	"github.com/spf13/cobra"
)

var configPath string

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rostra",
		Short:        "Rostra is a semantic search and similarity engine for an archive of UN General Assembly speeches",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	cmd.AddCommand(ingestCommand())
	cmd.AddCommand(similarityCommand())
	cmd.AddCommand(searchCommand())
	cmd.AddCommand(askCommand())
	cmd.AddCommand(compareCommand())

	return cmd
}

// openArchive connects to the archive database. With withPipeline set the
// embedding model is loaded too, which the ingest, search, ask and compare
// commands need and the similarity command does not.
func openArchive(withPipeline bool) (*rostra.Rostra, fileConfig, error) {
	config, err := loadFileConfig(configPath)
	if err != nil {
		return nil, config, err
	}

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, config, err
	}

	archive, err := rostra.NewRostra(dbConfig, config.EmbeddingDim)
	if err != nil {
		return nil, config, err
	}

	if withPipeline {
		chunker := pipeline.SizeChunker(config.Chunking)
		embedder, err := pipeline.NewEmbedder(config.EmbeddingModel, config.MaxInputChars)
		if err != nil {
			archive.Close()
			return nil, config, err
		}
		err = archive.SetPipeline(pipeline.NewPipeline(chunker, embedder))
		if err != nil {
			archive.Close()
			return nil, config, err
		}
	}

	return archive, config, nil
}
