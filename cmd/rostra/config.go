package main

import (
	"fmt"
	"os"

	"github.com/rostra-research/rostra/core/pipeline"
	"github.com/rostra-research/rostra/model"
	"gopkg.in/yaml.v3"
)

// fileConfig holds the settings read from the optional YAML config file.
// Database connection and API key settings come from the environment, see
// helper.NewDatabaseConfiguration.
type fileConfig struct {
	// EmbeddingModel is the sentence transformer to chunk and search with.
	EmbeddingModel string `yaml:"embedding_model"`
	// EmbeddingDim is the vector dimension of the archive.
	EmbeddingDim int `yaml:"embedding_dim"`
	// MaxInputChars is the truncation budget per embedded text.
	MaxInputChars int               `yaml:"max_input_chars"`
	Chunking      model.ChunkConfig `yaml:"chunking"`
	// Answer holds generation defaults, overridable per invocation by flags.
	Answer model.AnswerOptions `yaml:"answer"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		EmbeddingModel: pipeline.DefaultModelName,
		EmbeddingDim:   384,
		MaxInputChars:  pipeline.DefaultMaxInputChars,
		Chunking:       model.DefaultChunkConfig(),
		Answer:         model.DefaultAnswerOptions(),
	}
}

// loadFileConfig reads the config file at path over the defaults. An empty
// path returns the defaults.
func loadFileConfig(path string) (fileConfig, error) {
	config := defaultFileConfig()
	if path == "" {
		return config, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	err = yaml.Unmarshal(content, &config)
	if err != nil {
		return config, fmt.Errorf("failed to parse config file %v: %w", path, err)
	}

	err = config.Chunking.Validate()
	if err != nil {
		return config, fmt.Errorf("invalid chunking config in %v: %w", path, err)
	}
	if config.EmbeddingDim <= 0 {
		return config, fmt.Errorf("invalid embedding_dim in %v: %v", path, config.EmbeddingDim)
	}
	return config, nil
}
