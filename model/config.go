package model

import (
	"fmt"
	"runtime"
	"time"
)

// ChunkConfig sets the size bounds of the chunker, in characters of the
// normalized text.
type ChunkConfig struct {
	Target int `json:"target" yaml:"target"`
	Min    int `json:"min" yaml:"min"`
	Max    int `json:"max" yaml:"max"`
}

// DefaultChunkConfig returns the bounds used for the speech archive.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Target: 1500,
		Min:    500,
		Max:    2500,
	}
}

// Validate checks the bound ordering Min <= Target <= Max.
func (c ChunkConfig) Validate() error {
	if c.Min <= 0 || c.Target <= 0 || c.Max <= 0 {
		return fmt.Errorf("chunk sizes must be positive, got min=%d target=%d max=%d", c.Min, c.Target, c.Max)
	}
	if c.Min > c.Target || c.Target > c.Max {
		return fmt.Errorf("chunk sizes must satisfy min <= target <= max, got min=%d target=%d max=%d", c.Min, c.Target, c.Max)
	}
	return nil
}

// SimilarityConfig parameterizes one all-pairs similarity computation.
type SimilarityConfig struct {
	// YearFilter restricts the candidate set to one session year; nil means
	// the whole archive.
	YearFilter *int `json:"year_filter,omitempty" yaml:"year_filter,omitempty"`
	// Threshold is the minimum cosine similarity an edge must reach to be
	// persisted.
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// BatchSize is the number of candidate speeches per batch; each batch is
	// paired against the entire candidate set.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// MaxWorkers bounds the number of batches processed concurrently within
	// one wave.
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`
	// Force deletes all edges touching the candidate set and recomputes from
	// scratch. Without it the run is incremental: persisted pairs are
	// skipped.
	Force bool `json:"force" yaml:"force"`
	// WorkerTimeout converts a hung batch worker into that batch's failure
	// instead of blocking the wave indefinitely.
	WorkerTimeout time.Duration `json:"worker_timeout" yaml:"worker_timeout"`
}

// DefaultSimilarityConfig returns the documented defaults: threshold 0.5,
// batches of 50, worker count min(cores, 8).
func DefaultSimilarityConfig() SimilarityConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	return SimilarityConfig{
		Threshold:     0.5,
		BatchSize:     50,
		MaxWorkers:    workers,
		WorkerTimeout: 5 * time.Minute,
	}
}

// Validate rejects unusable parameters before any work starts.
func (c SimilarityConfig) Validate() error {
	if c.Threshold < -1 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in [-1, 1], got %f", c.Threshold)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max workers must be positive, got %d", c.MaxWorkers)
	}
	if c.WorkerTimeout <= 0 {
		return fmt.Errorf("worker timeout must be positive, got %v", c.WorkerTimeout)
	}
	return nil
}

// AnswerOptions parameterizes one answer synthesis run.
type AnswerOptions struct {
	SearchCount   int          `json:"search_count" yaml:"search_count"`
	Filter        SearchFilter `json:"filter" yaml:"filter"`
	ExpandContext bool         `json:"expand_context" yaml:"expand_context"`
	ContextRadius int          `json:"context_radius" yaml:"context_radius"`
	Model         string       `json:"model" yaml:"model"`
	Temperature   float64      `json:"temperature" yaml:"temperature"`
	MaxTokens     int          `json:"max_tokens" yaml:"max_tokens"`
}

// DefaultAnswerOptions returns the defaults used by the CLI and the facade.
func DefaultAnswerOptions() AnswerOptions {
	return AnswerOptions{
		SearchCount:   5,
		ExpandContext: true,
		ContextRadius: 1,
		Model:         "claude-sonnet-4-5",
		Temperature:   0.3,
		MaxTokens:     1024,
	}
}
