package pipeline

import (
	"fmt"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/rostra-research/rostra/helper"
)

const (
	// DefaultModelName is the sentence transformer used by the archive,
	// producing 384-dimensional embeddings.
	DefaultModelName = "sentence-transformers/all-MiniLM-L6-v2"
	// DefaultMaxInputChars is the character budget texts are truncated to
	// before embedding.
	DefaultMaxInputChars = 2048
)

// The hugot session is an expensive process-wide resource. It is created at
// most once; concurrent first calls block on the one-time barrier, and an
// initialization failure is sticky for the process lifetime. After
// initialization the session is safe for concurrent read-only use.
var (
	sessionOnce sync.Once
	session     *hugot.Session
	sessionErr  error
)

func sharedSession() (*hugot.Session, error) {
	sessionOnce.Do(func() {
		session, sessionErr = hugot.NewGoSession()
		if sessionErr != nil {
			sessionErr = fmt.Errorf("failed to create hugot session: %w", sessionErr)
		}
	})
	return session, sessionErr
}

// Embedder maps text to fixed-dimension embedding vectors using a local
// sentence transformer model. It implements TextEmbedder.
type Embedder struct {
	run       func(texts []string) ([][]float32, error)
	dimension int
	maxChars  int
}

// NewDefaultEmbedder creates an Embedder with the default model and input
// budget.
func NewDefaultEmbedder() (*Embedder, error) {
	return NewEmbedder(DefaultModelName, DefaultMaxInputChars)
}

// NewEmbedder creates an Embedder for the given model, downloading it if
// needed. The model dimension is probed with one embedding call, so a model
// that cannot run fails here rather than mid-computation.
func NewEmbedder(modelName string, maxChars int) (*Embedder, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}

	modelPath, err := helper.PrepareModel(modelName)
	if err != nil {
		return nil, err
	}

	session, err := sharedSession()
	if err != nil {
		return nil, err
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "speech-embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	run := func(texts []string) ([][]float32, error) {
		result, err := sentencePipeline.RunPipeline(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(result.Embeddings) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d texts", len(result.Embeddings), len(texts))
		}
		return result.Embeddings, nil
	}

	probe, err := run([]string{"dimension probe"})
	if err != nil {
		return nil, err
	}

	return &Embedder{
		run:       run,
		dimension: len(probe[0]),
		maxChars:  maxChars,
	}, nil
}

// Dimension returns the fixed vector dimension of the model.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed returns the embedding of one text. Inputs longer than the character
// budget are truncated before embedding; the caller is not notified. The
// overflow is dropped, not embedded separately.
func (e *Embedder) Embed(text string) ([]float32, error) {
	embeddings, err := e.run([]string{e.truncate(text)})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch returns one embedding per input text, in input order. The
// texts are embedded in a single model batch.
func (e *Embedder) EmbedBatch(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	truncated := make([]string, len(texts))
	for i, text := range texts {
		truncated[i] = e.truncate(text)
	}

	return e.run(truncated)
}

// truncate cuts text to the character budget on a rune boundary.
func (e *Embedder) truncate(text string) string {
	if len(text) <= e.maxChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= e.maxChars {
		return text
	}
	return string(runes[:e.maxChars])
}
