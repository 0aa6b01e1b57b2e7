package pipeline

import "github.com/rostra-research/rostra/model"

// ChunkFunc is a function that splits a speech text into ordered chunks.
// Offsets in the returned chunks refer to the whitespace-normalized text.
type ChunkFunc func(text string) ([]*model.Chunk, error)

// TextEmbedder maps text to fixed-dimension embedding vectors. Both
// operations are pure functions of the text given a fixed model.
type TextEmbedder interface {
	// Embed returns the embedding of one text.
	Embed(text string) ([]float32, error)
	// EmbedBatch returns one embedding per input text, in input order.
	EmbedBatch(texts []string) ([][]float32, error)
	// Dimension returns the fixed vector dimension of the model.
	Dimension() int
}

// Pipeline combines chunking and embedding into the speech write path.
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder TextEmbedder
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder TextEmbedder) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}

// Process splits a speech text into chunks and embeds them, returning
// chunks with embeddings attached in order. Empty text yields an empty
// slice, not an error.
func (p *Pipeline) Process(text string) ([]*model.Chunk, error) {
	chunks, err := p.Chunker(text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []*model.Chunk{}, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.Embedder.EmbedBatch(texts)
	if err != nil {
		return nil, err
	}

	for i, chunk := range chunks {
		chunk.Embedding = embeddings[i]
	}

	return chunks, nil
}
