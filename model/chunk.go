package model

import (
	"time"
)

// Chunk represents a bounded, sentence-aligned segment of one speech.
// Offsets refer to the whitespace-normalized speech text; the chunks of a
// speech tile that text with no gaps or overlaps.
type Chunk struct {
	ID         int64     `json:"id"`
	SpeechID   int64     `json:"speech_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	CharStart  int       `json:"char_start"`
	CharEnd    int       `json:"char_end"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	// Results (populated by similarity queries only)
	Distance float64 `json:"distance,omitempty"`
}
