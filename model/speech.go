package model

import (
	"time"

	"github.com/google/uuid"
)

// Speech represents one General Debate address: a country's statement in a
// given session and year. The full transcript only lives on the struct while
// it is being chunked and embedded, the durable text is the chunk rows.
type Speech struct {
	ID          int64     `json:"id"`
	RID         uuid.UUID `json:"rid"`
	CountryCode string    `json:"country_code"`
	CountryName string    `json:"country_name"`
	Speaker     string    `json:"speaker,omitempty"`
	Year        int       `json:"year"`
	Session     int       `json:"session"`
	Text        string    `json:"text,omitempty" db:"-"` // Temporary field for processing, not stored in DB
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SimilarityCandidate is the slim projection of a speech used by the
// similarity engine: identity, ordering columns and the embedding of the
// first chunk.
type SimilarityCandidate struct {
	SpeechID    int64
	CountryCode string
	Year        int
	Embedding   []float32
}
