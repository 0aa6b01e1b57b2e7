package model

import (
	"fmt"
	"time"
)

// SimilarityEdge is a persisted, thresholded pairwise similarity between two
// speeches. Canonical ordering Speech1ID < Speech2ID is enforced both here
// and by a database check constraint; there are no self edges and no
// duplicate directions.
type SimilarityEdge struct {
	Speech1ID  int64     `json:"speech1_id"`
	Speech2ID  int64     `json:"speech2_id"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSimilarityEdge builds an edge in canonical order regardless of the
// order the ids are passed in. Self pairs are rejected.
func NewSimilarityEdge(a, b int64, similarity float64) (*SimilarityEdge, error) {
	if a == b {
		return nil, fmt.Errorf("self edge for speech %d", a)
	}
	if a > b {
		a, b = b, a
	}
	return &SimilarityEdge{
		Speech1ID:  a,
		Speech2ID:  b,
		Similarity: similarity,
	}, nil
}

// PairKey returns the canonical key identifying the unordered pair.
func (e *SimilarityEdge) PairKey() PairKey {
	return PairKey{Speech1ID: e.Speech1ID, Speech2ID: e.Speech2ID}
}

// PairKey identifies an unordered speech pair in canonical order. Used as a
// map key when existing edges are loaded in bulk before a computation run.
type PairKey struct {
	Speech1ID int64
	Speech2ID int64
}

// NewPairKey canonicalizes the pair so that Speech1ID < Speech2ID.
func NewPairKey(a, b int64) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Speech1ID: a, Speech2ID: b}
}
