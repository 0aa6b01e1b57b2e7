package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSimilarityEdge(t *testing.T) {
	t.Run("Valid edge keeps canonical order", func(t *testing.T) {
		edge, err := NewSimilarityEdge(1, 2, 0.8)
		require.NoError(t, err)
		assert.Equal(t, int64(1), edge.Speech1ID, "Expected smaller id first")
		assert.Equal(t, int64(2), edge.Speech2ID, "Expected larger id second")
		assert.Equal(t, 0.8, edge.Similarity)
	})

	t.Run("Reversed ids are canonicalized", func(t *testing.T) {
		edge, err := NewSimilarityEdge(7, 3, 0.6)
		require.NoError(t, err)
		assert.Equal(t, int64(3), edge.Speech1ID, "Expected ids swapped into canonical order")
		assert.Equal(t, int64(7), edge.Speech2ID)
	})

	t.Run("Both orders produce the same edge", func(t *testing.T) {
		edgeAB, err := NewSimilarityEdge(4, 9, 0.5)
		require.NoError(t, err)
		edgeBA, err := NewSimilarityEdge(9, 4, 0.5)
		require.NoError(t, err)
		assert.Equal(t, edgeAB.PairKey(), edgeBA.PairKey(), "Expected the same pair key regardless of argument order")
	})

	t.Run("Self edge is rejected", func(t *testing.T) {
		_, err := NewSimilarityEdge(5, 5, 1.0)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "self edge")
	})
}

func TestNewPairKey(t *testing.T) {
	t.Run("Pair key is canonical", func(t *testing.T) {
		assert.Equal(t, NewPairKey(1, 2), NewPairKey(2, 1), "Expected the same key for both orders")
		assert.Equal(t, int64(1), NewPairKey(2, 1).Speech1ID)
	})

	t.Run("Distinct pairs have distinct keys", func(t *testing.T) {
		assert.NotEqual(t, NewPairKey(1, 2), NewPairKey(1, 3))
	})
}
