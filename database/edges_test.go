package database

import (
	"testing"

	"github.com/rostra-research/rostra/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edgeTestHandlers(t *testing.T) (*SpeechesDBHandler, *EdgesDBHandler) {
	t.Helper()
	database := initDB(t)

	speechesDbHandler, err := NewSpeechesDBHandler(database, true)
	require.NoError(t, err)
	edgesDbHandler, err := NewEdgesDBHandler(database, true)
	require.NoError(t, err)

	return speechesDbHandler, edgesDbHandler
}

func TestEdgesNewEdgesDBHandler(t *testing.T) {
	database := initDB(t)

	_, err := NewSpeechesDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Valid call NewEdgesDBHandler", func(t *testing.T) {
		edgesDbHandler, err := NewEdgesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewEdgesDBHandler to not return an error")
		require.NotNil(t, edgesDbHandler)
	})

	t.Run("Invalid call NewEdgesDBHandler with nil database", func(t *testing.T) {
		_, err := NewEdgesDBHandler(nil, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestEdgesInsert(t *testing.T) {
	speechesDbHandler, edgesDbHandler := edgeTestHandlers(t)

	speechA := insertTestSpeech(t, speechesDbHandler, "AAA", 1987)
	speechB := insertTestSpeech(t, speechesDbHandler, "BBB", 1987)

	t.Run("Insert edge in canonical order", func(t *testing.T) {
		edge, err := model.NewSimilarityEdge(speechA.ID, speechB.ID, 0.8)
		require.NoError(t, err)

		err = edgesDbHandler.InsertEdge(edge)
		require.NoError(t, err)
		assert.False(t, edge.CreatedAt.IsZero(), "Expected CreatedAt set on insert")
	})

	t.Run("Insert is an idempotent upsert", func(t *testing.T) {
		edge, err := model.NewSimilarityEdge(speechA.ID, speechB.ID, 0.9)
		require.NoError(t, err)

		err = edgesDbHandler.InsertEdge(edge)
		require.NoError(t, err)

		stored, err := edgesDbHandler.SelectEdge(speechA.ID, speechB.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, 0.9, stored.Similarity, "Expected the similarity overwritten")
	})

	t.Run("Non-canonical order is rejected by the database", func(t *testing.T) {
		edge := &model.SimilarityEdge{Speech1ID: speechB.ID, Speech2ID: speechA.ID, Similarity: 0.5}

		err := edgesDbHandler.InsertEdge(edge)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "canonical order")
	})
}

func TestEdgesSelect(t *testing.T) {
	speechesDbHandler, edgesDbHandler := edgeTestHandlers(t)

	speechA := insertTestSpeech(t, speechesDbHandler, "AAA", 1987)
	speechB := insertTestSpeech(t, speechesDbHandler, "BBB", 1987)
	speechC := insertTestSpeech(t, speechesDbHandler, "CCC", 1992)

	edgeAB, err := model.NewSimilarityEdge(speechA.ID, speechB.ID, 0.9)
	require.NoError(t, err)
	edgeAC, err := model.NewSimilarityEdge(speechA.ID, speechC.ID, 0.6)
	require.NoError(t, err)
	require.NoError(t, edgesDbHandler.InsertEdges([]*model.SimilarityEdge{edgeAB, edgeAC}))

	t.Run("Select edge works with either argument order", func(t *testing.T) {
		edge, err := edgesDbHandler.SelectEdge(speechB.ID, speechA.ID)
		require.NoError(t, err)
		require.NotNil(t, edge)
		assert.Equal(t, 0.9, edge.Similarity)
	})

	t.Run("Select missing edge returns nil without error", func(t *testing.T) {
		edge, err := edgesDbHandler.SelectEdge(speechB.ID, speechC.ID)
		require.NoError(t, err)
		assert.Nil(t, edge)
	})

	t.Run("Select edge pairs bulk-loads the pair set", func(t *testing.T) {
		pairs, err := edgesDbHandler.SelectEdgePairs([]int64{speechA.ID, speechB.ID, speechC.ID})
		require.NoError(t, err)

		assert.Contains(t, pairs, model.NewPairKey(speechA.ID, speechB.ID))
		assert.Contains(t, pairs, model.NewPairKey(speechA.ID, speechC.ID))
		assert.NotContains(t, pairs, model.NewPairKey(speechB.ID, speechC.ID))
	})

	t.Run("Top edges are strongest first", func(t *testing.T) {
		edges, err := edgesDbHandler.SelectTopEdges(10)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(edges), 2)
		for i := 1; i < len(edges); i++ {
			assert.GreaterOrEqual(t, edges[i-1].Similarity, edges[i].Similarity)
		}
	})

	t.Run("Edges for one speech cover both endpoints", func(t *testing.T) {
		edges, err := edgesDbHandler.SelectEdgesForSpeech(speechA.ID, 10)
		require.NoError(t, err)
		assert.Len(t, edges, 2, "Expected both edges touching the speech")

		edges, err = edgesDbHandler.SelectEdgesForSpeech(speechC.ID, 10)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, 0.6, edges[0].Similarity)
	})
}

func TestEdgesInsertEdgesTransaction(t *testing.T) {
	speechesDbHandler, edgesDbHandler := edgeTestHandlers(t)

	speechA := insertTestSpeech(t, speechesDbHandler, "AAA", 1987)
	speechB := insertTestSpeech(t, speechesDbHandler, "BBB", 1987)
	speechC := insertTestSpeech(t, speechesDbHandler, "CCC", 1992)

	t.Run("Empty set is a no-op", func(t *testing.T) {
		assert.NoError(t, edgesDbHandler.InsertEdges(nil))
	})

	t.Run("A failing edge rolls back the whole set", func(t *testing.T) {
		good, err := model.NewSimilarityEdge(speechA.ID, speechB.ID, 0.7)
		require.NoError(t, err)
		bad := &model.SimilarityEdge{Speech1ID: speechC.ID, Speech2ID: speechC.ID, Similarity: 0.5}

		err = edgesDbHandler.InsertEdges([]*model.SimilarityEdge{good, bad})
		require.Error(t, err, "Expected the malformed edge to fail the transaction")

		stored, err := edgesDbHandler.SelectEdge(speechA.ID, speechB.ID)
		require.NoError(t, err)
		assert.Nil(t, stored, "Expected the valid edge rolled back with the failing one")
	})
}

func TestEdgesDelete(t *testing.T) {
	speechesDbHandler, edgesDbHandler := edgeTestHandlers(t)

	speechA := insertTestSpeech(t, speechesDbHandler, "AAA", 1987)
	speechB := insertTestSpeech(t, speechesDbHandler, "BBB", 1987)
	speechC := insertTestSpeech(t, speechesDbHandler, "CCC", 1992)
	speechD := insertTestSpeech(t, speechesDbHandler, "DDD", 1992)

	edgeAB, err := model.NewSimilarityEdge(speechA.ID, speechB.ID, 0.9)
	require.NoError(t, err)
	edgeCD, err := model.NewSimilarityEdge(speechC.ID, speechD.ID, 0.8)
	require.NoError(t, err)
	require.NoError(t, edgesDbHandler.InsertEdges([]*model.SimilarityEdge{edgeAB, edgeCD}))

	t.Run("Delete edges touching removes only matching edges", func(t *testing.T) {
		count, err := edgesDbHandler.DeleteEdgesTouching([]int64{speechA.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		remaining, err := edgesDbHandler.SelectEdge(speechC.ID, speechD.ID)
		require.NoError(t, err)
		assert.NotNil(t, remaining, "Expected the untouched edge to remain")
	})

	t.Run("Deleting a speech cascades to its edges", func(t *testing.T) {
		require.NoError(t, speechesDbHandler.DeleteSpeech(speechC.RID))

		edge, err := edgesDbHandler.SelectEdge(speechC.ID, speechD.ID)
		require.NoError(t, err)
		assert.Nil(t, edge, "Expected the edge removed with its speech")
	})
}
