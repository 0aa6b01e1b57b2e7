package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeechesNewSpeechesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewSpeechesDBHandler", func(t *testing.T) {
		speechesDbHandler, err := NewSpeechesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewSpeechesDBHandler to not return an error")
		require.NotNil(t, speechesDbHandler, "Expected NewSpeechesDBHandler to return a non-nil instance")
		require.NotNil(t, speechesDbHandler.db, "Expected handler to have a non-nil database instance")
	})

	t.Run("Invalid call NewSpeechesDBHandler with nil database", func(t *testing.T) {
		_, err := NewSpeechesDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating SpeechesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestSpeechesInsertAndSelect(t *testing.T) {
	database := initDB(t)

	speechesDbHandler, err := NewSpeechesDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Insert speech sets generated fields", func(t *testing.T) {
		speech := insertTestSpeech(t, speechesDbHandler, "fra", 1987)

		assert.NotZero(t, speech.ID, "Expected inserted speech to have an id")
		assert.NotEmpty(t, speech.RID, "Expected inserted speech to have a RID")
		assert.Equal(t, "FRA", speech.CountryCode, "Expected country code uppercased on insert")
		assert.WithinDuration(t, speech.CreatedAt, time.Now(), 2*time.Second)
	})

	t.Run("Select speech by RID", func(t *testing.T) {
		speech := insertTestSpeech(t, speechesDbHandler, "GHA", 1992)

		retrieved, err := speechesDbHandler.SelectSpeech(speech.RID)
		require.NoError(t, err)
		assert.Equal(t, speech.ID, retrieved.ID)
		assert.Equal(t, "GHA", retrieved.CountryCode)
		assert.Equal(t, 1992, retrieved.Year)
		assert.Equal(t, "Test Delegate", retrieved.Speaker)
		assert.Equal(t, "test", retrieved.Metadata["source"], "Expected metadata roundtrip")
	})

	t.Run("Select missing speech is an error", func(t *testing.T) {
		speech := insertTestSpeech(t, speechesDbHandler, "USA", 1960)
		require.NoError(t, speechesDbHandler.DeleteSpeech(speech.RID))

		_, err := speechesDbHandler.SelectSpeech(speech.RID)
		assert.Error(t, err, "Expected error for deleted speech")
	})
}

func TestSpeechesSearch(t *testing.T) {
	database := initDB(t)

	speechesDbHandler, err := NewSpeechesDBHandler(database, true)
	require.NoError(t, err)

	speech := insertTestSpeech(t, speechesDbHandler, "NOR", 1975)

	t.Run("Search by country code", func(t *testing.T) {
		speeches, err := speechesDbHandler.SelectSpeechesBySearch("nor", 10)
		require.NoError(t, err)
		require.NotEmpty(t, speeches, "Expected the inserted speech found by code")
		found := false
		for _, s := range speeches {
			if s.ID == speech.ID {
				found = true
			}
		}
		assert.True(t, found, "Expected the inserted speech in the result")
	})

	t.Run("Search with no matches yields empty result", func(t *testing.T) {
		speeches, err := speechesDbHandler.SelectSpeechesBySearch("no-such-delegation", 10)
		require.NoError(t, err)
		assert.Empty(t, speeches)
	})
}

func TestSpeechesSelectSimilarityCandidates(t *testing.T) {
	database := initDB(t)

	speechesDbHandler, err := NewSpeechesDBHandler(database, true)
	require.NoError(t, err)
	chunksDbHandler, err := NewChunksDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	embedded1987 := insertTestSpeech(t, speechesDbHandler, "AAA", 1987)
	embedded1992 := insertTestSpeech(t, speechesDbHandler, "BBB", 1992)
	unembedded := insertTestSpeech(t, speechesDbHandler, "CCC", 1987)

	insertTestChunk(t, chunksDbHandler, embedded1987.ID, 0, "first chunk", []float32{1, 0, 0})
	insertTestChunk(t, chunksDbHandler, embedded1992.ID, 0, "first chunk", []float32{0, 1, 0})
	insertTestChunk(t, chunksDbHandler, unembedded.ID, 0, "first chunk", nil)

	t.Run("Only speeches with an embedded first chunk are candidates", func(t *testing.T) {
		candidates, err := speechesDbHandler.SelectSimilarityCandidates(nil)
		require.NoError(t, err)

		ids := map[int64]bool{}
		for _, candidate := range candidates {
			ids[candidate.SpeechID] = true
			assert.Len(t, candidate.Embedding, testEmbeddingDim, "Expected the stored embedding returned")
		}
		assert.True(t, ids[embedded1987.ID])
		assert.True(t, ids[embedded1992.ID])
		assert.False(t, ids[unembedded.ID], "Expected a speech without embedding excluded")
	})

	t.Run("Year filter narrows the candidate set", func(t *testing.T) {
		year := 1992
		candidates, err := speechesDbHandler.SelectSimilarityCandidates(&year)
		require.NoError(t, err)

		for _, candidate := range candidates {
			assert.Equal(t, 1992, candidate.Year, "Expected only candidates of the filtered year")
			assert.NotEqual(t, embedded1987.ID, candidate.SpeechID)
		}
	})

	t.Run("Candidates are ordered by year, country and id", func(t *testing.T) {
		candidates, err := speechesDbHandler.SelectSimilarityCandidates(nil)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(candidates), 2)

		for i := 1; i < len(candidates); i++ {
			previous, current := candidates[i-1], candidates[i]
			if previous.Year == current.Year && previous.CountryCode == current.CountryCode {
				assert.Less(t, previous.SpeechID, current.SpeechID, "Expected deterministic ordering")
			} else if previous.Year == current.Year {
				assert.LessOrEqual(t, previous.CountryCode, current.CountryCode)
			} else {
				assert.Less(t, previous.Year, current.Year)
			}
		}
	})
}

func TestSpeechesDelete(t *testing.T) {
	database := initDB(t)

	speechesDbHandler, err := NewSpeechesDBHandler(database, true)
	require.NoError(t, err)
	chunksDbHandler, err := NewChunksDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	t.Run("Delete cascades to chunks", func(t *testing.T) {
		speech := insertTestSpeech(t, speechesDbHandler, "DDD", 2000)
		chunk := insertTestChunk(t, chunksDbHandler, speech.ID, 0, "to be cascaded", []float32{1, 0, 0})

		err := speechesDbHandler.DeleteSpeech(speech.RID)
		require.NoError(t, err)

		_, err = chunksDbHandler.SelectChunk(chunk.ID)
		assert.Error(t, err, "Expected the chunk deleted together with its speech")
	})
}
