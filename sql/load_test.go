package sql

import (
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertFunctionsExist(t *testing.T, db *sql.DB, functions []string) {
	t.Helper()
	for _, funcName := range functions {
		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "Function %s should exist", funcName)
	}
}

func TestInit(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pgvector extension should be created")

		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'uuid-ossp');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "uuid-ossp extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		err = Init(db.Instance)
		assert.NoError(t, err)
	})
}

func TestLoadSpeechesSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load speeches SQL functions", func(t *testing.T) {
		err := LoadSpeechesSql(db.Instance, false)
		assert.NoError(t, err)
		assertFunctionsExist(t, db.Instance, SpeechesFunctions)
	})

	t.Run("Load speeches SQL is idempotent without force", func(t *testing.T) {
		err := LoadSpeechesSql(db.Instance, false)
		assert.NoError(t, err)
	})

	t.Run("Load speeches SQL with force reloads", func(t *testing.T) {
		err := LoadSpeechesSql(db.Instance, true)
		assert.NoError(t, err)
		assertFunctionsExist(t, db.Instance, SpeechesFunctions)
	})
}

func TestLoadChunksSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load chunks SQL functions", func(t *testing.T) {
		err := LoadChunksSql(db.Instance, false)
		assert.NoError(t, err)
		assertFunctionsExist(t, db.Instance, ChunksFunctions)
	})

	t.Run("Load chunks SQL with force reloads", func(t *testing.T) {
		err := LoadChunksSql(db.Instance, true)
		assert.NoError(t, err)
		assertFunctionsExist(t, db.Instance, ChunksFunctions)
	})
}

func TestLoadEdgesSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load edges SQL functions", func(t *testing.T) {
		err := LoadEdgesSql(db.Instance, false)
		assert.NoError(t, err)
		assertFunctionsExist(t, db.Instance, EdgesFunctions)
	})

	t.Run("Load edges SQL with force reloads", func(t *testing.T) {
		err := LoadEdgesSql(db.Instance, true)
		assert.NoError(t, err)
		assertFunctionsExist(t, db.Instance, EdgesFunctions)
	})
}

func TestCheckFunctions(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Check functions returns false for nonexistent function", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Check functions returns true when all functions exist", func(t *testing.T) {
		err := LoadEdgesSql(db.Instance, false)
		require.NoError(t, err)

		exists, err := checkFunctions(db.Instance, EdgesFunctions)
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Check functions returns false when some functions are missing", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"init_edges", "nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestEmbeddedSQL(t *testing.T) {
	t.Run("All SQL files are embedded", func(t *testing.T) {
		assert.Contains(t, initSQL, "CREATE EXTENSION")
		assert.Contains(t, speechesSQL, "CREATE")
		assert.Contains(t, chunksSQL, "CREATE")
		assert.Contains(t, edgesSQL, "CREATE")
	})
}
