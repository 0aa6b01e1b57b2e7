package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed speeches.sql
var speechesSQL string

//go:embed chunks.sql
var chunksSQL string

//go:embed edges.sql
var edgesSQL string

// Function lists for verification
var SpeechesFunctions = []string{
	"init_speeches",
	"insert_speech",
	"select_speech",
	"select_all_speeches",
	"search_speeches",
	"select_similarity_candidates",
	"delete_speech",
}

var ChunksFunctions = []string{
	"init_chunks",
	"insert_chunk",
	"select_chunk",
	"select_chunks_by_speech",
	"select_chunks_by_range",
	"select_chunks_by_distance",
	"select_chunk_embedding",
	"update_chunk_embedding",
	"chunk_distance",
	"delete_chunks_by_speech",
}

var EdgesFunctions = []string{
	"init_edges",
	"insert_edge",
	"select_edge",
	"select_edge_pairs",
	"select_top_edges",
	"select_edges_for_speech",
	"delete_edges_touching",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadSpeechesSql loads speech-related SQL functions
func LoadSpeechesSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, SpeechesFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing speeches functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(speechesSQL)
	if err != nil {
		return fmt.Errorf("error executing speeches SQL: %w", err)
	}

	exist, err := checkFunctions(db, SpeechesFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL speeches functions loaded successfully")
	return nil
}

// LoadChunksSql loads chunk-related SQL functions
func LoadChunksSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, ChunksFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing chunks functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(chunksSQL)
	if err != nil {
		return fmt.Errorf("error executing chunks SQL: %w", err)
	}

	exist, err := checkFunctions(db, ChunksFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL chunks functions loaded successfully")
	return nil
}

// LoadEdgesSql loads similarity-edge-related SQL functions
func LoadEdgesSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, EdgesFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing edges functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(edgesSQL)
	if err != nil {
		return fmt.Errorf("error executing edges SQL: %w", err)
	}

	exist, err := checkFunctions(db, EdgesFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL edges functions loaded successfully")
	return nil
}

// checkFunctions reports whether all named functions already exist in the
// database.
func checkFunctions(db *sql.DB, functions []string) (bool, error) {
	for _, function := range functions {
		var exists bool
		err := db.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM pg_proc WHERE proname = $1)`,
			function,
		).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("error checking function %v: %w", function, err)
		}
		if !exists {
			return false, nil
		}
	}
	return true, nil
}
