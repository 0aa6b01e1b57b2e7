package database

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rostra-research/rostra/helper"
	"github.com/rostra-research/rostra/model"
	loadSql "github.com/rostra-research/rostra/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	InsertChunk(chunk *model.Chunk) error
	SelectChunk(id int64) (*model.Chunk, error)
	SelectChunksBySpeech(speechID int64) ([]*model.Chunk, error)
	SelectChunksByRange(speechID int64, fromIndex int, toIndex int) ([]*model.Chunk, error)
	SelectChunksByDistance(embedding []float32, limit int, filter *model.SearchFilter) ([]*model.SearchHit, error)
	SelectChunkEmbedding(id int64) ([]float32, error)
	UpdateChunkEmbedding(chunk *model.Chunk) error
	ChunkDistance(idA int64, idB int64) (float64, error)
	DeleteChunksBySpeech(speechID int64) (int, error)
}

// ChunksDBHandler handles chunk-related database operations. The embedding
// dimension is fixed at construction; inserting a vector of any other length
// is rejected as a configuration error.
type ChunksDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	chunksDbHandler := &ChunksDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists with a different embedding dimension, the
// init function raises and the error is surfaced as a configuration error.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	_, err := h.db.Instance.Exec(`SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		return helper.NewError("initialize chunks table", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// EmbeddingDim returns the fixed embedding dimension of this store instance.
func (h *ChunksDBHandler) EmbeddingDim() int {
	return h.embeddingDim
}

func (h *ChunksDBHandler) validateEmbedding(embedding []float32) error {
	if embedding != nil && len(embedding) != h.embeddingDim {
		return helper.NewError("embedding dimension validation",
			fmt.Errorf("embedding has dimension %d, store has dimension %d", len(embedding), h.embeddingDim))
	}
	return nil
}

// InsertChunk inserts a new chunk, with or without an embedding.
func (h *ChunksDBHandler) InsertChunk(chunk *model.Chunk) error {
	if err := h.validateEmbedding(chunk.Embedding); err != nil {
		return err
	}

	var embeddingParam interface{}
	if chunk.Embedding != nil {
		embeddingParam = pq.Array(chunk.Embedding)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6)`,
		chunk.SpeechID,
		chunk.ChunkIndex,
		chunk.Text,
		chunk.CharStart,
		chunk.CharEnd,
		embeddingParam,
	)

	err := row.Scan(
		&chunk.ID,
		&chunk.SpeechID,
		&chunk.ChunkIndex,
		&chunk.Text,
		&chunk.CharStart,
		&chunk.CharEnd,
		pq.Array(&chunk.Embedding),
		&chunk.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectChunk retrieves a chunk by ID
func (h *ChunksDBHandler) SelectChunk(id int64) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1)`,
		id,
	)

	chunk := &model.Chunk{}
	err := row.Scan(
		&chunk.ID,
		&chunk.SpeechID,
		&chunk.ChunkIndex,
		&chunk.Text,
		&chunk.CharStart,
		&chunk.CharEnd,
		pq.Array(&chunk.Embedding),
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return chunk, nil
}

// SelectChunksBySpeech retrieves all chunks of a speech in index order
func (h *ChunksDBHandler) SelectChunksBySpeech(speechID int64) ([]*model.Chunk, error) {
	return h.selectChunks(`SELECT * FROM select_chunks_by_speech($1)`, speechID)
}

// SelectChunksByRange retrieves the chunks of a speech with indexes in
// [fromIndex, toIndex], ascending. Indexes without a chunk are simply absent.
func (h *ChunksDBHandler) SelectChunksByRange(speechID int64, fromIndex int, toIndex int) ([]*model.Chunk, error) {
	return h.selectChunks(`SELECT * FROM select_chunks_by_range($1, $2, $3)`, speechID, fromIndex, toIndex)
}

func (h *ChunksDBHandler) selectChunks(query string, args ...interface{}) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.SpeechID,
			&chunk.ChunkIndex,
			&chunk.Text,
			&chunk.CharStart,
			&chunk.CharEnd,
			pq.Array(&chunk.Embedding),
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksByDistance ranks stored chunks by cosine distance to the query
// embedding, optionally narrowed by the relational filter and capped at the
// filter's maximum distance. An empty result is a valid outcome, not an
// error, including when nothing lies within the cutoff.
func (h *ChunksDBHandler) SelectChunksByDistance(embedding []float32, limit int, filter *model.SearchFilter) ([]*model.SearchHit, error) {
	if err := h.validateEmbedding(embedding); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, helper.NewError("filter validation", err)
	}

	var countryParam, yearFromParam, yearToParam, maxDistanceParam interface{}
	if filter != nil {
		if filter.Country != "" {
			countryParam = filter.Country
		}
		if filter.YearFrom != 0 {
			yearFromParam = filter.YearFrom
		}
		if filter.YearTo != 0 {
			yearToParam = filter.YearTo
		}
		if filter.MaxDistance != 0 {
			maxDistanceParam = filter.MaxDistance
		}
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_distance($1, $2, $3, $4, $5, $6)`,
		pgvector.NewVector(embedding),
		limit,
		countryParam,
		yearFromParam,
		yearToParam,
		maxDistanceParam,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var hits []*model.SearchHit
	for rows.Next() {
		chunk := &model.Chunk{}
		hit := &model.SearchHit{Chunk: chunk}
		err := rows.Scan(
			&chunk.ID,
			&chunk.SpeechID,
			&chunk.ChunkIndex,
			&chunk.Text,
			&chunk.CharStart,
			&chunk.CharEnd,
			&chunk.CreatedAt,
			&hit.Distance,
			&hit.CountryCode,
			&hit.CountryName,
			&hit.Speaker,
			&hit.Year,
			&hit.Session,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunk.Distance = hit.Distance

		hits = append(hits, hit)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return hits, nil
}

// SelectChunkEmbedding retrieves the stored embedding of a chunk.
func (h *ChunksDBHandler) SelectChunkEmbedding(id int64) ([]float32, error) {
	var embedding []float32
	err := h.db.Instance.QueryRow(
		`SELECT select_chunk_embedding($1)`,
		id,
	).Scan(pq.Array(&embedding))
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return embedding, nil
}

// UpdateChunkEmbedding stores the embedding of a chunk.
func (h *ChunksDBHandler) UpdateChunkEmbedding(chunk *model.Chunk) error {
	if err := h.validateEmbedding(chunk.Embedding); err != nil {
		return err
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_chunk_embedding($1, $2)`,
		chunk.ID,
		pgvector.NewVector(chunk.Embedding),
	)

	err := row.Scan(
		&chunk.ID,
		&chunk.SpeechID,
		&chunk.ChunkIndex,
		&chunk.Text,
		&chunk.CharStart,
		&chunk.CharEnd,
		pq.Array(&chunk.Embedding),
		&chunk.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// ChunkDistance returns the cosine distance between two stored chunk
// embeddings. The metric is symmetric, so argument order does not matter.
func (h *ChunksDBHandler) ChunkDistance(idA int64, idB int64) (float64, error) {
	var distance float64
	err := h.db.Instance.QueryRow(
		`SELECT chunk_distance($1, $2)`,
		idA,
		idB,
	).Scan(&distance)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return distance, nil
}

// DeleteChunksBySpeech removes all chunks of a speech, for full
// re-processing. Returns the number of chunks removed.
func (h *ChunksDBHandler) DeleteChunksBySpeech(speechID int64) (int, error) {
	var count int
	err := h.db.Instance.QueryRow(
		`SELECT delete_chunks_by_speech($1)`,
		speechID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}
