package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rostra-research/rostra/helper"
	"github.com/rostra-research/rostra/model"
	loadSql "github.com/rostra-research/rostra/sql"
)

// EdgesDBHandlerFunctions defines the interface for SimilarityEdges database operations.
type EdgesDBHandlerFunctions interface {
	InsertEdge(edge *model.SimilarityEdge) error
	InsertEdges(edges []*model.SimilarityEdge) error
	SelectEdge(speech1ID int64, speech2ID int64) (*model.SimilarityEdge, error)
	SelectEdgePairs(speechIDs []int64) (map[model.PairKey]struct{}, error)
	SelectTopEdges(limit int) ([]*model.SimilarityEdge, error)
	SelectEdgesForSpeech(speechID int64, limit int) ([]*model.SimilarityEdge, error)
	DeleteEdgesTouching(speechIDs []int64) (int, error)
}

// EdgesDBHandler handles similarity-edge-related database operations
type EdgesDBHandler struct {
	db *helper.Database
}

// NewEdgesDBHandler creates a new edges database handler.
// It initializes the database connection and loads edge-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := loadSql.LoadEdgesSql(edgesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'similarity_edges' table in the database.
// If the table already exists, it does not create it again.
// It also creates the indexes for top-k and edges-touching-speech queries.
func (h *EdgesDBHandler) CreateTable() error {
	_, err := h.db.Instance.Exec(`SELECT init_edges();`)
	if err != nil {
		return helper.NewError("initialize edges table", err)
	}

	h.db.Logger.Info("Checked/created table similarity_edges")

	return nil
}

// InsertEdge inserts or overwrites one edge. The pair must be in canonical
// order (Speech1ID < Speech2ID).
func (h *EdgesDBHandler) InsertEdge(edge *model.SimilarityEdge) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_edge($1, $2, $3)`,
		edge.Speech1ID,
		edge.Speech2ID,
		edge.Similarity,
	)

	err := row.Scan(
		&edge.Speech1ID,
		&edge.Speech2ID,
		&edge.Similarity,
		&edge.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// InsertEdges persists a set of edges in one transaction, all or nothing.
// This is the sole write path of a similarity wave: either every edge of
// the wave becomes durable or none does.
func (h *EdgesDBHandler) InsertEdges(edges []*model.SimilarityEdge) error {
	if len(edges) == 0 {
		return nil
	}

	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`SELECT * FROM insert_edge($1, $2, $3)`)
	if err != nil {
		return helper.NewError("prepare statement", err)
	}
	defer stmt.Close()

	for _, edge := range edges {
		err := stmt.QueryRow(edge.Speech1ID, edge.Speech2ID, edge.Similarity).Scan(
			&edge.Speech1ID,
			&edge.Speech2ID,
			&edge.Similarity,
			&edge.CreatedAt,
		)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert edge (%d, %d)", edge.Speech1ID, edge.Speech2ID), err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// SelectEdge retrieves the edge for an unordered pair, or nil if none is
// persisted.
func (h *EdgesDBHandler) SelectEdge(speech1ID int64, speech2ID int64) (*model.SimilarityEdge, error) {
	edge := &model.SimilarityEdge{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_edge($1, $2)`,
		speech1ID,
		speech2ID,
	)

	err := row.Scan(
		&edge.Speech1ID,
		&edge.Speech2ID,
		&edge.Similarity,
		&edge.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return edge, nil
}

// SelectEdgePairs bulk-loads the persisted pairs touching any of the given
// speeches into a set, so incremental recomputation can skip them without
// per-pair existence queries.
func (h *EdgesDBHandler) SelectEdgePairs(speechIDs []int64) (map[model.PairKey]struct{}, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_edge_pairs($1)`,
		pq.Array(speechIDs),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	pairs := map[model.PairKey]struct{}{}
	for rows.Next() {
		var speech1ID, speech2ID int64
		err := rows.Scan(&speech1ID, &speech2ID)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		pairs[model.NewPairKey(speech1ID, speech2ID)] = struct{}{}
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return pairs, nil
}

// SelectTopEdges retrieves the strongest edges across the archive.
func (h *EdgesDBHandler) SelectTopEdges(limit int) ([]*model.SimilarityEdge, error) {
	return h.selectEdges(`SELECT * FROM select_top_edges($1)`, limit)
}

// SelectEdgesForSpeech retrieves the edges touching one speech, strongest
// first. This powers the related-speeches listing.
func (h *EdgesDBHandler) SelectEdgesForSpeech(speechID int64, limit int) ([]*model.SimilarityEdge, error) {
	return h.selectEdges(`SELECT * FROM select_edges_for_speech($1, $2)`, speechID, limit)
}

func (h *EdgesDBHandler) selectEdges(query string, args ...interface{}) ([]*model.SimilarityEdge, error) {
	rows, err := h.db.Instance.Query(query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var edges []*model.SimilarityEdge
	for rows.Next() {
		edge := &model.SimilarityEdge{}
		err := rows.Scan(
			&edge.Speech1ID,
			&edge.Speech2ID,
			&edge.Similarity,
			&edge.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		edges = append(edges, edge)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}

// DeleteEdgesTouching removes every edge with either endpoint in the given
// set, for forced recomputation. Returns the number of edges removed.
func (h *EdgesDBHandler) DeleteEdgesTouching(speechIDs []int64) (int, error) {
	var count int
	err := h.db.Instance.QueryRow(
		`SELECT delete_edges_touching($1)`,
		pq.Array(speechIDs),
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}
