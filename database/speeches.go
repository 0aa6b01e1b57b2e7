package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rostra-research/rostra/helper"
	"github.com/rostra-research/rostra/model"
	loadSql "github.com/rostra-research/rostra/sql"
)

// SpeechesDBHandlerFunctions defines the interface for Speeches database operations.
type SpeechesDBHandlerFunctions interface {
	InsertSpeech(speech *model.Speech) error
	SelectSpeech(rid uuid.UUID) (*model.Speech, error)
	SelectAllSpeeches(lastCreatedAt *time.Time, limit int) ([]*model.Speech, error)
	SelectSpeechesBySearch(searchTerm string, limit int) ([]*model.Speech, error)
	SelectSimilarityCandidates(yearFilter *int) ([]*model.SimilarityCandidate, error)
	DeleteSpeech(rid uuid.UUID) error
}

// SpeechesDBHandler handles speech-related database operations
type SpeechesDBHandler struct {
	db *helper.Database
}

// NewSpeechesDBHandler creates a new speeches database handler.
// It initializes the database connection and loads speech-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSpeechesDBHandler(db *helper.Database, force bool) (*SpeechesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	speechesDbHandler := &SpeechesDBHandler{
		db: db,
	}

	err := loadSql.LoadSpeechesSql(speechesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load speeches sql", err)
	}

	err = speechesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SpeechesDBHandler")

	return speechesDbHandler, nil
}

// CreateTable creates the 'speeches' table in the database.
// If the table already exists, it does not create it again.
func (h *SpeechesDBHandler) CreateTable() error {
	_, err := h.db.Instance.Exec(`SELECT init_speeches();`)
	if err != nil {
		return helper.NewError("initialize speeches table", err)
	}

	h.db.Logger.Info("Checked/created table speeches")

	return nil
}

// InsertSpeech inserts a new speech. The transient Text field is not stored.
func (h *SpeechesDBHandler) InsertSpeech(speech *model.Speech) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_speech($1, $2, $3, $4, $5, $6)`,
		speech.CountryCode,
		speech.CountryName,
		speech.Speaker,
		speech.Year,
		speech.Session,
		speech.Metadata,
	)

	err := row.Scan(
		&speech.ID,
		&speech.RID,
		&speech.CountryCode,
		&speech.CountryName,
		&speech.Speaker,
		&speech.Year,
		&speech.Session,
		&speech.Metadata,
		&speech.CreatedAt,
		&speech.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectSpeech retrieves a speech by RID
func (h *SpeechesDBHandler) SelectSpeech(rid uuid.UUID) (*model.Speech, error) {
	speech := &model.Speech{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_speech($1)`,
		rid,
	)

	err := row.Scan(
		&speech.ID,
		&speech.RID,
		&speech.CountryCode,
		&speech.CountryName,
		&speech.Speaker,
		&speech.Year,
		&speech.Session,
		&speech.Metadata,
		&speech.CreatedAt,
		&speech.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return speech, nil
}

// SelectAllSpeeches retrieves speeches created after lastCreatedAt (nil for
// the beginning of the archive), up to limit rows.
func (h *SpeechesDBHandler) SelectAllSpeeches(lastCreatedAt *time.Time, limit int) ([]*model.Speech, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_speeches($1, $2)`,
		lastCreatedAt,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var speeches []*model.Speech
	for rows.Next() {
		speech := &model.Speech{}
		err := rows.Scan(
			&speech.ID,
			&speech.RID,
			&speech.CountryCode,
			&speech.CountryName,
			&speech.Speaker,
			&speech.Year,
			&speech.Session,
			&speech.Metadata,
			&speech.CreatedAt,
			&speech.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		speeches = append(speeches, speech)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return speeches, nil
}

// SelectSpeechesBySearch retrieves speeches matching a country or speaker
// search term.
func (h *SpeechesDBHandler) SelectSpeechesBySearch(searchTerm string, limit int) ([]*model.Speech, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM search_speeches($1, $2)`,
		searchTerm,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var speeches []*model.Speech
	for rows.Next() {
		speech := &model.Speech{}
		err := rows.Scan(
			&speech.ID,
			&speech.RID,
			&speech.CountryCode,
			&speech.CountryName,
			&speech.Speaker,
			&speech.Year,
			&speech.Session,
			&speech.Metadata,
			&speech.CreatedAt,
			&speech.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		speeches = append(speeches, speech)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return speeches, nil
}

// SelectSimilarityCandidates retrieves the similarity candidate set: every
// speech with an embedded first chunk, optionally restricted to one year,
// ordered by (year, country code, id) so batch partitioning is reproducible.
func (h *SpeechesDBHandler) SelectSimilarityCandidates(yearFilter *int) ([]*model.SimilarityCandidate, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_similarity_candidates($1)`,
		yearFilter,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var candidates []*model.SimilarityCandidate
	for rows.Next() {
		candidate := &model.SimilarityCandidate{}
		err := rows.Scan(
			&candidate.SpeechID,
			&candidate.CountryCode,
			&candidate.Year,
			pq.Array(&candidate.Embedding),
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		candidates = append(candidates, candidate)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return candidates, nil
}

// DeleteSpeech deletes a speech by RID. Chunks and edges cascade.
func (h *SpeechesDBHandler) DeleteSpeech(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_speech($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
