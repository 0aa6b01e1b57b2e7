package rostra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rostra-research/rostra/core/answer"
	"github.com/rostra-research/rostra/core/pipeline"
	"github.com/rostra-research/rostra/core/retrieval"
	"github.com/rostra-research/rostra/core/similarity"
	"github.com/rostra-research/rostra/database"
	"github.com/rostra-research/rostra/helper"
	"github.com/rostra-research/rostra/model"
	loadSql "github.com/rostra-research/rostra/sql"
)

// Rostra provides a unified interface to the speech archive: ingestion,
// semantic search, similarity computation and answer synthesis.
type Rostra struct {
	DB         *helper.Database
	Speeches   *database.SpeechesDBHandler
	Chunks     *database.ChunksDBHandler
	Edges      *database.EdgesDBHandler
	Pipeline   *pipeline.Pipeline // Optional chunking pipeline
	Retrieval  *retrieval.Service // Set together with the pipeline
	Similarity *similarity.Engine
	// Set with UseGenerator, answer synthesis is optional
	Synthesizer *answer.Synthesizer
	// Logging
	log *slog.Logger
}

// NewRostra creates a new Rostra instance with all handlers initialized.
// The embedding dimension is fixed per archive, pointing an instance with a
// different dimension at an existing archive fails here.
func NewRostra(config *helper.DatabaseConfiguration, embeddingDim int) (*Rostra, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("rostra", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (speeches first, then chunks)
	// force=false to not reload if functions already exist
	speeches, err := database.NewSpeechesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create speeches handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	edges, err := database.NewEdgesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}

	engine, err := similarity.NewEngine(speeches, edges, logger)
	if err != nil {
		return nil, helper.NewError("create similarity engine", err)
	}

	return &Rostra{
		DB:         db,
		Speeches:   speeches,
		Chunks:     chunks,
		Edges:      edges,
		Similarity: engine,
		log:        logger,
	}, nil
}

// Close closes the database connection
func (r *Rostra) Close() error {
	if r.DB != nil && r.DB.Instance != nil {
		return r.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the chunking pipeline and wires the retrieval service to
// its embedder. The embedder dimension must match the archive.
func (r *Rostra) SetPipeline(p *pipeline.Pipeline) error {
	if p == nil || p.Embedder == nil {
		return helper.NewError("set pipeline", fmt.Errorf("pipeline with embedder is required"))
	}
	if p.Embedder.Dimension() != r.Chunks.EmbeddingDim() {
		return helper.NewError("set pipeline", fmt.Errorf(
			"embedder dimension %v does not match archive dimension %v",
			p.Embedder.Dimension(), r.Chunks.EmbeddingDim(),
		))
	}

	service, err := retrieval.NewService(p.Embedder, r.Chunks, r.log)
	if err != nil {
		return helper.NewError("create retrieval service", err)
	}

	r.Pipeline = p
	r.Retrieval = service
	return nil
}

// UseDefaultPipeline sets up the default chunking and embedding pipeline.
// This uses SizeChunker with the default size configuration and the
// all-MiniLM-L6-v2 model (384 dimensions).
func (r *Rostra) UseDefaultPipeline() error {
	chunker := pipeline.SizeChunker(model.DefaultChunkConfig())
	embedder, err := pipeline.NewDefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	return r.SetPipeline(pipeline.NewPipeline(chunker, embedder))
}

// UseGenerator wires an answer generator, enabling Ask and
// ComparePerspectives. Requires a pipeline to be set first.
func (r *Rostra) UseGenerator(generator answer.Generator) error {
	if r.Retrieval == nil {
		return helper.NewError("use generator", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	synthesizer, err := answer.NewSynthesizer(r.Retrieval, generator, r.log)
	if err != nil {
		return helper.NewError("create synthesizer", err)
	}

	r.Synthesizer = synthesizer
	return nil
}

// ProcessAndInsertSpeech processes a speech by:
// 1. Inserting the speech metadata (without the full text)
// 2. Chunking and embedding the text using the pipeline
// 3. Inserting all chunks with the speech ID
// The speech's Text field is used for processing but not stored in the
// database. Returns the number of chunks inserted and any error encountered.
func (r *Rostra) ProcessAndInsertSpeech(speech *model.Speech) (int, error) {
	if r.Pipeline == nil {
		return 0, helper.NewError("process speech", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	if speech.Text == "" {
		return 0, helper.NewError("process speech", fmt.Errorf("speech text is empty"))
	}

	// Store text temporarily and clear it before DB insert
	text := speech.Text
	speech.Text = ""

	// Insert speech metadata
	if err := r.Speeches.InsertSpeech(speech); err != nil {
		return 0, helper.NewError("insert speech", err)
	}

	r.log.Info("Inserted speech",
		slog.String("country", speech.CountryCode),
		slog.Int("year", speech.Year),
		slog.Int("session", speech.Session),
	)

	// Process text into embedded chunks
	chunks, err := r.Pipeline.Process(text)
	if err != nil {
		return 0, helper.NewError("process chunks", err)
	}

	r.log.Info("Processed speech into chunks", slog.Int("num_chunks", len(chunks)), slog.String("speech_id", speech.RID.String()))

	// Insert all chunks
	for i, chunk := range chunks {
		chunk.SpeechID = speech.ID
		if err := r.Chunks.InsertChunk(chunk); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert chunk %d", i), err)
		}
	}

	return len(chunks), nil
}

// Search performs vector similarity search over the chunk index
func (r *Rostra) Search(ctx context.Context, query string, k int, filter *model.SearchFilter) ([]*model.SearchHit, error) {
	if r.Retrieval == nil {
		return nil, helper.NewError("vector search", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return r.Retrieval.Search(ctx, query, k, filter)
}

// ExpandedSearch performs vector similarity search and attaches the
// surrounding chunks of every hit as context
func (r *Rostra) ExpandedSearch(ctx context.Context, query string, k int, filter *model.SearchFilter, radius int) ([]*model.SearchHit, error) {
	hits, err := r.Search(ctx, query, k, filter)
	if err != nil {
		return nil, err
	}
	err = r.Retrieval.ExpandAll(ctx, hits, radius)
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// ComputeSimilarities scores all candidate speech pairs and stores the
// edges at or above the configured threshold
func (r *Rostra) ComputeSimilarities(ctx context.Context, config model.SimilarityConfig) (*similarity.Report, error) {
	return r.Similarity.ComputeAll(ctx, config)
}

// RelatedSpeeches returns the strongest similarity edges touching a speech
func (r *Rostra) RelatedSpeeches(speechID int64, limit int) ([]*model.SimilarityEdge, error) {
	return r.Edges.SelectEdgesForSpeech(speechID, limit)
}

// TopEdges returns the strongest similarity edges of the whole archive
func (r *Rostra) TopEdges(limit int) ([]*model.SimilarityEdge, error) {
	return r.Edges.SelectTopEdges(limit)
}

// Ask synthesizes a grounded answer to a question over the archive
func (r *Rostra) Ask(ctx context.Context, question string, options model.AnswerOptions) (*model.Answer, error) {
	if r.Synthesizer == nil {
		return nil, helper.NewError("ask", fmt.Errorf("generator not set, use UseGenerator() first"))
	}
	return r.Synthesizer.Ask(ctx, question, options)
}

// ComparePerspectives answers the same topic for several countries and
// collects the answers side by side
func (r *Rostra) ComparePerspectives(ctx context.Context, topic string, countries []string, options model.AnswerOptions) (*model.Comparison, error) {
	if r.Synthesizer == nil {
		return nil, helper.NewError("compare perspectives", fmt.Errorf("generator not set, use UseGenerator() first"))
	}
	return r.Synthesizer.ComparePerspectives(ctx, topic, countries, options)
}
