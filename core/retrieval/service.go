package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rostra-research/rostra/helper"
	"github.com/rostra-research/rostra/model"
)

// QueryEmbedder embeds a search query into the chunk vector space.
type QueryEmbedder interface {
	Embed(text string) ([]float32, error)
}

// ChunkStore is the part of the chunk handler the retrieval service uses.
type ChunkStore interface {
	SelectChunksByDistance(embedding []float32, limit int, filter *model.SearchFilter) ([]*model.SearchHit, error)
	SelectChunksByRange(speechID int64, fromIndex int, toIndex int) ([]*model.Chunk, error)
}

// Service answers semantic search queries over the speech archive.
type Service struct {
	embedder QueryEmbedder
	chunks   ChunkStore
	logger   *slog.Logger
}

// NewService creates a retrieval Service.
func NewService(embedder QueryEmbedder, chunks ChunkStore, logger *slog.Logger) (*Service, error) {
	if embedder == nil {
		return nil, helper.NewError("retrieval service validation", errors.New("embedder is nil"))
	}
	if chunks == nil {
		return nil, helper.NewError("retrieval service validation", errors.New("chunk store is nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder: embedder,
		chunks:   chunks,
		logger:   logger,
	}, nil
}

// Search returns the k chunks nearest to the query, closest first. A nil
// filter searches the whole archive. Fewer than k hits are returned when
// the filtered archive is smaller than k.
func (s *Service) Search(ctx context.Context, query string, k int, filter *model.SearchFilter) ([]*model.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, helper.NewError("search validation", errors.New("query is empty"))
	}
	if k <= 0 {
		return nil, helper.NewError("search validation", fmt.Errorf("k must be positive, got %v", k))
	}
	if filter != nil {
		err := filter.Validate()
		if err != nil {
			return nil, helper.NewError("search validation", err)
		}
	}
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.Embed(query)
	if err != nil {
		return nil, helper.NewError("embedding search query", err)
	}

	hits, err := s.chunks.SelectChunksByDistance(embedding, k, filter)
	if err != nil {
		return nil, helper.NewError("searching chunks", err)
	}

	s.logger.Debug("search finished",
		slog.Int("k", k),
		slog.Int("hits", len(hits)),
	)
	return hits, nil
}

// ExpandContext loads the chunks surrounding a hit and attaches their
// concatenated text to the hit. With radius r the window covers chunk
// indexes [i-r, i+r] clipped to the speech, in document order, so the
// expansion is deterministic for a given stored speech.
func (s *Service) ExpandContext(ctx context.Context, hit *model.SearchHit, radius int) error {
	if hit == nil || hit.Chunk == nil {
		return helper.NewError("context expansion validation", errors.New("hit is nil"))
	}
	if radius < 0 {
		return helper.NewError("context expansion validation", fmt.Errorf("radius must not be negative, got %v", radius))
	}
	if radius == 0 {
		hit.Context = hit.Chunk.Text
		return nil
	}
	err := ctx.Err()
	if err != nil {
		return err
	}

	fromIndex := hit.Chunk.ChunkIndex - radius
	if fromIndex < 0 {
		fromIndex = 0
	}
	toIndex := hit.Chunk.ChunkIndex + radius

	window, err := s.chunks.SelectChunksByRange(hit.Chunk.SpeechID, fromIndex, toIndex)
	if err != nil {
		return helper.NewError("expanding hit context", err)
	}

	texts := make([]string, 0, len(window))
	for _, chunk := range window {
		texts = append(texts, chunk.Text)
	}
	hit.Context = strings.Join(texts, " ")
	return nil
}

// ExpandAll expands every hit in place with the given radius.
func (s *Service) ExpandAll(ctx context.Context, hits []*model.SearchHit, radius int) error {
	for _, hit := range hits {
		err := s.ExpandContext(ctx, hit, radius)
		if err != nil {
			return err
		}
	}
	return nil
}
