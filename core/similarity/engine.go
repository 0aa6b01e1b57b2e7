package similarity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/rostra-research/rostra/helper"
	"github.com/rostra-research/rostra/model"
	"golang.org/x/sync/errgroup"
)

// CandidateSource loads the speeches taking part in a similarity run.
type CandidateSource interface {
	SelectSimilarityCandidates(yearFilter *int) ([]*model.SimilarityCandidate, error)
}

// EdgeStore persists similarity edges.
type EdgeStore interface {
	SelectEdgePairs(speechIDs []int64) (map[model.PairKey]struct{}, error)
	InsertEdges(edges []*model.SimilarityEdge) error
	DeleteEdgesTouching(speechIDs []int64) (int, error)
}

// Report summarizes one similarity run.
type Report struct {
	// Candidates is the number of speeches with an embedding.
	Candidates int `json:"candidates"`
	// Pairs is the number of pairs scored, excluding pairs skipped because
	// an edge already existed.
	Pairs int `json:"pairs"`
	// Edges is the number of edges committed to the store.
	Edges int `json:"edges"`
	// Waves is the number of waves committed.
	Waves int `json:"waves"`
	// FailedBatches holds the indexes of batches whose worker failed.
	FailedBatches []int         `json:"failed_batches,omitempty"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Engine computes pairwise speech similarity in parallel waves.
type Engine struct {
	speeches CandidateSource
	edges    EdgeStore
	logger   *slog.Logger
}

// NewEngine creates an Engine over the given stores.
func NewEngine(speeches CandidateSource, edges EdgeStore, logger *slog.Logger) (*Engine, error) {
	if speeches == nil {
		return nil, helper.NewError("similarity engine validation", errors.New("candidate source is nil"))
	}
	if edges == nil {
		return nil, helper.NewError("similarity engine validation", errors.New("edge store is nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		speeches: speeches,
		edges:    edges,
		logger:   logger,
	}, nil
}

// batchResult is the outcome slot of one worker. A failed batch in a wave
// does not discard the wave's successful batches.
type batchResult struct {
	edges []*model.SimilarityEdge
	pairs int
	err   error
}

// ComputeAll scores every candidate pair and stores edges at or above the
// configured threshold. Pairs with an existing edge are skipped, so an
// aborted run can be resumed by invoking ComputeAll again with the same
// configuration. With Force set, edges touching the candidate set are
// deleted first and everything is recomputed.
//
// Each wave is persisted in one transaction before the next wave starts.
// When workers of a wave fail, the successful batches of that wave are
// still persisted, then the run aborts reporting the failed batch indexes.
func (e *Engine) ComputeAll(ctx context.Context, config model.SimilarityConfig) (*Report, error) {
	err := config.Validate()
	if err != nil {
		return nil, helper.NewError("similarity config validation", err)
	}

	start := time.Now()

	candidates, err := e.speeches.SelectSimilarityCandidates(config.YearFilter)
	if err != nil {
		return nil, helper.NewError("selecting similarity candidates", err)
	}
	report := &Report{Candidates: len(candidates)}
	if len(candidates) < 2 {
		e.logger.Info("not enough candidates for similarity run", slog.Int("candidates", len(candidates)))
		report.Elapsed = time.Since(start)
		return report, nil
	}

	speechIDs := make([]int64, len(candidates))
	for i, candidate := range candidates {
		speechIDs[i] = candidate.SpeechID
	}

	known := map[model.PairKey]struct{}{}
	if config.Force {
		deleted, err := e.edges.DeleteEdgesTouching(speechIDs)
		if err != nil {
			return nil, helper.NewError("deleting existing edges", err)
		}
		e.logger.Info("forced recompute, deleted existing edges", slog.Int("deleted", deleted))
	} else {
		known, err = e.edges.SelectEdgePairs(speechIDs)
		if err != nil {
			return nil, helper.NewError("selecting existing edge pairs", err)
		}
	}

	batches := batchCandidates(candidates, config.BatchSize)
	totalBatches := len(batches)
	batchesDone := 0

	for waveStart := 0; waveStart < totalBatches; waveStart += config.MaxWorkers {
		waveEnd := waveStart + config.MaxWorkers
		if waveEnd > totalBatches {
			waveEnd = totalBatches
		}
		results := make([]batchResult, waveEnd-waveStart)

		group, groupCtx := errgroup.WithContext(ctx)
		for i := waveStart; i < waveEnd; i++ {
			slot := &results[i-waveStart]
			batch := batches[i]
			group.Go(func() error {
				workerCtx, cancel := context.WithTimeout(groupCtx, config.WorkerTimeout)
				defer cancel()
				slot.edges, slot.pairs, slot.err = scoreBatch(workerCtx, batch, candidates, known, config.Threshold)
				return nil
			})
		}
		// Workers never return errors through the group, outcomes live in
		// their result slots.
		_ = group.Wait()

		waveEdges := []*model.SimilarityEdge{}
		failed := []int{}
		for i, result := range results {
			if result.err != nil {
				batchIndex := waveStart + i
				failed = append(failed, batchIndex)
				e.logger.Error("similarity batch failed",
					slog.Int("batch", batchIndex),
					slog.String("error", result.err.Error()),
				)
				continue
			}
			report.Pairs += result.pairs
			waveEdges = append(waveEdges, result.edges...)
		}

		sort.Slice(waveEdges, func(a, b int) bool {
			if waveEdges[a].Speech1ID != waveEdges[b].Speech1ID {
				return waveEdges[a].Speech1ID < waveEdges[b].Speech1ID
			}
			return waveEdges[a].Speech2ID < waveEdges[b].Speech2ID
		})

		if len(waveEdges) > 0 {
			err = e.edges.InsertEdges(waveEdges)
			if err != nil {
				report.Elapsed = time.Since(start)
				return report, helper.NewError("inserting similarity edges", err)
			}
			report.Edges += len(waveEdges)
		}
		report.Waves++
		batchesDone += (waveEnd - waveStart) - len(failed)

		if len(failed) > 0 {
			report.FailedBatches = failed
			report.Elapsed = time.Since(start)
			return report, helper.NewError("similarity run aborted",
				fmt.Errorf("batches %v of wave %v failed, %v earlier waves completed, %v edges committed",
					failed, report.Waves, report.Waves-1, report.Edges))
		}

		elapsed := time.Since(start)
		eta := time.Duration(float64(elapsed) / float64(batchesDone) * float64(totalBatches))
		e.logger.Info("similarity wave committed",
			slog.Int("wave", report.Waves),
			slog.Int("batches_done", batchesDone),
			slog.Int("batches_total", totalBatches),
			slog.Int("edges", report.Edges),
			slog.Duration("elapsed", elapsed.Round(time.Millisecond)),
			slog.Duration("estimated_total", eta.Round(time.Millisecond)),
		)
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

// batchCandidates splits candidates into fixed-size batches, the last one
// possibly shorter.
func batchCandidates(candidates []*model.SimilarityCandidate, batchSize int) [][]*model.SimilarityCandidate {
	batches := [][]*model.SimilarityCandidate{}
	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batches = append(batches, candidates[start:end])
	}
	return batches
}

// scoreBatch scores every pair (a, b) with a in the batch, b in the full
// candidate set and a.SpeechID < b.SpeechID. Every unordered pair is scored
// exactly once per run because each candidate belongs to exactly one batch.
// The known set is read-only here.
func scoreBatch(
	ctx context.Context,
	batch []*model.SimilarityCandidate,
	candidates []*model.SimilarityCandidate,
	known map[model.PairKey]struct{},
	threshold float64,
) ([]*model.SimilarityEdge, int, error) {
	edges := []*model.SimilarityEdge{}
	pairs := 0
	for _, a := range batch {
		err := ctx.Err()
		if err != nil {
			return nil, 0, err
		}
		for _, b := range candidates {
			if a.SpeechID >= b.SpeechID {
				continue
			}
			_, ok := known[model.NewPairKey(a.SpeechID, b.SpeechID)]
			if ok {
				continue
			}
			similarity, err := cosineSimilarity(a.Embedding, b.Embedding)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to score speeches %v and %v: %w", a.SpeechID, b.SpeechID, err)
			}
			pairs++
			if similarity < threshold {
				continue
			}
			edge, err := model.NewSimilarityEdge(a.SpeechID, b.SpeechID, similarity)
			if err != nil {
				return nil, 0, err
			}
			edges = append(edges, edge)
		}
	}
	return edges, pairs, nil
}

// cosineSimilarity returns the cosine similarity of two vectors in [-1, 1].
// A zero vector has similarity 0 with everything.
func cosineSimilarity(a []float32, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions do not match: %v != %v", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, errors.New("embeddings are empty")
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
