package answer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/rostra-research/rostra/helper"
	"github.com/rostra-research/rostra/model"
)

// NoAnswerText is returned without a generation call when retrieval finds
// nothing.
const NoAnswerText = "The archive contains no passages relevant to this question."

const previewLength = 200

// Searcher is the retrieval surface the synthesizer depends on.
type Searcher interface {
	Search(ctx context.Context, query string, k int, filter *model.SearchFilter) ([]*model.SearchHit, error)
	ExpandContext(ctx context.Context, hit *model.SearchHit, radius int) error
}

// Synthesizer turns a question into a grounded, source-attributed answer
// over the speech archive.
type Synthesizer struct {
	searcher  Searcher
	generator Generator
	logger    *slog.Logger
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(searcher Searcher, generator Generator, logger *slog.Logger) (*Synthesizer, error) {
	if searcher == nil {
		return nil, helper.NewError("synthesizer validation", errors.New("searcher is nil"))
	}
	if generator == nil {
		return nil, helper.NewError("synthesizer validation", errors.New("generator is nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		searcher:  searcher,
		generator: generator,
		logger:    logger,
	}, nil
}

// Ask retrieves the passages nearest to the question and synthesizes an
// answer from them. When retrieval finds nothing, a fixed no-answer text is
// returned and the generator is not called. A generation failure is
// returned as is, the caller sees the provider's error.
func (s *Synthesizer) Ask(ctx context.Context, question string, options model.AnswerOptions) (*model.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, helper.NewError("answer validation", errors.New("question is empty"))
	}
	options = withDefaults(options)

	var filter *model.SearchFilter
	if !options.Filter.IsZero() {
		filter = &options.Filter
	}

	hits, err := s.searcher.Search(ctx, question, options.SearchCount, filter)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		s.logger.Info("no passages found for question", slog.Int("k", options.SearchCount))
		return &model.Answer{
			Text:    NoAnswerText,
			Sources: []model.AnswerSource{},
			Meta: model.AnswerMeta{
				Model:          options.Model,
				FiltersApplied: options.Filter.Names(),
			},
		}, nil
	}

	if options.ExpandContext && options.ContextRadius > 0 {
		for _, hit := range hits {
			err = s.searcher.ExpandContext(ctx, hit, options.ContextRadius)
			if err != nil {
				return nil, err
			}
		}
	}

	result, err := s.generator.Generate(ctx, GenerationRequest{
		System:      systemPrompt,
		Prompt:      buildPrompt(question, hits),
		Model:       options.Model,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &model.Answer{
		Text:    result.Text,
		Sources: buildSources(hits),
		Meta: model.AnswerMeta{
			Model:          result.Model,
			Usage:          result.Usage,
			SearchCount:    len(hits),
			FiltersApplied: options.Filter.Names(),
		},
	}, nil
}

// ComparePerspectives answers the same topic once per country and collects
// the per-country answers side by side. A country whose answer fails is
// logged and skipped, the comparison fails only when every country fails.
func (s *Synthesizer) ComparePerspectives(ctx context.Context, topic string, countries []string, options model.AnswerOptions) (*model.Comparison, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, helper.NewError("comparison validation", errors.New("topic is empty"))
	}
	if len(countries) < 2 {
		return nil, helper.NewError("comparison validation", errors.New("at least two countries are required"))
	}

	perspectives := []model.PerspectiveAnswer{}
	yearSet := map[int]struct{}{}
	var lastErr error
	for _, country := range countries {
		countryOptions := options
		countryOptions.Filter = options.Filter.WithCountry(country)

		countryAnswer, err := s.Ask(ctx, topic, countryOptions)
		if err != nil {
			lastErr = err
			s.logger.Warn("skipping country in comparison",
				slog.String("country", country),
				slog.String("error", err.Error()),
			)
			continue
		}
		perspectives = append(perspectives, model.PerspectiveAnswer{
			Entity: country,
			Answer: countryAnswer,
		})
		for _, source := range countryAnswer.Sources {
			yearSet[source.Year] = struct{}{}
		}
	}

	if len(perspectives) == 0 {
		return nil, helper.NewError("comparing perspectives", lastErr)
	}

	years := make([]int, 0, len(yearSet))
	for year := range yearSet {
		years = append(years, year)
	}
	sort.Ints(years)

	return &model.Comparison{
		Topic:        topic,
		Perspectives: perspectives,
		Years:        years,
	}, nil
}

func withDefaults(options model.AnswerOptions) model.AnswerOptions {
	defaults := model.DefaultAnswerOptions()
	if options.SearchCount <= 0 {
		options.SearchCount = defaults.SearchCount
	}
	if options.ContextRadius <= 0 {
		options.ContextRadius = defaults.ContextRadius
	}
	if options.Model == "" {
		options.Model = defaults.Model
	}
	if options.Temperature <= 0 {
		options.Temperature = defaults.Temperature
	}
	if options.MaxTokens <= 0 {
		options.MaxTokens = defaults.MaxTokens
	}
	return options
}

func buildSources(hits []*model.SearchHit) []model.AnswerSource {
	sources := make([]model.AnswerSource, len(hits))
	for i, hit := range hits {
		sources[i] = model.AnswerSource{
			Index:    i + 1,
			ChunkID:  hit.Chunk.ID,
			SpeechID: hit.Chunk.SpeechID,
			Country:  hit.CountryName,
			Speaker:  hit.Speaker,
			Year:     hit.Year,
			Session:  hit.Session,
			Distance: math.Round(hit.Distance*1000) / 1000,
			Preview:  preview(hit.Chunk.Text),
		}
	}
	return sources
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return strings.TrimSpace(string(runes[:previewLength])) + "..."
}
