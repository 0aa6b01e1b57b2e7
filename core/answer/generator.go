package answer

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rostra-research/rostra/helper"
	"github.com/rostra-research/rostra/model"
)

// GenerationRequest is one text generation call.
type GenerationRequest struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// GenerationResult is the model output of one generation call.
type GenerationResult struct {
	Text  string
	Model string
	Usage model.AnswerUsage
}

// Generator produces text from a prompt. The synthesizer only depends on
// this interface, so tests run against a fake.
type Generator interface {
	Generate(ctx context.Context, request GenerationRequest) (*GenerationResult, error)
}

// AnthropicGenerator generates answers with the Anthropic messages API.
type AnthropicGenerator struct {
	client anthropic.Client
}

// NewAnthropicGenerator creates a generator reading the API key from the
// ANTHROPIC_API_KEY environment variable.
func NewAnthropicGenerator() *AnthropicGenerator {
	return &AnthropicGenerator{
		client: anthropic.NewClient(),
	}
}

// NewAnthropicGeneratorWithKey creates a generator with an explicit key.
func NewAnthropicGeneratorWithKey(apiKey string) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, helper.NewError("generator validation", errors.New("api key is empty"))
	}
	return &AnthropicGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Generate runs one messages call and returns the concatenated text blocks.
func (g *AnthropicGenerator) Generate(ctx context.Context, request GenerationRequest) (*GenerationResult, error) {
	if request.Model == "" {
		return nil, helper.NewError("generator validation", errors.New("model is empty"))
	}
	if request.MaxTokens <= 0 {
		return nil, helper.NewError("generator validation", errors.New("max tokens must be positive"))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(request.Model),
		MaxTokens:   int64(request.MaxTokens),
		Temperature: anthropic.Float(request.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
	}
	if request.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.System},
		}
	}

	message, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, helper.NewError("generating answer", err)
	}

	builder := strings.Builder{}
	for _, block := range message.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}

	return &GenerationResult{
		Text:  builder.String(),
		Model: string(message.Model),
		Usage: model.AnswerUsage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
	}, nil
}
