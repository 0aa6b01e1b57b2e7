package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rostra-research/rostra/model"
)

// SizeChunker creates a chunker that splits a speech into sentence-aligned
// chunks bounded by the configured character sizes. The whole normalized
// text is covered with no gaps or overlaps: a chunk is flushed when the next
// sentence would push it past the maximum, or once it reaches the target,
// and an undersized tail is merged into the previous chunk instead of being
// emitted on its own.
func SizeChunker(config model.ChunkConfig) ChunkFunc {
	return func(text string) ([]*model.Chunk, error) {
		if err := config.Validate(); err != nil {
			return nil, err
		}

		text = normalizeWhitespace(text)
		if text == "" {
			return []*model.Chunk{}, nil
		}

		// A short speech is a single chunk, the whole text.
		if len(text) <= config.Target {
			return []*model.Chunk{{
				ChunkIndex: 0,
				Text:       text,
				CharStart:  0,
				CharEnd:    len(text),
			}}, nil
		}

		var chunks []*model.Chunk
		chunkStart := 0

		flush := func(end int) {
			chunks = append(chunks, &model.Chunk{
				ChunkIndex: len(chunks),
				Text:       text[chunkStart:end],
				CharStart:  chunkStart,
				CharEnd:    end,
			})
			chunkStart = end
		}

		// Greedy accumulation: bufferEnd tracks the last sentence boundary
		// taken into the current chunk.
		bufferEnd := chunkStart
		for _, boundary := range sentenceBoundaries(text) {
			if bufferEnd > chunkStart && boundary-chunkStart > config.Max {
				flush(bufferEnd)
			}
			bufferEnd = boundary
			if bufferEnd-chunkStart >= config.Target {
				flush(bufferEnd)
			}
		}
		if bufferEnd > chunkStart {
			flush(bufferEnd)
		}

		// Merge an undersized tail into the previous chunk rather than
		// emitting it on its own.
		if len(chunks) > 1 {
			last := chunks[len(chunks)-1]
			if len(last.Text) < config.Min {
				prev := chunks[len(chunks)-2]
				prev.Text = text[prev.CharStart:last.CharEnd]
				prev.CharEnd = last.CharEnd
				chunks = chunks[:len(chunks)-1]
			}
		}

		return chunks, nil
	}
}

// normalizeWhitespace collapses all whitespace runs to single spaces and
// trims the ends. Offsets of the chunker refer to this normalized text.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// sentenceBoundaries returns the exclusive end offsets of the sentences of
// normalized text, in ascending order, always ending with len(text). A
// sentence ends at a terminal '.', '!' or '?' followed by a space and an
// uppercase letter; the separating space belongs to the preceding sentence
// so that sentences tile the text exactly.
func sentenceBoundaries(text string) []int {
	var bounds []int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+2 < len(text) && text[i+1] == ' ' {
				r, _ := utf8.DecodeRuneInString(text[i+2:])
				if unicode.IsUpper(r) {
					bounds = append(bounds, i+2)
				}
			}
		}
	}
	bounds = append(bounds, len(text))
	return bounds
}
