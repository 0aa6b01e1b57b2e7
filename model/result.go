package model

// SearchHit is a chunk returned by nearest-neighbor search together with its
// cosine distance from the query embedding and the origin metadata of the
// owning speech. Hits are ephemeral and never persisted.
type SearchHit struct {
	Chunk       *Chunk  `json:"chunk"`
	Distance    float64 `json:"distance"`
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	Speaker     string  `json:"speaker,omitempty"`
	Year        int     `json:"year"`
	Session     int     `json:"session"`
	// Context holds the expanded text window around the chunk when context
	// expansion was requested; empty otherwise.
	Context string `json:"context,omitempty"`
}

// ContextText returns the expanded context window if present, falling back
// to the chunk text.
func (h *SearchHit) ContextText() string {
	if h.Context != "" {
		return h.Context
	}
	if h.Chunk != nil {
		return h.Chunk.Text
	}
	return ""
}

// AnswerSource attributes part of a synthesized answer to one retrieved
// chunk.
type AnswerSource struct {
	Index    int     `json:"index"`
	ChunkID  int64   `json:"chunk_id"`
	SpeechID int64   `json:"speech_id"`
	Country  string  `json:"country"`
	Speaker  string  `json:"speaker,omitempty"`
	Year     int     `json:"year"`
	Session  int     `json:"session"`
	Distance float64 `json:"distance"`
	Preview  string  `json:"preview"`
}

// AnswerUsage reports token usage of one generation call, when the model
// reports it.
type AnswerUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// AnswerMeta carries generation metadata alongside a synthesized answer.
type AnswerMeta struct {
	Model          string      `json:"model"`
	Usage          AnswerUsage `json:"usage"`
	SearchCount    int         `json:"search_count"`
	FiltersApplied []string    `json:"filters_applied,omitempty"`
}

// Answer is the result of the retrieval-augmented synthesis pipeline.
type Answer struct {
	Text    string         `json:"text"`
	Sources []AnswerSource `json:"sources"`
	Meta    AnswerMeta     `json:"meta"`
}

// PerspectiveAnswer is one entity's answer within a comparison run.
type PerspectiveAnswer struct {
	Entity string  `json:"entity"`
	Answer *Answer `json:"answer"`
}

// Comparison aggregates per-entity answers on one topic plus the distinct
// years represented across all of their sources.
type Comparison struct {
	Topic        string              `json:"topic"`
	Perspectives []PerspectiveAnswer `json:"perspectives"`
	Years        []int               `json:"years"`
}
