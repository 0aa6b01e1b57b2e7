package answer

import (
	"fmt"
	"strings"

	"github.com/rostra-research/rostra/model"
)

// systemPrompt constrains the model to the retrieved excerpts. The archive
// spans decades of diplomatic speech, so attribution and disagreement
// between sources matter more than a smooth synthesis.
const systemPrompt = `You are a research assistant for an archive of speeches held at the United Nations General Assembly.

Answer the question using ONLY the numbered excerpts provided. Rules:
- Do not use knowledge from outside the excerpts.
- Attribute claims to their source as [N] with country and year, for example "[2] (France, 1987)".
- When excerpts contradict each other, point out the contradiction instead of smoothing it over.
- When the excerpts do not contain enough information to answer, say so plainly.`

// buildPrompt renders the hits into numbered, provenance-labeled excerpt
// blocks followed by the question. The numbering matches the Sources list
// of the final answer.
func buildPrompt(question string, hits []*model.SearchHit) string {
	builder := strings.Builder{}
	builder.WriteString("Excerpts:\n\n")
	for i, hit := range hits {
		speaker := hit.Speaker
		if speaker == "" {
			speaker = "unknown speaker"
		}
		builder.WriteString(fmt.Sprintf("[%v] %v, %v (session %v, %v):\n", i+1, hit.CountryName, hit.Year, hit.Session, speaker))
		builder.WriteString(hit.ContextText())
		builder.WriteString("\n\n")
	}
	builder.WriteString("Question: ")
	builder.WriteString(question)
	return builder.String()
}
