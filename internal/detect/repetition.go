package detect

import (
	"context"
	"fmt"
	"strings"

	"draftcheck/internal/segment"
)

// RepetitionIssues flags every sentence in a group sharing an identical
// leading n-gram repeated document-wide at least the configured number of
// times. Formulaic drafts open sentence after sentence the same way.
func RepetitionIssues(_ context.Context, spans []segment.Span, env *Env) [][]Issue {
	out := make([][]Issue, len(spans))
	lead := env.Policy.RepetitionLeadTokens
	if lead <= 0 {
		lead = 3
	}
	minCount := env.Policy.RepetitionMinCount
	if minCount <= 0 {
		minCount = 3
	}

	groups := map[string][]int{}
	for i, span := range spans {
		if span.Kind != segment.KindSentence {
			continue
		}
		words := segment.Words(span.Text, env.Lang)
		if len(words) < lead {
			continue
		}
		key := strings.Join(words[:lead], " ")
		groups[key] = append(groups[key], i)
	}

	for key, members := range groups {
		if len(members) < minCount {
			continue
		}
		for _, i := range members {
			out[i] = append(out[i], Issue{
				Kind:     KindRepetition,
				Severity: Info,
				Description: fmt.Sprintf("%d sentences in this document start with %q",
					len(members), key),
				Match: key,
			})
		}
	}
	return out
}
