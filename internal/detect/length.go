package detect

import (
	"context"
	"fmt"

	"draftcheck/internal/segment"
)

// LengthIssues flags sentences far shorter than the corpus baseline:
// below max(language floor, factor × corpus mean length) when the baseline
// has enough samples, else below the fixed language floor.
func LengthIssues(_ context.Context, spans []segment.Span, env *Env) [][]Issue {
	out := make([][]Issue, len(spans))

	floor := env.Policy.LengthFloorLatin
	if env.Lang == segment.Chinese {
		floor = env.Policy.LengthFloorCJK
	}
	threshold := float64(floor)
	if base, ok := env.Corpus.SentenceLengthBaseline(env.Lang); ok && base.Count >= env.Policy.LengthBaselineMinimum {
		if scaled := env.Policy.LengthFloorFactor * base.Mean; scaled > threshold {
			threshold = scaled
		}
	}

	for i, span := range spans {
		if span.Kind != segment.KindSentence {
			continue
		}
		length := segment.SentenceLength(span.Text, env.Lang)
		if length == 0 || float64(length) >= threshold {
			continue
		}
		out[i] = append(out[i], Issue{
			Kind:     KindShortSentence,
			Severity: Info,
			Description: fmt.Sprintf("sentence length %d is far below the corpus baseline (threshold %.1f)",
				length, threshold),
		})
	}
	return out
}
