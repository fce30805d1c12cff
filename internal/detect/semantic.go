package detect

import (
	"context"
	"fmt"

	"draftcheck/internal/embed"
	"draftcheck/internal/segment"
)

// SemanticIssues flags sentences whose best cosine similarity against the
// corpus exemplar index falls below the cutoff, reporting the best-matching
// exemplar. The signal degrades silently when no index or model is present,
// when the index belongs to a different embedding space, or when embedding
// fails.
func SemanticIssues(ctx context.Context, spans []segment.Span, env *Env) [][]Issue {
	out := make([][]Issue, len(spans))
	if env.Index == nil || env.Model == nil || env.Index.Len() == 0 {
		return out
	}
	if err := env.Index.CheckModel(env.Model); err != nil {
		return out
	}

	var eligible []int
	var texts []string
	for i, span := range spans {
		if span.Kind != segment.KindSentence {
			continue
		}
		if segment.SentenceLength(span.Text, env.Lang) < env.Policy.SemanticMinLength {
			continue
		}
		eligible = append(eligible, i)
		texts = append(texts, span.Text)
	}
	if len(texts) == 0 {
		return out
	}

	vectors, err := embed.EmbedAll(ctx, env.Model, texts,
		env.Policy.EmbedBatchSize, env.Policy.EmbedPadGranule, env.Policy.EmbedMaxSequence, nil)
	if err != nil {
		return out
	}

	for n, i := range eligible {
		best, ok := env.Index.Best(vectors[n])
		if !ok || best.Score >= env.Policy.SemanticCutoff {
			continue
		}
		desc := fmt.Sprintf("no similar sentence in the corpus (best match %.2f: %q)",
			best.Score, truncate(best.Sentence, 80))
		if best.Source != "" {
			desc += " from " + best.Source
		}
		out[i] = append(out[i], Issue{
			Kind:        KindSemanticOutlier,
			Severity:    Warning,
			Description: desc,
		})
	}
	return out
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
