package detect

import (
	"context"
	"fmt"
	"strings"

	"draftcheck/internal/corpus"
	"draftcheck/internal/segment"
)

// PhraseIssues samples each sentence's bigram stream against the corpus
// bigram document frequencies. With at least the minimum number of sampled
// bigrams, tiered unseen-count/unseen-ratio thresholds raise an info or
// warning issue, naming example unseen bigrams.
func PhraseIssues(_ context.Context, spans []segment.Span, env *Env) [][]Issue {
	out := make([][]Issue, len(spans))
	if !env.Corpus.HasPhraseStats(env.Lang) {
		return out
	}
	p := env.Policy

	for i, span := range spans {
		if span.Kind != segment.KindSentence {
			continue
		}
		bigrams := segment.Bigrams(segment.BigramTokens(span.Text, env.Lang))
		if len(bigrams) < p.PhraseMinBigrams {
			continue
		}
		unseen := 0
		var examples []string
		for _, bg := range bigrams {
			if env.Corpus.ClassifyBigram(bg, env.Lang) == corpus.Unseen {
				unseen++
				if len(examples) < 3 {
					examples = append(examples, bg)
				}
			}
		}
		ratio := float64(unseen) / float64(len(bigrams))

		var severity Severity
		switch {
		case unseen >= p.PhraseWarnCount && ratio >= p.PhraseWarnRatio:
			severity = Warning
		case unseen >= p.PhraseInfoCount && ratio >= p.PhraseInfoRatio:
			severity = Info
		default:
			continue
		}
		out[i] = append(out[i], Issue{
			Kind:     KindPhraseRarity,
			Severity: severity,
			Description: fmt.Sprintf("%d of %d bigrams never appear in the corpus (e.g. %s)",
				unseen, len(bigrams), strings.Join(examples, "; ")),
		})
	}
	return out
}
