package detect

import (
	"context"
	"fmt"

	"draftcheck/internal/postag"
	"draftcheck/internal/segment"
)

// SyntaxIssues parses each sentence through the tagger capability and
// checks its POS-bigram stream against the corpus POS-bigram sentence
// frequency tables. Sentence frequency, not token counts, so long
// sentences are not penalized for length alone. Unavailable tagger or
// missing corpus tables disable the signal.
func SyntaxIssues(ctx context.Context, spans []segment.Span, env *Env) [][]Issue {
	out := make([][]Issue, len(spans))
	if env.Tagger == nil || !env.Tagger.Available() || !env.Corpus.HasSyntaxStats(env.Lang) {
		return out
	}
	p := env.Policy

	for i, span := range spans {
		if span.Kind != segment.KindSentence {
			continue
		}
		if ctx.Err() != nil {
			return out
		}
		tagged, err := env.Tagger.Tag(span.Text, env.Lang)
		if err != nil {
			continue
		}
		bigrams := postag.POSBigrams(tagged.Tags)
		if len(bigrams) < p.SyntaxMinBigrams {
			continue
		}
		unseen := 0
		for _, key := range bigrams {
			if env.Corpus.POSBigramSentenceFreq(key, env.Lang) == 0 {
				unseen++
			}
		}
		ratio := float64(unseen) / float64(len(bigrams))
		if unseen < p.SyntaxUnseenCount || ratio < p.SyntaxUnseenRatio {
			continue
		}
		out[i] = append(out[i], Issue{
			Kind:     KindSyntaxOutlier,
			Severity: Warning,
			Description: fmt.Sprintf("%d of %d POS transitions never occur in corpus sentences",
				unseen, len(bigrams)),
		})
	}
	return out
}
