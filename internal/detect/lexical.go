package detect

import (
	"context"
	"regexp"
	"strings"

	"draftcheck/internal/segment"
)

// Fixed vocabulary and pattern sets for the lexical-pattern extractor.
// Membership checks only; no corpus data required, so this signal is always
// available.

var transitionOpeners = map[string]Severity{
	"moreover": Info, "furthermore": Info, "additionally": Info,
	"in addition": Info, "consequently": Info, "nevertheless": Info,
	"in conclusion": Warning, "overall": Info, "notably": Info,
	"综上所述": Warning, "总而言之": Warning, "此外": Info, "然而": Info,
	"值得注意的是": Info, "与此同时": Info,
}

var fillerWords = map[string]struct{}{
	"very": {}, "really": {}, "actually": {}, "basically": {},
	"essentially": {}, "extremely": {}, "incredibly": {}, "absolutely": {},
	"undoubtedly": {}, "certainly": {},
}

var passivePattern = regexp.MustCompile(`\b(?:is|are|was|were|been|being|be)\s+(?:\w+ly\s+)?\w+(?:ed|en)\b`)

var templatePhrases = []string{
	"plays a crucial role", "plays a vital role", "it is important to note",
	"it is worth noting", "in today's world", "in the modern era",
	"a testament to", "in the realm of", "delve into", "delves into",
	"a tapestry of", "stands as a", "serves as a reminder",
	"in the ever-evolving", "paving the way", "at the end of the day",
	"随着社会的发展", "在当今社会", "发挥着至关重要的作用", "起着不可或缺的作用",
}

// LexicalIssues flags templated transitions, high-frequency filler, passive
// constructions and stock template phrases through fixed-vocabulary and
// regex membership checks, each with its own severity.
func LexicalIssues(_ context.Context, spans []segment.Span, env *Env) [][]Issue {
	out := make([][]Issue, len(spans))
	for i, span := range spans {
		if span.Kind != segment.KindSentence {
			continue
		}
		lower := strings.ToLower(span.Text)

		for opener, severity := range transitionOpeners {
			if strings.HasPrefix(lower, opener+",") || strings.HasPrefix(lower, opener+" ") || strings.HasPrefix(lower, opener+"，") {
				out[i] = append(out[i], Issue{
					Kind:        KindLexicalPattern,
					Severity:    severity,
					Description: "templated transition opener",
					Match:       opener,
				})
				break
			}
		}

		if env.Lang == segment.English {
			fillers := 0
			words := segment.Words(span.Text, segment.English)
			for _, w := range words {
				if _, ok := fillerWords[w]; ok {
					fillers++
				}
			}
			if len(words) > 0 && fillers >= 2 {
				out[i] = append(out[i], Issue{
					Kind:        KindLexicalPattern,
					Severity:    Info,
					Description: "high filler/intensifier density",
				})
			}
			if m := passivePattern.FindString(lower); m != "" {
				out[i] = append(out[i], Issue{
					Kind:        KindLexicalPattern,
					Severity:    Info,
					Description: "passive construction",
					Match:       m,
				})
			}
		}

		for _, phrase := range templatePhrases {
			if strings.Contains(lower, phrase) {
				out[i] = append(out[i], Issue{
					Kind:        KindLexicalPattern,
					Severity:    Warning,
					Description: "stock template phrase",
					Match:       phrase,
				})
			}
		}
	}
	return out
}
