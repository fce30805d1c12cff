package detect

import (
	"context"
	"fmt"
	"regexp"

	"draftcheck/internal/segment"
)

// Paired symbols checked for balance within a single sentence. Quotes are
// counted, brackets are matched as open/close pairs.
var bracketPairs = map[rune]rune{
	'(': ')', '[': ']', '{': '}',
	'（': '）', '《': '》', '【': '】', '「': '」', '『': '』',
}

// ASCII single quotes double as apostrophes in contractions, so only
// double quotes are checked for balance.
var symmetricQuotes = []rune{'"'}

var openCloseQuotes = map[rune]rune{'“': '”', '‘': '’'}

var repeatedTerminal = regexp.MustCompile(`[!?！？]{2,}|[。]{2,}|\.{4,}|[,，]{2,}`)

// PunctuationIssues reports unmatched bracket/quote pairs and runs of
// repeated terminal punctuation. No corpus data required.
func PunctuationIssues(_ context.Context, spans []segment.Span, env *Env) [][]Issue {
	out := make([][]Issue, len(spans))
	for i, span := range spans {
		if span.Kind != segment.KindSentence {
			continue
		}
		if unmatched := unmatchedPairs(span.Text); unmatched != "" {
			out[i] = append(out[i], Issue{
				Kind:        KindPunctuation,
				Severity:    Warning,
				Description: "unmatched paired punctuation",
				Match:       unmatched,
			})
		}
		if m := repeatedTerminal.FindString(span.Text); m != "" {
			out[i] = append(out[i], Issue{
				Kind:        KindPunctuation,
				Severity:    Info,
				Description: fmt.Sprintf("repeated terminal punctuation %q", m),
			})
		}
	}
	return out
}

func unmatchedPairs(text string) string {
	counts := map[rune]int{}
	for _, r := range text {
		if _, ok := bracketPairs[r]; ok {
			counts[r]++
			continue
		}
		for open, close := range bracketPairs {
			if r == close {
				counts[open]--
			}
		}
		for open, close := range openCloseQuotes {
			switch r {
			case open:
				counts[open]++
			case close:
				counts[open]--
			}
		}
		for _, q := range symmetricQuotes {
			if r == q {
				counts[q]++
			}
		}
	}
	for r, n := range counts {
		if isSymmetric(r) {
			if n%2 != 0 {
				return string(r)
			}
			continue
		}
		if n != 0 {
			return string(r)
		}
	}
	return ""
}

func isSymmetric(r rune) bool {
	for _, q := range symmetricQuotes {
		if r == q {
			return true
		}
	}
	return false
}
