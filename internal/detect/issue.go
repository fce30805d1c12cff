// Package detect holds the per-sentence signal extractors. Each extractor
// runs independently over the same segmented sentence list and degrades to
// "no issues" when the corpus signal it needs is unavailable for the
// detected language.
package detect

import (
	"context"

	"draftcheck/internal/config"
	"draftcheck/internal/corpus"
	"draftcheck/internal/embed"
	"draftcheck/internal/postag"
	"draftcheck/internal/segment"
)

type Severity int

const (
	Info Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "info"
}

// Issue kinds. Scoring groups them: style issues feed the style density,
// the outlier kinds feed their own densities.
const (
	KindShortSentence   = "short-sentence"
	KindLexicalPattern  = "lexical-pattern"
	KindPhraseRarity    = "phrase-rarity"
	KindPunctuation     = "punctuation"
	KindRepetition      = "repetition"
	KindSemanticOutlier = "semantic-outlier"
	KindSyntaxOutlier   = "syntax-outlier"
)

type Issue struct {
	Kind        string   `json:"kind"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	// Match is the offending span text, when one specific span triggered
	// the issue.
	Match string `json:"match,omitempty"`
}

// Diagnosis aggregates the issues of one sentence at one offset range of
// the analyzed document.
type Diagnosis struct {
	Sentence string  `json:"sentence"`
	Start    int     `json:"start"`
	End      int     `json:"end"`
	Issues   []Issue `json:"issues"`
}

// Env bundles the read-only inputs extractors consume. Index, Model and
// Tagger may be absent; extractors must treat absence as "signal
// unavailable", never as an error.
type Env struct {
	Corpus *corpus.Corpus
	Policy config.Policy
	Lang   segment.Language
	Index  *embed.Index
	Model  embed.Model
	Tagger postag.Tagger
}

// Extractor maps the segmented sentence list to per-sentence issue lists,
// indexed parallel to spans.
type Extractor func(ctx context.Context, spans []segment.Span, env *Env) [][]Issue

// All returns the full extractor set in a stable order.
func All() []Extractor {
	return []Extractor{
		LengthIssues,
		LexicalIssues,
		PhraseIssues,
		PunctuationIssues,
		RepetitionIssues,
		SemanticIssues,
		SyntaxIssues,
	}
}
