// Package score fuses the per-signal outlier ratios into one 0-100
// weirdness score. Compute is a pure function of its ratio inputs: same
// ratios, same score.
package score

import "math"

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Input carries the raw corpus-wide ratios plus the two availability
// flags. All ratios are fractions in [0,1] before scaling.
type Input struct {
	WordUnseenRatio      float64
	WordRareRatio        float64
	BigramUnseenRatio    float64
	OutlierSentenceRatio float64
	StyleIssueRatio      float64
	SemanticOutlierRatio float64
	SyntaxOutlierRatio   float64

	PhraseAvailable bool
	SyntaxAvailable bool
}

// Report is the scored result: the six clamped component ratios, the
// availability flags they were computed under, and the final bucketed
// score.
type Report struct {
	Word     float64 `json:"word"`
	Phrase   float64 `json:"phrase"`
	Sentence float64 `json:"sentence"`
	Style    float64 `json:"style"`
	Semantic float64 `json:"semantic"`
	Syntax   float64 `json:"syntax"`

	PhraseAvailable bool `json:"phrase_available"`
	SyntaxAvailable bool `json:"syntax_available"`

	Score int   `json:"score"`
	Level Level `json:"level"`
}

// Weights for the component sum. Four fixed configurations keyed by the
// availability flags, each summing to 1, so a missing signal's share is
// redistributed instead of silently shrinking every score.
type Weights struct {
	Word     float64
	Phrase   float64
	Sentence float64
	Style    float64
	Semantic float64
	Syntax   float64
}

func WeightsFor(phraseAvailable, syntaxAvailable bool) Weights {
	switch {
	case phraseAvailable && syntaxAvailable:
		return Weights{Word: 0.25, Phrase: 0.20, Sentence: 0.15, Style: 0.10, Semantic: 0.20, Syntax: 0.10}
	case phraseAvailable:
		return Weights{Word: 0.28, Phrase: 0.22, Sentence: 0.17, Style: 0.11, Semantic: 0.22}
	case syntaxAvailable:
		return Weights{Word: 0.30, Sentence: 0.18, Style: 0.12, Semantic: 0.28, Syntax: 0.12}
	default:
		return Weights{Word: 0.34, Sentence: 0.20, Style: 0.14, Semantic: 0.32}
	}
}

// Compute applies the component formulas, the weight table and the score
// buckets. mediumAt and highAt are the bucket boundaries (normally 35/70).
func Compute(in Input, mediumAt, highAt int) Report {
	r := Report{
		Word:            clamp01(in.WordUnseenRatio*1.25 + in.WordRareRatio*0.75),
		Sentence:        clamp01(in.OutlierSentenceRatio * 1.2),
		Style:           clamp01(in.StyleIssueRatio),
		Semantic:        clamp01(in.SemanticOutlierRatio * 1.1),
		PhraseAvailable: in.PhraseAvailable,
		SyntaxAvailable: in.SyntaxAvailable,
	}
	if in.PhraseAvailable {
		r.Phrase = clamp01(in.BigramUnseenRatio * 1.6)
	}
	if in.SyntaxAvailable {
		r.Syntax = clamp01(in.SyntaxOutlierRatio * 1.1)
	}

	w := WeightsFor(in.PhraseAvailable, in.SyntaxAvailable)
	sum := w.Word*r.Word + w.Phrase*r.Phrase + w.Sentence*r.Sentence +
		w.Style*r.Style + w.Semantic*r.Semantic + w.Syntax*r.Syntax

	score := int(math.Round(100 * sum))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	r.Score = score

	if mediumAt <= 0 {
		mediumAt = 35
	}
	if highAt <= mediumAt {
		highAt = 70
	}
	switch {
	case score >= highAt:
		r.Level = LevelHigh
	case score >= mediumAt:
		r.Level = LevelMedium
	default:
		r.Level = LevelLow
	}
	return r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
