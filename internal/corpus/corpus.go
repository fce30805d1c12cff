// Package corpus builds and persists the reference-corpus statistics every
// divergence signal is measured against: word and bigram document
// frequencies, sentence-length baselines, POS-bigram tables and the
// semantic sentence sample.
package corpus

import (
	"sort"
	"sync"
	"time"

	"draftcheck/internal/config"
	"draftcheck/internal/embed"
	"draftcheck/internal/segment"
	"draftcheck/internal/stats"
)

// Rarity classifies a token by the share of corpus documents containing it.
type Rarity int

const (
	Unseen Rarity = iota
	Rare
	Normal
	Common
)

func (r Rarity) String() string {
	switch r {
	case Unseen:
		return "unseen"
	case Rare:
		return "rare"
	case Normal:
		return "normal"
	default:
		return "common"
	}
}

// langStats holds every per-language table. The two instances live in a
// parallel array indexed by segment.Language.
type langStats struct {
	WordDoc        map[string]int
	WordTotal      map[string]int
	BigramDoc      map[string]int
	BigramTotal    map[string]int
	BigramCount    int64
	SentenceLength stats.Running
	POSBigramSent  map[string]int
	POSBigramTotal map[string]int
	DepRel         map[string]int
	DocCount       int
	// SampleLengths are the length metrics of the semantic sentence sample,
	// kept for the percentile baseline.
	SampleLengths []int
}

func newLangStats() langStats {
	return langStats{
		WordDoc:        map[string]int{},
		WordTotal:      map[string]int{},
		BigramDoc:      map[string]int{},
		BigramTotal:    map[string]int{},
		POSBigramSent:  map[string]int{},
		POSBigramTotal: map[string]int{},
		DepRel:         map[string]int{},
	}
}

// SampleSentence is one exemplar collected for the semantic index.
type SampleSentence struct {
	Text   string
	Source string
	Lang   segment.Language
}

// Corpus is created empty, fully rebuilt on (re-)index, persisted as one
// snapshot, and treated as an immutable read-only value afterwards.
type Corpus struct {
	langs    [segment.LanguageCount]langStats
	DocCount int
	Dominant segment.Language
	BuiltAt  time.Time
	TaggerID string
	Semantic embed.Meta

	// Sample is the de-duplicated, heading-filtered sentence sample feeding
	// the semantic index. Persisted in the sidecar, not in the snapshot.
	Sample []SampleSentence

	policy config.Policy

	baselineMu sync.Mutex
	baseline   [segment.LanguageCount]*Baseline
}

func New(policy config.Policy) *Corpus {
	c := &Corpus{policy: policy}
	for i := range c.langs {
		c.langs[i] = newLangStats()
	}
	return c
}

func (c *Corpus) Policy() config.Policy { return c.policy }

// LangSummary is the per-language aggregate view used for reporting.
type LangSummary struct {
	Documents   int
	WordTypes   int
	BigramTypes int
	POSBigrams  int
}

func (c *Corpus) Summary(lang segment.Language) LangSummary {
	ls := &c.langs[lang]
	return LangSummary{
		Documents:   ls.DocCount,
		WordTypes:   len(ls.WordDoc),
		BigramTypes: len(ls.BigramDoc),
		POSBigrams:  len(ls.POSBigramSent),
	}
}

// Empty reports whether the corpus has no indexed documents at all.
func (c *Corpus) Empty() bool { return c.DocCount == 0 }

// applicableDocs is the per-language document count, falling back to the
// overall count when the language bucket is empty.
func (c *Corpus) applicableDocs(lang segment.Language) int {
	if n := c.langs[lang].DocCount; n > 0 {
		return n
	}
	return c.DocCount
}

// DocPercent converts a document frequency into the percentage driving
// rarity classification.
func (c *Corpus) DocPercent(docFreq int, lang segment.Language) float64 {
	docs := c.applicableDocs(lang)
	if docs <= 0 || docFreq <= 0 {
		return 0
	}
	return float64(docFreq) / float64(docs) * 100
}

// Classify buckets a doc-percent: unseen at exactly 0, rare strictly below
// 10, normal strictly below 50, common at 50 and above.
func Classify(docPercent float64) Rarity {
	switch {
	case docPercent <= 0:
		return Unseen
	case docPercent < 10:
		return Rare
	case docPercent < 50:
		return Normal
	default:
		return Common
	}
}

// WordStats returns (docFreq, totalFreq) for a filtered token.
func (c *Corpus) WordStats(token string, lang segment.Language) (int, int) {
	ls := &c.langs[lang]
	return ls.WordDoc[token], ls.WordTotal[token]
}

// BigramStats returns (docFreq, totalFreq) for a space-joined bigram key.
func (c *Corpus) BigramStats(key string, lang segment.Language) (int, int) {
	ls := &c.langs[lang]
	return ls.BigramDoc[key], ls.BigramTotal[key]
}

func (c *Corpus) ClassifyWord(token string, lang segment.Language) Rarity {
	doc, _ := c.WordStats(token, lang)
	return Classify(c.DocPercent(doc, lang))
}

func (c *Corpus) ClassifyBigram(key string, lang segment.Language) Rarity {
	doc, _ := c.BigramStats(key, lang)
	return Classify(c.DocPercent(doc, lang))
}

// POSBigramSentenceFreq is the number of sampled corpus sentences whose tag
// stream contained the bigram. Sentence frequency rather than token counts
// keeps the syntax signal free of sentence-length bias.
func (c *Corpus) POSBigramSentenceFreq(key string, lang segment.Language) int {
	return c.langs[lang].POSBigramSent[key]
}

// HasSyntaxStats reports whether POS sampling produced usable tables for
// the language.
func (c *Corpus) HasSyntaxStats(lang segment.Language) bool {
	return len(c.langs[lang].POSBigramSent) > 0
}

// HasPhraseStats reports whether any bigram statistics exist for the
// language.
func (c *Corpus) HasPhraseStats(lang segment.Language) bool {
	return len(c.langs[lang].BigramDoc) > 0
}

// Baseline is a sentence-length reference distribution.
type Baseline struct {
	Count      int
	Mean       float64
	Std        float64
	P50        float64
	P90        float64
	P95        float64
	FromSample bool
}

// SentenceLengthBaseline prefers percentile statistics over the semantic
// sentence sample, which is de-duplicated and heading-filtered and so far
// more robust to document-layout noise than the raw running stats. Below
// the sample-size threshold it falls back to the RunningStats. The result
// is cached per language for the lifetime of this instance.
func (c *Corpus) SentenceLengthBaseline(lang segment.Language) (Baseline, bool) {
	c.baselineMu.Lock()
	defer c.baselineMu.Unlock()
	if b := c.baseline[lang]; b != nil {
		return *b, b.Count > 0
	}
	b := c.computeBaseline(lang)
	c.baseline[lang] = &b
	return b, b.Count > 0
}

func (c *Corpus) computeBaseline(lang segment.Language) Baseline {
	ls := &c.langs[lang]
	min := c.policy.BaselineMinSamples
	if min <= 0 {
		min = 50
	}
	if len(ls.SampleLengths) >= min {
		lengths := make([]float64, len(ls.SampleLengths))
		var running stats.Running
		for i, n := range ls.SampleLengths {
			lengths[i] = float64(n)
			running.Add(float64(n))
		}
		sort.Float64s(lengths)
		return Baseline{
			Count:      len(lengths),
			Mean:       running.Mean,
			Std:        running.Std(),
			P50:        percentile(lengths, 0.50),
			P90:        percentile(lengths, 0.90),
			P95:        percentile(lengths, 0.95),
			FromSample: true,
		}
	}
	return Baseline{
		Count: ls.SentenceLength.Count,
		Mean:  ls.SentenceLength.Mean,
		Std:   ls.SentenceLength.Std(),
	}
}

// percentile over a sorted slice, nearest-rank with linear interpolation.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
