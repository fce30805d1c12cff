// Package analyzer owns the engine lifecycle: building and persisting the
// corpus, memoizing the semantic index, and scoring candidate documents
// against the loaded snapshot.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"draftcheck/internal/config"
	"draftcheck/internal/corpus"
	"draftcheck/internal/detect"
	"draftcheck/internal/embed"
	"draftcheck/internal/fsatomic"
	"draftcheck/internal/postag"
	"draftcheck/internal/score"
	"draftcheck/internal/segment"
)

type Logger interface {
	Log(level, stage, message, detail string)
}

// Engine binds one corpus snapshot path to an embedding model and a tagger
// capability. The loaded corpus is an immutable value; Analyze may be
// called from concurrent goroutines.
type Engine struct {
	snapshotPath string
	policy       config.Policy
	model        embed.Model
	tagger       postag.Tagger
	logger       Logger

	mu       sync.Mutex
	current  *corpus.Corpus
	index    *embed.Index
	indexKey string
}

// New loads the last good snapshot (or an empty corpus when none exists).
func New(snapshotPath string, policy config.Policy, model embed.Model, tagger postag.Tagger, logger Logger) (*Engine, error) {
	c, err := corpus.Load(snapshotPath, policy)
	if err != nil {
		return nil, err
	}
	return &Engine{
		snapshotPath: snapshotPath,
		policy:       policy,
		model:        model,
		tagger:       tagger,
		logger:       logger,
		current:      c,
	}, nil
}

func (e *Engine) Corpus() *corpus.Corpus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func corpusKey(c *corpus.Corpus) string {
	return c.Semantic.Fingerprint + "@" + c.BuiltAt.String()
}

// Build runs a full corpus rebuild from root and atomically replaces the
// persisted snapshot and sidecars. Cancellation at any point leaves the
// previous artifacts byte-for-byte unchanged and reloads the in-memory
// corpus from the last good snapshot.
func (e *Engine) Build(ctx context.Context, root string, extractor corpus.TextExtractor, progress corpus.Progress) (int, error) {
	c, summary, err := corpus.Build(ctx, root, extractor, e.policy, corpus.BuildOptions{
		Tagger:   e.tagger,
		Logger:   e.logger,
		Progress: progress,
	})
	if err != nil {
		return 0, e.rollback(err)
	}

	var ix *embed.Index
	if e.model != nil && len(c.Sample) > 0 {
		texts := make([]string, len(c.Sample))
		sources := make([]string, len(c.Sample))
		for i, s := range c.Sample {
			texts[i] = s.Text
			sources[i] = s.Source
		}
		ix, err = embed.Build(ctx, e.model, texts, sources,
			e.policy.EmbedBatchSize, e.policy.EmbedPadGranule, e.policy.EmbedMaxSequence, progress)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return 0, e.rollback(context.Canceled)
			}
			// Embedding backend unavailable: the semantic signal degrades,
			// the rest of the corpus is still worth keeping.
			if e.logger != nil {
				e.logger.Log("WARN", "embed", "semantic index unavailable", err.Error())
			}
			ix = nil
		}
	}
	// All payloads reach temp files before any rename; the snapshot rename
	// is the commit point, so a failure at any earlier step leaves the
	// previous artifacts untouched.
	var stage fsatomic.Stage
	if ix != nil {
		c.Semantic = ix.Meta
		if err := ix.Stage(e.snapshotPath, &stage); err != nil {
			stage.Discard()
			return 0, fmt.Errorf("stage semantic sidecars: %w", err)
		}
	}
	if err := c.Stage(e.snapshotPath, &stage); err != nil {
		stage.Discard()
		return 0, fmt.Errorf("stage corpus snapshot: %w", err)
	}
	if err := stage.Commit(); err != nil {
		return 0, fmt.Errorf("persist corpus artifacts: %w", err)
	}

	e.mu.Lock()
	e.current = c
	e.index = ix
	e.indexKey = corpusKey(c)
	e.mu.Unlock()
	return summary.Documents, nil
}

// rollback reloads the last good snapshot so a cancelled build never
// leaves a half-built corpus in memory.
func (e *Engine) rollback(cause error) error {
	c, loadErr := corpus.Load(e.snapshotPath, e.policy)
	if loadErr == nil {
		e.mu.Lock()
		e.current = c
		e.index = nil
		e.indexKey = ""
		e.mu.Unlock()
	}
	return cause
}

// semanticIndex returns the memoized index for the active corpus, loading
// the sidecars on first use. The memo is keyed by the corpus identity and
// so invalidated whenever the active corpus pointer changes. A missing or
// mismatched index yields nil: the semantic signal degrades.
func (e *Engine) semanticIndex(c *corpus.Corpus) *embed.Index {
	if e.model == nil || c.Semantic.SentenceCount == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	key := corpusKey(c)
	if e.index != nil && e.indexKey == key {
		return e.index
	}
	ix, err := embed.Load(e.snapshotPath)
	if err != nil {
		return nil
	}
	if err := ix.CheckModel(e.model); err != nil {
		if e.logger != nil {
			e.logger.Log("WARN", "semantic", "index mismatch, rebuild required", err.Error())
		}
		return nil
	}
	e.index = ix
	e.indexKey = key
	return ix
}

// CheckSemanticIndex reports embed.ErrIndexMismatch when persisted
// sidecars exist but belong to a different embedding model, so callers can
// demand an explicit rebuild instead of silently analyzing without the
// semantic signal.
func (e *Engine) CheckSemanticIndex() error {
	if e.model == nil {
		return nil
	}
	ix, err := embed.Load(e.snapshotPath)
	if err != nil {
		return nil
	}
	return ix.CheckModel(e.model)
}

// Result is one analysis outcome: the composite report plus per-sentence
// diagnoses for every sentence that raised at least one issue.
type Result struct {
	Language      segment.Language   `json:"language"`
	SentenceCount int                `json:"sentence_count"`
	Report        score.Report       `json:"report"`
	Diagnoses     []detect.Diagnosis `json:"diagnoses"`
}

// Analyze is total: it always returns a well-formed result, degrading to
// the subset of signals whose corpus data is available. Word rarity and
// sentence length are the only signals guaranteed present.
func (e *Engine) Analyze(ctx context.Context, text string) *Result {
	c := e.Corpus()
	lang := segment.DetectLanguage(text)
	spans := segment.Segment(text, lang)

	env := &detect.Env{
		Corpus: c,
		Policy: e.policy,
		Lang:   lang,
		Index:  e.semanticIndex(c),
		Model:  e.model,
		Tagger: e.tagger,
	}

	merged := make([][]detect.Issue, len(spans))
	for _, extractor := range detect.All() {
		perSentence := extractor(ctx, spans, env)
		for i, issues := range perSentence {
			merged[i] = append(merged[i], issues...)
		}
	}

	sentenceTotal := 0
	for _, span := range spans {
		if span.Kind == segment.KindSentence {
			sentenceTotal++
		}
	}

	in := e.ratios(c, lang, spans, merged, sentenceTotal)
	result := &Result{
		Language:      lang,
		SentenceCount: sentenceTotal,
		Report:        score.Compute(in, e.policy.ScoreMediumAt, e.policy.ScoreHighAt),
	}
	for i, span := range spans {
		if len(merged[i]) == 0 {
			continue
		}
		result.Diagnoses = append(result.Diagnoses, detect.Diagnosis{
			Sentence: span.Text,
			Start:    span.Start,
			End:      span.End,
			Issues:   merged[i],
		})
	}
	return result
}

// ratios folds the document's corpus-wide rarity counts and the extractor
// issue densities into the scoring input.
func (e *Engine) ratios(c *corpus.Corpus, lang segment.Language, spans []segment.Span, merged [][]detect.Issue, sentenceTotal int) score.Input {
	var in score.Input

	// An empty corpus has no baseline to diverge from: rarity ratios stay
	// zero instead of marking every token unseen.
	if !c.Empty() {
		wordsTotal, wordsUnseen, wordsRare := 0, 0, 0
		bigramsTotal, bigramsUnseen := 0, 0
		for _, span := range spans {
			for _, w := range segment.FilteredWords(span.Text, lang) {
				wordsTotal++
				switch c.ClassifyWord(w, lang) {
				case corpus.Unseen:
					wordsUnseen++
				case corpus.Rare:
					wordsRare++
				}
			}
			for _, bg := range segment.Bigrams(segment.BigramTokens(span.Text, lang)) {
				bigramsTotal++
				if c.ClassifyBigram(bg, lang) == corpus.Unseen {
					bigramsUnseen++
				}
			}
		}
		if wordsTotal > 0 {
			in.WordUnseenRatio = float64(wordsUnseen) / float64(wordsTotal)
			in.WordRareRatio = float64(wordsRare) / float64(wordsTotal)
		}
		if bigramsTotal > 0 {
			in.BigramUnseenRatio = float64(bigramsUnseen) / float64(bigramsTotal)
		}
		in.PhraseAvailable = c.HasPhraseStats(lang)
		in.SyntaxAvailable = e.tagger != nil && e.tagger.Available() && c.HasSyntaxStats(lang)
	}

	outlierSentences, styleSentences, semanticSentences, syntaxSentences := 0, 0, 0, 0
	for _, issues := range merged {
		short, style, semantic, syntax := false, false, false, false
		for _, is := range issues {
			switch is.Kind {
			case detect.KindShortSentence:
				short = true
			case detect.KindLexicalPattern, detect.KindPunctuation, detect.KindRepetition, detect.KindPhraseRarity:
				style = true
			case detect.KindSemanticOutlier:
				semantic = true
			case detect.KindSyntaxOutlier:
				syntax = true
			}
		}
		if short {
			outlierSentences++
		}
		if style {
			styleSentences++
		}
		if semantic {
			semanticSentences++
		}
		if syntax {
			syntaxSentences++
		}
	}
	if sentenceTotal > 0 {
		in.OutlierSentenceRatio = float64(outlierSentences) / float64(sentenceTotal)
		in.StyleIssueRatio = float64(styleSentences) / float64(sentenceTotal)
		in.SemanticOutlierRatio = float64(semanticSentences) / float64(sentenceTotal)
		in.SyntaxOutlierRatio = float64(syntaxSentences) / float64(sentenceTotal)
	}
	return in
}
