package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"draftcheck/internal/config"
	"draftcheck/internal/postag"
	"draftcheck/internal/segment"
)

// TextExtractor yields plain text for one source document. Extraction
// failures are per-document: the builder skips the file and moves on.
type TextExtractor interface {
	Supports(path string) bool
	Extract(ctx context.Context, path string) (string, error)
}

type Logger interface {
	Log(level, stage, message, detail string)
}

// Progress receives coarse build progress: at most one call per reporting
// interval, plus a final call.
type Progress func(done, total int)

type BuildOptions struct {
	Tagger   postag.Tagger
	Logger   Logger
	Progress Progress
	// Interval rate-limits progress reporting. Zero means 200ms.
	Interval time.Duration
}

type BuildSummary struct {
	Documents int
	Skipped   int
	TagErrors int
}

// Build performs a full rebuild from every supported file under root. It
// never merges into an existing corpus. Cancellation is checked at the
// start of each document and each POS-sampled sentence; on cancellation the
// partial corpus is discarded by the caller and the context error returned.
func Build(ctx context.Context, root string, extractor TextExtractor, policy config.Policy, opts BuildOptions) (*Corpus, BuildSummary, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !extractor.Supports(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, BuildSummary{}, fmt.Errorf("scan source root: %w", err)
	}

	b := &builder{
		corpus:  New(policy),
		policy:  policy,
		tagger:  opts.Tagger,
		seen:    map[string]struct{}{},
		summary: BuildSummary{},
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	lastReport := time.Time{}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, b.summary, err
		}
		text, err := extractor.Extract(ctx, path)
		if err != nil {
			if err == context.Canceled || ctx.Err() != nil {
				return nil, b.summary, context.Canceled
			}
			b.summary.Skipped++
			if opts.Logger != nil {
				opts.Logger.Log("WARN", "extract", "document skipped", fmt.Sprintf("path=%s err=%v", path, err))
			}
			continue
		}
		if err := b.addDocument(ctx, text, filepath.Base(path)); err != nil {
			return nil, b.summary, err
		}
		b.summary.Documents++

		if opts.Progress != nil {
			now := time.Now()
			if now.Sub(lastReport) >= interval || i == len(files)-1 {
				opts.Progress(i+1, len(files))
				lastReport = now
			}
		}
	}

	c := b.corpus
	c.BuiltAt = time.Now().UTC()
	if opts.Tagger != nil && opts.Tagger.Available() {
		c.TaggerID = opts.Tagger.Name()
	}
	if c.langs[segment.Chinese].DocCount > c.langs[segment.English].DocCount {
		c.Dominant = segment.Chinese
	}
	if opts.Logger != nil {
		opts.Logger.Log("INFO", "build", "corpus build completed", fmt.Sprintf(
			"documents=%d skipped=%d sample=%d tag_errors=%d dominant=%s",
			b.summary.Documents, b.summary.Skipped, len(c.Sample), b.summary.TagErrors, c.Dominant))
	}
	return c, b.summary, nil
}

type builder struct {
	corpus  *Corpus
	policy  config.Policy
	tagger  postag.Tagger
	seen    map[string]struct{}
	posDone [segment.LanguageCount]int
	summary BuildSummary
}

func (b *builder) addDocument(ctx context.Context, text, source string) error {
	c := b.corpus
	lang := segment.DetectLanguage(text)
	c.DocCount++
	ls := &c.langs[lang]
	ls.DocCount++

	docWords := map[string]struct{}{}
	docBigrams := map[string]struct{}{}

	for _, span := range segment.Segment(text, lang) {
		for _, w := range segment.FilteredWords(span.Text, lang) {
			ls.WordTotal[w]++
			docWords[w] = struct{}{}
		}
		for _, bg := range segment.Bigrams(segment.BigramTokens(span.Text, lang)) {
			ls.BigramTotal[bg]++
			ls.BigramCount++
			docBigrams[bg] = struct{}{}
		}
		if span.Kind != segment.KindSentence {
			continue
		}
		length := segment.SentenceLength(span.Text, lang)
		if length > 0 {
			ls.SentenceLength.Add(float64(length))
		}
		b.sampleSentence(span.Text, source, lang, length)
		if err := b.samplePOS(ctx, span.Text, lang); err != nil {
			return err
		}
	}

	for w := range docWords {
		ls.WordDoc[w]++
	}
	for bg := range docBigrams {
		ls.BigramDoc[bg]++
	}
	return nil
}

// sampleSentence collects de-duplicated, heading-filtered, minimum-length
// sentences up to the global cap. The lengths also feed the percentile
// sentence-length baseline.
func (b *builder) sampleSentence(sentence, source string, lang segment.Language, length int) {
	if length < b.policy.SemanticMinLength {
		return
	}
	if len(b.corpus.Sample) >= b.policy.SemanticSampleCap {
		return
	}
	key := strings.ToLower(strings.Join(strings.Fields(sentence), " "))
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	b.corpus.Sample = append(b.corpus.Sample, SampleSentence{Text: sentence, Source: source, Lang: lang})
	b.corpus.langs[lang].SampleLengths = append(b.corpus.langs[lang].SampleLengths, length)
}

func (b *builder) samplePOS(ctx context.Context, sentence string, lang segment.Language) error {
	if b.tagger == nil || !b.tagger.Available() {
		return nil
	}
	if b.posDone[lang] >= b.policy.SyntaxSampleCap {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tagged, err := b.tagger.Tag(sentence, lang)
	if err != nil {
		b.summary.TagErrors++
		return nil
	}
	if len(tagged.Tags) < 2 {
		return nil
	}
	b.posDone[lang]++
	ls := &b.corpus.langs[lang]
	unique := map[string]struct{}{}
	for _, key := range postag.POSBigrams(tagged.Tags) {
		ls.POSBigramTotal[key]++
		unique[key] = struct{}{}
	}
	for key := range unique {
		ls.POSBigramSent[key]++
	}
	for _, dep := range tagged.Deps {
		if dep != "" {
			ls.DepRel[dep]++
		}
	}
	return nil
}
