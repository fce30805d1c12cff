package detect

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"draftcheck/internal/config"
	"draftcheck/internal/corpus"
	"draftcheck/internal/embed"
	"draftcheck/internal/postag"
	"draftcheck/internal/segment"
)

type txtExtractor struct{}

func (txtExtractor) Supports(path string) bool { return strings.HasSuffix(path, ".txt") }
func (txtExtractor) Extract(_ context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	return string(raw), err
}

func buildCorpus(t *testing.T, docs []string, opts corpus.BuildOptions) *corpus.Corpus {
	t.Helper()
	dir := t.TempDir()
	for i, text := range docs {
		name := filepath.Join(dir, "doc"+string(rune('a'+i))+".txt")
		if err := os.WriteFile(name, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	c, _, err := corpus.Build(context.Background(), dir, txtExtractor{}, config.Default(), opts)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func emptyEnv(t *testing.T) *Env {
	t.Helper()
	return &Env{
		Corpus: corpus.New(config.Default()),
		Policy: config.Default(),
		Lang:   segment.English,
	}
}

func issuesOfKind(perSentence [][]Issue, kind string) int {
	n := 0
	for _, issues := range perSentence {
		for _, is := range issues {
			if is.Kind == kind {
				n++
			}
		}
	}
	return n
}

func TestAllExtractorsDegradeOnEmptyCorpus(t *testing.T) {
	spans := segment.Segment("A plain sentence lives here. Another plain sentence follows it closely.", segment.English)
	env := emptyEnv(t)
	for _, extract := range All() {
		perSentence := extract(context.Background(), spans, env)
		if len(perSentence) != len(spans) {
			t.Fatalf("extractor output not parallel to spans: %d vs %d", len(perSentence), len(spans))
		}
		for _, issues := range perSentence {
			for _, is := range issues {
				if is.Kind == KindPhraseRarity || is.Kind == KindSemanticOutlier || is.Kind == KindSyntaxOutlier {
					t.Fatalf("corpus-dependent issue %q raised with no corpus data", is.Kind)
				}
			}
		}
	}
}

func TestLengthIssuesFlagsShortSentence(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("This reference sentence carries roughly twelve tokens of unremarkable prose number ")
		b.WriteString(string(rune('a' + i%26)))
		b.WriteString(string(rune('0' + i%10)))
		b.WriteString(". ")
	}
	c := buildCorpus(t, []string{b.String()}, corpus.BuildOptions{})
	env := &Env{Corpus: c, Policy: config.Default(), Lang: segment.English}

	spans := segment.Segment("Stop. This candidate sentence is comfortably long enough to pass the corpus baseline check.", segment.English)
	perSentence := LengthIssues(context.Background(), spans, env)
	if len(perSentence[0]) == 0 {
		t.Fatal("expected the one-word sentence to be flagged")
	}
	if len(perSentence[1]) != 0 {
		t.Fatalf("long sentence should not be flagged: %+v", perSentence[1])
	}
}

func TestLengthBaselineMinimumComesFromPolicy(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("This reference sentence carries roughly twelve tokens of unremarkable prose number ")
		b.WriteString(string(rune('a' + i%26)))
		b.WriteString(string(rune('0' + i%10)))
		b.WriteString(". ")
	}
	c := buildCorpus(t, []string{b.String()}, corpus.BuildOptions{})

	spans := segment.Segment("Barely five tokens sit here.", segment.English)

	env := &Env{Corpus: c, Policy: config.Default(), Lang: segment.English}
	if n := issuesOfKind(LengthIssues(context.Background(), spans, env), KindShortSentence); n != 1 {
		t.Fatalf("expected the five-token sentence below the scaled threshold to be flagged, got %d", n)
	}

	strict := config.Default()
	strict.LengthBaselineMinimum = 1000
	env = &Env{Corpus: c, Policy: strict, Lang: segment.English}
	if n := issuesOfKind(LengthIssues(context.Background(), spans, env), KindShortSentence); n != 0 {
		t.Fatalf("with too few baseline samples only the fixed floor applies, got %d issues", n)
	}
}

func TestLexicalIssues(t *testing.T) {
	env := emptyEnv(t)
	spans := segment.Segment("Moreover, the results delve into a tapestry of implications. The sensor reported numbers.", segment.English)
	perSentence := LexicalIssues(context.Background(), spans, env)
	if len(perSentence[0]) < 2 {
		t.Fatalf("expected transition + template issues, got %+v", perSentence[0])
	}
	if len(perSentence[1]) != 0 {
		t.Fatalf("plain sentence wrongly flagged: %+v", perSentence[1])
	}
}

func TestPhraseIssuesTiers(t *testing.T) {
	c := buildCorpus(t, []string{
		"The reactor core temperature rose slowly during the first test cycle of the campaign.",
		"During the second cycle the reactor core temperature fell back toward the baseline value.",
	}, corpus.BuildOptions{})
	env := &Env{Corpus: c, Policy: config.Default(), Lang: segment.English}

	inCorpus := segment.Segment("The reactor core temperature rose slowly during the first test cycle again.", segment.English)
	if n := issuesOfKind(PhraseIssues(context.Background(), inCorpus, env), KindPhraseRarity); n != 0 {
		t.Fatalf("familiar phrasing should not be flagged, got %d issues", n)
	}

	alien := segment.Segment("Quantum zebra harmonics modulate teal frequencies beneath crystalline proposal matrices tonight.", segment.English)
	perSentence := PhraseIssues(context.Background(), alien, env)
	if issuesOfKind(perSentence, KindPhraseRarity) == 0 {
		t.Fatal("alien phrasing should be flagged")
	}
	for _, issues := range perSentence {
		for _, is := range issues {
			if is.Severity != Warning {
				t.Fatalf("fully unseen stream should be a warning, got %v", is.Severity)
			}
		}
	}
}

func TestPunctuationIssues(t *testing.T) {
	env := emptyEnv(t)
	spans := segment.Segment("The device (once started never stops running smoothly!!", segment.English)
	perSentence := PunctuationIssues(context.Background(), spans, env)
	if issuesOfKind(perSentence, KindPunctuation) < 2 {
		t.Fatalf("expected unmatched bracket and repeated punctuation, got %+v", perSentence)
	}

	clean := segment.Segment("He said \"fine\" and left (quietly).", segment.English)
	if issuesOfKind(PunctuationIssues(context.Background(), clean, env), KindPunctuation) != 0 {
		t.Fatal("balanced sentence wrongly flagged")
	}
}

func TestApostropheIsNotAnUnmatchedQuote(t *testing.T) {
	env := emptyEnv(t)
	spans := segment.Segment("It doesn't matter that we can't verify the vendor's claim today.", segment.English)
	if issuesOfKind(PunctuationIssues(context.Background(), spans, env), KindPunctuation) != 0 {
		t.Fatal("contractions must not trigger quote balance issues")
	}
}

func TestRepetitionIssues(t *testing.T) {
	env := emptyEnv(t)
	text := "The system provides fast access. The system provides easy setup. " +
		"The system provides low latency. A completely different opener sits here."
	spans := segment.Segment(text, segment.English)
	perSentence := RepetitionIssues(context.Background(), spans, env)
	if issuesOfKind(perSentence, KindRepetition) != 3 {
		t.Fatalf("expected all three repeated openers flagged, got %+v", perSentence)
	}
	if len(perSentence[3]) != 0 {
		t.Fatalf("distinct opener wrongly flagged: %+v", perSentence[3])
	}
}

func TestSemanticIssues(t *testing.T) {
	model := embed.NewLocalModel(128)
	exemplars := []string{
		"the cooling loop pressure remained stable throughout the run",
		"operators recorded pump vibrations at hourly intervals",
	}
	ix, err := embed.Build(context.Background(), model, exemplars, nil, 8, 32, 256, nil)
	if err != nil {
		t.Fatal(err)
	}
	env := &Env{
		Corpus: corpus.New(config.Default()),
		Policy: config.Default(),
		Lang:   segment.English,
		Index:  ix,
		Model:  model,
	}

	identical := segment.Segment("the cooling loop pressure remained stable throughout the run.", segment.English)
	if issuesOfKind(SemanticIssues(context.Background(), identical, env), KindSemanticOutlier) != 0 {
		t.Fatal("a sentence identical to an exemplar must never be a semantic outlier")
	}

	alien := segment.Segment("Purple elephants negotiate quarterly insurance rebates under moonlight skies happily.", segment.English)
	if issuesOfKind(SemanticIssues(context.Background(), alien, env), KindSemanticOutlier) == 0 {
		t.Fatal("unrelated sentence should be a semantic outlier")
	}

	// A mismatched model must disable the signal entirely.
	env.Model = embed.NewLocalModel(64)
	if issuesOfKind(SemanticIssues(context.Background(), alien, env), KindSemanticOutlier) != 0 {
		t.Fatal("mismatched embedding space must disable the semantic signal")
	}
}

func TestSyntaxIssues(t *testing.T) {
	tagged := map[string]postag.Tagged{
		"The valve failed early.":  {Tags: []string{"DET", "NOUN", "VERB", "ADV"}, Deps: []string{"det", "nsubj", "ROOT", "advmod"}},
		"The pump stopped again.":  {Tags: []string{"DET", "NOUN", "VERB", "ADV"}, Deps: []string{"det", "nsubj", "ROOT", "advmod"}},
		"The seal cracked twice.":  {Tags: []string{"DET", "NOUN", "VERB", "ADV"}, Deps: []string{"det", "nsubj", "ROOT", "advmod"}},
		"Running quickly red the.": {Tags: []string{"VERB", "ADJ", "X", "PUNCT", "INTJ", "SYM", "NUM"}, Deps: []string{"ROOT", "amod", "dep", "punct", "intj", "dep", "nummod"}},
	}
	tagger := &postag.Static{ID: "static-test", Answers: tagged}
	c := buildCorpus(t, []string{
		"The valve failed early. The pump stopped again. The seal cracked twice.",
	}, corpus.BuildOptions{Tagger: tagger})
	env := &Env{Corpus: c, Policy: config.Default(), Lang: segment.English, Tagger: tagger}

	normal := segment.Segment("The valve failed early.", segment.English)
	if issuesOfKind(SyntaxIssues(context.Background(), normal, env), KindSyntaxOutlier) != 0 {
		t.Fatal("familiar syntax wrongly flagged")
	}

	weird := segment.Segment("Running quickly red the.", segment.English)
	if issuesOfKind(SyntaxIssues(context.Background(), weird, env), KindSyntaxOutlier) == 0 {
		t.Fatal("unfamiliar POS transitions should be flagged")
	}

	env.Tagger = postag.Disabled{}
	if issuesOfKind(SyntaxIssues(context.Background(), weird, env), KindSyntaxOutlier) != 0 {
		t.Fatal("disabled tagger must disable the syntax signal")
	}
}
