package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"draftcheck/internal/config"
	"draftcheck/internal/postag"
	"draftcheck/internal/segment"
)

// fileExtractor is the test stand-in for the real document extractor: plain
// text files only.
type fileExtractor struct{}

func (fileExtractor) Supports(path string) bool {
	return strings.HasSuffix(path, ".txt")
}

func (fileExtractor) Extract(_ context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	return string(raw), err
}

func writeDocs(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
	}
	return dir
}

func buildFrom(t *testing.T, docs map[string]string, opts BuildOptions) *Corpus {
	t.Helper()
	root := writeDocs(t, docs)
	c, summary, err := Build(context.Background(), root, fileExtractor{}, config.Default(), opts)
	require.NoError(t, err)
	require.Equal(t, len(docs), summary.Documents)
	return c
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		percent float64
		want    Rarity
	}{
		{0, Unseen},
		{0.1, Rare},
		{9.999, Rare},
		{10.0, Normal}, // strictly <10 for rare
		{49.999, Normal},
		{50.0, Common}, // inclusive boundary
		{100, Common},
	}
	for _, c := range cases {
		if got := Classify(c.percent); got != c.want {
			t.Fatalf("Classify(%v) = %v, want %v", c.percent, got, c.want)
		}
	}
}

func TestBigramInOneOfTwoDocumentsIsCommon(t *testing.T) {
	c := buildFrom(t, map[string]string{
		"a.txt": "The gas turbine spun steadily through the night.",
		"b.txt": "Nothing here mentions machinery at all, only weather reports.",
	}, BuildOptions{})

	require.Equal(t, 2, c.DocCount)
	doc, _ := c.BigramStats("gas turbine", segment.English)
	require.Equal(t, 1, doc)
	require.InDelta(t, 50.0, c.DocPercent(doc, segment.English), 1e-9)
	require.Equal(t, Common, c.ClassifyBigram("gas turbine", segment.English))
}

func TestWordStatsAndClassification(t *testing.T) {
	c := buildFrom(t, map[string]string{
		"a.txt": "Turbine blades need turbine maintenance.",
		"b.txt": "Blades wear out quickly under load.",
	}, BuildOptions{})

	doc, total := c.WordStats("turbine", segment.English)
	require.Equal(t, 1, doc)
	require.Equal(t, 2, total)
	require.Equal(t, Common, c.ClassifyWord("blades", segment.English))
	require.Equal(t, Unseen, c.ClassifyWord("zeppelin", segment.English))
}

func TestSaveLoadRoundTripPreservesClassification(t *testing.T) {
	c := buildFrom(t, map[string]string{
		"a.txt": "Measured flow stabilized after recalibration. The sensor drifted again overnight.",
		"b.txt": "Recalibration schedules were adjusted. Flow variance dropped noticeably.",
		"c.txt": "An unrelated memo about cafeteria menus and parking assignments.",
	}, BuildOptions{})

	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, c.Save(path))
	loaded, err := Load(path, config.Default())
	require.NoError(t, err)

	require.Equal(t, c.DocCount, loaded.DocCount)
	for _, ls := range []*langStats{&c.langs[segment.English]} {
		for token := range ls.WordDoc {
			require.Equal(t, c.ClassifyWord(token, segment.English),
				loaded.ClassifyWord(token, segment.English), "token %q", token)
		}
		for key := range ls.BigramDoc {
			require.Equal(t, c.ClassifyBigram(key, segment.English),
				loaded.ClassifyBigram(key, segment.English), "bigram %q", key)
		}
	}
}

func TestLoadLegacyFlatMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"turbine": 7, "flow": 3}`), 0o644))

	c, err := Load(path, config.Default())
	require.NoError(t, err)
	require.False(t, c.Empty())
	require.Equal(t, Common, c.ClassifyWord("turbine", segment.English))
	require.Equal(t, Unseen, c.ClassifyWord("zeppelin", segment.English))
}

func TestLoadCorruptSnapshotFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte(`{{{not json`), 0o644))
	c, err := Load(path, config.Default())
	require.NoError(t, err)
	require.True(t, c.Empty())
}

func TestLoadMissingSnapshotIsEmpty(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.json"), config.Default())
	require.NoError(t, err)
	require.True(t, c.Empty())
}

func TestSentenceLengthBaselinePrefersSample(t *testing.T) {
	docs := map[string]string{}
	var b strings.Builder
	// 60 distinct sentences of varying length to clear the sample threshold.
	subjects := []string{"valve", "pump", "rotor", "stator", "bearing", "seal"}
	for i := 0; i < 60; i++ {
		b.WriteString("The ")
		b.WriteString(subjects[i%len(subjects)])
		b.WriteString(" assembly number ")
		for j := 0; j <= i%5; j++ {
			b.WriteString("really ")
		}
		b.WriteString("required inspection pass ")
		b.WriteString(strings.Repeat("x", 1))
		b.WriteString(strings.ToLower(string(rune('a' + i%26))))
		b.WriteString(string(rune('0' + i%10)))
		b.WriteString(". ")
	}
	docs["big.txt"] = b.String()

	c := buildFrom(t, docs, BuildOptions{})
	base, ok := c.SentenceLengthBaseline(segment.English)
	require.True(t, ok)
	require.True(t, base.FromSample, "baseline should come from the sentence sample")
	require.GreaterOrEqual(t, base.Count, 50)
	require.Greater(t, base.P90, 0.0)
	require.GreaterOrEqual(t, base.P95, base.P90)
	require.GreaterOrEqual(t, base.P90, base.P50)
}

func TestSentenceLengthBaselineFallsBackToRunningStats(t *testing.T) {
	c := buildFrom(t, map[string]string{
		"a.txt": "Only one short document here. It has very few sentences indeed.",
	}, BuildOptions{})
	base, ok := c.SentenceLengthBaseline(segment.English)
	require.True(t, ok)
	require.False(t, base.FromSample)
	require.Greater(t, base.Mean, 0.0)
}

func TestPOSSamplingBuildsSyntaxTables(t *testing.T) {
	sentence := "The valve failed early."
	tagger := &postag.Static{
		ID: "static-test",
		Answers: map[string]postag.Tagged{
			sentence: {Tags: []string{"DET", "NOUN", "VERB", "ADV"}, Deps: []string{"det", "nsubj", "ROOT", "advmod"}},
		},
	}
	c := buildFrom(t, map[string]string{"a.txt": sentence}, BuildOptions{Tagger: tagger})

	require.True(t, c.HasSyntaxStats(segment.English))
	require.Equal(t, 1, c.POSBigramSentenceFreq("DET NOUN", segment.English))
	require.Equal(t, "static-test", c.TaggerID)
}

func TestBuildSkipsFailingDocuments(t *testing.T) {
	root := writeDocs(t, map[string]string{
		"good.txt": "A perfectly ordinary sentence lives here.",
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.broken"), []byte("x"), 0o644))

	c, summary, err := Build(context.Background(), root, fileExtractor{}, config.Default(), BuildOptions{})
	require.NoError(t, err)
	// Unsupported files are simply not scanned; only supported ones count.
	require.Equal(t, 1, summary.Documents)
	require.Equal(t, 1, c.DocCount)
}

func TestBuildHonorsCancellation(t *testing.T) {
	root := writeDocs(t, map[string]string{
		"a.txt": "One sentence here.",
		"b.txt": "Another sentence there.",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Build(ctx, root, fileExtractor{}, config.Default(), BuildOptions{})
	require.ErrorIs(t, err, context.Canceled)
}
