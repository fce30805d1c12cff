package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"draftcheck/internal/config"
	"draftcheck/internal/embed"
	"draftcheck/internal/postag"
	"draftcheck/internal/score"
)

type textExtractor struct{}

func (textExtractor) Supports(path string) bool {
	return strings.HasSuffix(path, ".txt")
}

func (textExtractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func writeCorpusDir(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

var referenceDocs = map[string]string{
	"a.txt": "The turbine spins under load. The compressor feeds the turbine. Engineers monitor the turbine daily.",
	"b.txt": "The turbine requires regular maintenance. The compressor stage runs hot. Daily checks keep the turbine healthy.",
	"c.txt": "Maintenance engineers inspect the compressor. The turbine output stays stable under load.",
}

func newTestEngine(t *testing.T, dir string) (*Engine, string) {
	t.Helper()
	snapshot := filepath.Join(t.TempDir(), "corpus.json")
	eng, err := New(snapshot, config.Default(), embed.NewLocalModel(64), postag.Disabled{}, nil)
	require.NoError(t, err)
	if dir != "" {
		_, err = eng.Build(context.Background(), dir, textExtractor{}, nil)
		require.NoError(t, err)
	}
	return eng, snapshot
}

func TestAnalyzeIsTotalOnEmptyCorpus(t *testing.T) {
	eng, _ := newTestEngine(t, "")
	res := eng.Analyze(context.Background(), "Anything at all. Even without a corpus.")
	require.NotNil(t, res)
	require.Equal(t, 2, res.SentenceCount)
	require.Equal(t, score.LevelLow, res.Report.Level)
	require.Zero(t, res.Report.Word)
}

func TestAnalyzeInDomainScoresLowerThanOffDomain(t *testing.T) {
	eng, _ := newTestEngine(t, writeCorpusDir(t, referenceDocs))

	inDomain := eng.Analyze(context.Background(), "The turbine spins under load. Engineers monitor the compressor daily.")
	offDomain := eng.Analyze(context.Background(), "Basically, the quokka juggled iridescent marmalade. Basically, the zeppelin waltzed. Basically, nothing rhymed.")

	require.Less(t, inDomain.Report.Score, offDomain.Report.Score)
}

func TestAnalyzeCollectsDiagnosesWithOffsets(t *testing.T) {
	eng, _ := newTestEngine(t, writeCorpusDir(t, referenceDocs))

	text := "The turbine spins under load. Basically, the quokka juggled iridescent marmalade near the zeppelin."
	res := eng.Analyze(context.Background(), text)
	require.NotEmpty(t, res.Diagnoses)
	for _, d := range res.Diagnoses {
		require.Equal(t, d.Sentence, text[d.Start:d.End])
		require.NotEmpty(t, d.Issues)
	}
}

func TestBuildPersistsAndReloads(t *testing.T) {
	dir := writeCorpusDir(t, referenceDocs)
	eng, snapshot := newTestEngine(t, dir)
	require.False(t, eng.Corpus().Empty())

	reloaded, err := New(snapshot, config.Default(), embed.NewLocalModel(64), postag.Disabled{}, nil)
	require.NoError(t, err)
	require.False(t, reloaded.Corpus().Empty())
	require.Equal(t, eng.Corpus().DocCount, reloaded.Corpus().DocCount)
}

func TestBuildReportsEmbeddingProgress(t *testing.T) {
	dir := writeCorpusDir(t, referenceDocs)
	snapshot := filepath.Join(t.TempDir(), "corpus.json")
	eng, err := New(snapshot, config.Default(), embed.NewLocalModel(64), postag.Disabled{}, nil)
	require.NoError(t, err)

	var totals []int
	_, err = eng.Build(context.Background(), dir, textExtractor{}, func(done, total int) {
		totals = append(totals, total)
	})
	require.NoError(t, err)

	sampled := eng.Corpus().Semantic.SentenceCount
	require.Positive(t, sampled)
	require.Contains(t, totals, sampled)
}

func TestCancelledBuildLeavesSnapshotUntouched(t *testing.T) {
	dir := writeCorpusDir(t, referenceDocs)
	eng, snapshot := newTestEngine(t, dir)

	before, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	docsBefore := eng.Corpus().DocCount

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Build(ctx, dir, textExtractor{}, nil)
	require.ErrorIs(t, err, context.Canceled)

	after, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, docsBefore, eng.Corpus().DocCount)
}

func TestSemanticIndexMemoizedAcrossAnalyses(t *testing.T) {
	eng, _ := newTestEngine(t, writeCorpusDir(t, referenceDocs))

	require.Positive(t, eng.Corpus().Semantic.SentenceCount)
	first := eng.semanticIndex(eng.Corpus())
	require.NotNil(t, first)
	second := eng.semanticIndex(eng.Corpus())
	require.Same(t, first, second)
}

func TestCheckSemanticIndexFlagsModelSwap(t *testing.T) {
	dir := writeCorpusDir(t, referenceDocs)
	eng, snapshot := newTestEngine(t, dir)
	require.NoError(t, eng.CheckSemanticIndex())

	swapped, err := New(snapshot, config.Default(), embed.NewLocalModel(32), postag.Disabled{}, nil)
	require.NoError(t, err)
	require.ErrorIs(t, swapped.CheckSemanticIndex(), embed.ErrIndexMismatch)
	require.Nil(t, swapped.semanticIndex(swapped.Corpus()))
}

func TestSyntaxSignalNeedsTaggerAndStats(t *testing.T) {
	eng, _ := newTestEngine(t, writeCorpusDir(t, referenceDocs))
	res := eng.Analyze(context.Background(), "The turbine spins under load.")
	require.False(t, res.Report.SyntaxAvailable)
}
