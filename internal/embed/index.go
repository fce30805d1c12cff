package embed

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrIndexMismatch is returned when a persisted index was produced by a
// different embedding model than the active one. Mixing embedding spaces
// silently is never acceptable; the caller must rebuild.
var ErrIndexMismatch = errors.New("semantic index does not match active embedding model")

// Meta records which model produced an index and when.
type Meta struct {
	ModelID       string    `json:"model_id"`
	Fingerprint   string    `json:"fingerprint"`
	Dimension     int       `json:"dimension"`
	SentenceCount int       `json:"sentence_count"`
	BuiltAt       time.Time `json:"built_at"`
}

// Index stores exemplar sentences, optional source labels and one
// unit-norm vector per sentence as parallel aligned arrays.
type Index struct {
	Sentences []string
	Sources   []string
	Vectors   [][]float32
	Meta      Meta
}

type Match struct {
	Position int
	Sentence string
	Source   string
	Score    float64
}

// Build embeds a corpus sentence sample and assembles the index.
func Build(ctx context.Context, m Model, sentences, sources []string, batchSize, padGranule, maxSeq int, progress func(done, total int)) (*Index, error) {
	if len(sources) != 0 && len(sources) != len(sentences) {
		return nil, fmt.Errorf("sources length %d does not match sentences length %d", len(sources), len(sentences))
	}
	vectors, err := EmbedAll(ctx, m, sentences, batchSize, padGranule, maxSeq, progress)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		sources = make([]string, len(sentences))
	}
	return &Index{
		Sentences: sentences,
		Sources:   sources,
		Vectors:   vectors,
		Meta: Meta{
			ModelID:       m.Name(),
			Fingerprint:   m.Fingerprint(),
			Dimension:     m.Dimension(),
			SentenceCount: len(sentences),
			BuiltAt:       time.Now().UTC(),
		},
	}, nil
}

// CheckModel verifies the index belongs to the active model's embedding
// space.
func (ix *Index) CheckModel(m Model) error {
	if ix.Meta.Fingerprint != m.Fingerprint() || ix.Meta.Dimension != m.Dimension() {
		return fmt.Errorf("%w: index %s/%s vs model %s/%s",
			ErrIndexMismatch, ix.Meta.ModelID, ix.Meta.Fingerprint, m.Name(), m.Fingerprint())
	}
	return nil
}

func (ix *Index) Len() int { return len(ix.Sentences) }

// Cosine of two unit-norm vectors is their dot product.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// matchHeap is a min-heap on score: the root is the weakest of the current
// best k, so it is the one to evict.
type matchHeap []Match

func (h matchHeap) Len() int            { return len(h) }
func (h matchHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h matchHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *matchHeap) Push(x interface{}) { *h = append(*h, x.(Match)) }
func (h *matchHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopK returns the k nearest sentences by cosine similarity. Selection is
// partial: a size-k heap over all scores, then a sort of only those k.
func (ix *Index) TopK(vec []float32, k int) []Match {
	if k <= 0 || ix.Len() == 0 {
		return nil
	}
	if k > ix.Len() {
		k = ix.Len()
	}
	h := make(matchHeap, 0, k)
	heap.Init(&h)
	for i, v := range ix.Vectors {
		score := Cosine(vec, v)
		if len(h) < k {
			heap.Push(&h, Match{Position: i, Sentence: ix.Sentences[i], Source: ix.Sources[i], Score: score})
			continue
		}
		if score > h[0].Score {
			h[0] = Match{Position: i, Sentence: ix.Sentences[i], Source: ix.Sources[i], Score: score}
			heap.Fix(&h, 0)
		}
	}
	out := []Match(h)
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Best is TopK(vec, 1) without the slice.
func (ix *Index) Best(vec []float32) (Match, bool) {
	top := ix.TopK(vec, 1)
	if len(top) == 0 {
		return Match{}, false
	}
	return top[0], true
}
