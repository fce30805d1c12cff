// Package embed turns sentences into L2-normalized vectors and serves
// nearest-neighbor queries over a corpus sentence sample.
package embed

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Model produces one vector per input text. Implementations must be safe for
// concurrent use.
type Model interface {
	Name() string
	// Fingerprint identifies the exact embedding space. An index built with
	// one fingerprint must never be queried with vectors from another.
	Fingerprint() string
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// PaddedModel is implemented by models that benefit from a fixed padded
// sequence length per batch.
type PaddedModel interface {
	Model
	EmbedPadded(ctx context.Context, texts []string, padTo int) ([][]float32, error)
}

// BucketedLength rounds the longest sequence in a batch up to the padding
// granule, capped at max. Feeding models a handful of fixed shapes instead
// of one shape per batch avoids recomputation churn.
func BucketedLength(texts []string, granule, max int) int {
	if granule <= 0 {
		granule = 32
	}
	longest := 0
	for _, t := range texts {
		if n := len(strings.Fields(t)); n > longest {
			longest = n
		}
	}
	padded := ((longest + granule - 1) / granule) * granule
	if padded < granule {
		padded = granule
	}
	if max > 0 && padded > max {
		padded = max
	}
	return padded
}

// MeanPool collapses token-level states into one sentence vector, averaging
// only positions the attention mask marks as real tokens.
func MeanPool(states [][]float32, mask []bool) []float32 {
	if len(states) == 0 {
		return nil
	}
	dim := len(states[0])
	out := make([]float32, dim)
	n := 0
	for i, row := range states {
		if i < len(mask) && !mask[i] {
			continue
		}
		for j := 0; j < dim && j < len(row); j++ {
			out[j] += row[j]
		}
		n++
	}
	if n == 0 {
		return out
	}
	inv := float32(1) / float32(n)
	for j := range out {
		out[j] *= inv
	}
	return out
}

// Normalize scales a vector to unit L2 norm in place.
func Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}

func fingerprintOf(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// LocalModel is a deterministic hashed word-frequency embedder. It captures
// lexical overlap only, but it needs no external service and gives the
// semantic signal a usable offline fallback.
type LocalModel struct {
	dim int
}

func NewLocalModel(dim int) *LocalModel {
	if dim <= 0 {
		dim = 256
	}
	return &LocalModel{dim: dim}
}

func (m *LocalModel) Name() string { return "local-wordfreq" }

func (m *LocalModel) Fingerprint() string {
	return fingerprintOf(m.Name(), fmt.Sprintf("%d", m.dim))
}

func (m *LocalModel) Dimension() int { return m.dim }

func (m *LocalModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec := make([]float32, m.dim)
		for _, w := range strings.Fields(strings.ToLower(t)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(strings.Trim(w, ".,;:!?\"'()[]")))
			vec[h.Sum32()%uint32(m.dim)]++
		}
		Normalize(vec)
		out[i] = vec
	}
	return out, nil
}

// HTTPModel talks to an embedding service with an Ollama-compatible JSON
// endpoint. Responses may carry pooled vectors or token-level states; the
// latter are mean-pooled here.
type HTTPModel struct {
	endpoint string
	model    string
	dim      int
	client   *http.Client
}

func NewHTTPModel(endpoint, model string, dim int) *HTTPModel {
	return &HTTPModel{
		endpoint: endpoint,
		model:    model,
		dim:      dim,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (m *HTTPModel) Name() string { return m.model }

func (m *HTTPModel) Fingerprint() string {
	return fingerprintOf(m.model, m.endpoint, fmt.Sprintf("%d", m.dim))
}

func (m *HTTPModel) Dimension() int { return m.dim }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
	PadTo int      `json:"pad_to,omitempty"`
}

type embedResponse struct {
	Embeddings  [][]float32     `json:"embeddings"`
	TokenStates [][][]float32   `json:"token_states"`
	Masks       [][]bool        `json:"attention_masks"`
	Error       json.RawMessage `json:"error"`
}

func (m *HTTPModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return m.EmbedPadded(ctx, texts, 0)
}

func (m *HTTPModel) EmbedPadded(ctx context.Context, texts []string, padTo int) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: m.model, Input: texts, PadTo: padTo})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embed service status %d", resp.StatusCode)
	}
	var out embedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(out.Error) > 0 {
		return nil, fmt.Errorf("embed service error: %s", string(out.Error))
	}

	vectors := out.Embeddings
	if len(vectors) == 0 && len(out.TokenStates) > 0 {
		vectors = make([][]float32, len(out.TokenStates))
		for i, states := range out.TokenStates {
			var mask []bool
			if i < len(out.Masks) {
				mask = out.Masks[i]
			}
			vectors[i] = MeanPool(states, mask)
		}
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed service returned %d vectors for %d inputs", len(vectors), len(texts))
	}
	for _, v := range vectors {
		Normalize(v)
	}
	return vectors, nil
}

// EmbedAll batches texts through a model, checking cancellation between
// batches and reporting coarse progress.
func EmbedAll(ctx context.Context, m Model, texts []string, batchSize, padGranule, maxSeq int, progress func(done, total int)) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 32
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		var vectors [][]float32
		var err error
		if pm, ok := m.(PaddedModel); ok {
			vectors, err = pm.EmbedPadded(ctx, batch, BucketedLength(batch, padGranule, maxSeq))
		} else {
			vectors, err = m.EmbedBatch(ctx, batch)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
		if progress != nil {
			progress(len(out), len(texts))
		}
	}
	return out, nil
}
