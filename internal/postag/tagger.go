// Package postag wraps an external part-of-speech tagger behind an explicit
// capability object. Extractors check Available() instead of probing for a
// nil handle; when no tagger is reachable the syntax signal degrades to
// unavailable and scoring reweights.
package postag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"draftcheck/internal/segment"
)

// Tagged carries the per-token part-of-speech tags and dependency relations
// of one sentence, in token order.
type Tagged struct {
	Tags []string
	Deps []string
}

type Tagger interface {
	// Available reports whether the tagger can currently serve requests.
	Available() bool
	Name() string
	Tag(sentence string, lang segment.Language) (Tagged, error)
}

// Disabled is the null capability.
type Disabled struct{}

func (Disabled) Available() bool { return false }
func (Disabled) Name() string    { return "none" }
func (Disabled) Tag(string, segment.Language) (Tagged, error) {
	return Tagged{}, fmt.Errorf("no tagger configured")
}

// HTTPTagger calls a spaCy-style tagging service. Availability is probed
// once, lazily, against the service health endpoint.
type HTTPTagger struct {
	endpoint string
	model    string
	client   *http.Client

	probeOnce sync.Once
	alive     bool
}

func NewHTTPTagger(endpoint, model string) *HTTPTagger {
	return &HTTPTagger{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *HTTPTagger) Name() string { return t.model }

func (t *HTTPTagger) Available() bool {
	t.probeOnce.Do(func() {
		resp, err := t.client.Get(t.endpoint + "/health")
		if err != nil {
			return
		}
		_ = resp.Body.Close()
		t.alive = resp.StatusCode >= 200 && resp.StatusCode < 300
	})
	return t.alive
}

type tagRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Model    string `json:"model,omitempty"`
}

type tagResponse struct {
	Tokens []struct {
		Pos string `json:"pos"`
		Dep string `json:"dep"`
	} `json:"tokens"`
}

func (t *HTTPTagger) Tag(sentence string, lang segment.Language) (Tagged, error) {
	payload, err := json.Marshal(tagRequest{Text: sentence, Language: lang.String(), Model: t.model})
	if err != nil {
		return Tagged{}, fmt.Errorf("marshal tag request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, t.endpoint+"/tag", bytes.NewReader(payload))
	if err != nil {
		return Tagged{}, fmt.Errorf("build tag request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return Tagged{}, fmt.Errorf("tag request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Tagged{}, fmt.Errorf("tagger status %d", resp.StatusCode)
	}
	var out tagResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Tagged{}, fmt.Errorf("decode tag response: %w", err)
	}
	tagged := Tagged{
		Tags: make([]string, 0, len(out.Tokens)),
		Deps: make([]string, 0, len(out.Tokens)),
	}
	for _, tok := range out.Tokens {
		tagged.Tags = append(tagged.Tags, tok.Pos)
		tagged.Deps = append(tagged.Deps, tok.Dep)
	}
	return tagged, nil
}

// Static is a fixed-answer tagger for tests and offline runs.
type Static struct {
	ID      string
	Answers map[string]Tagged
}

func (s *Static) Available() bool { return true }
func (s *Static) Name() string {
	if s.ID == "" {
		return "static"
	}
	return s.ID
}
func (s *Static) Tag(sentence string, _ segment.Language) (Tagged, error) {
	if t, ok := s.Answers[sentence]; ok {
		return t, nil
	}
	return Tagged{}, fmt.Errorf("no tags for sentence")
}

// POSBigrams joins adjacent tags into the corpus map key form.
func POSBigrams(tags []string) []string {
	if len(tags) < 2 {
		return nil
	}
	out := make([]string, 0, len(tags)-1)
	for i := 0; i+1 < len(tags); i++ {
		out = append(out, tags[i]+" "+tags[i+1])
	}
	return out
}
