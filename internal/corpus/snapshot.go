package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"draftcheck/internal/config"
	"draftcheck/internal/embed"
	"draftcheck/internal/fsatomic"
	"draftcheck/internal/segment"
	"draftcheck/internal/stats"
)

// SchemaVersion of the persisted snapshot. Version 1 was a flat English
// word-frequency map; version 2 added bigrams; version 3 is the current
// per-language document.
const SchemaVersion = 3

type langSnapshot struct {
	DocCount       int            `json:"doc_count"`
	WordDoc        map[string]int `json:"word_doc"`
	WordTotal      map[string]int `json:"word_total"`
	BigramDoc      map[string]int `json:"bigram_doc"`
	BigramTotal    map[string]int `json:"bigram_total"`
	BigramCount    int64          `json:"bigram_count"`
	SentenceLength stats.Snapshot `json:"sentence_length"`
	POSBigramSent  map[string]int `json:"pos_bigram_sent"`
	POSBigramTotal map[string]int `json:"pos_bigram_total"`
	DepRel         map[string]int `json:"dep_rel"`
	SampleLengths  []int          `json:"sample_lengths"`
}

type snapshotFile struct {
	Version  int          `json:"version"`
	BuiltAt  time.Time    `json:"built_at"`
	DocCount int          `json:"doc_count"`
	Dominant string       `json:"dominant_language"`
	TaggerID string       `json:"tagger_id"`
	Semantic embed.Meta   `json:"semantic"`
	English  langSnapshot `json:"en"`
	Chinese  langSnapshot `json:"zh"`
}

// Save writes the snapshot atomically: temp file in the same directory,
// then rename. A failed save leaves any previous snapshot untouched.
func (c *Corpus) Save(path string) error {
	var st fsatomic.Stage
	if err := c.Stage(path, &st); err != nil {
		st.Discard()
		return err
	}
	return st.Commit()
}

// Stage adds the marshalled snapshot to st without renaming it into place,
// so callers can commit it together with the semantic sidecars.
func (c *Corpus) Stage(path string, st *fsatomic.Stage) error {
	sf := snapshotFile{
		Version:  SchemaVersion,
		BuiltAt:  c.BuiltAt,
		DocCount: c.DocCount,
		Dominant: c.Dominant.String(),
		TaggerID: c.TaggerID,
		Semantic: c.Semantic,
		English:  snapshotLang(&c.langs[segment.English]),
		Chinese:  snapshotLang(&c.langs[segment.Chinese]),
	}
	raw, err := json.MarshalIndent(sf, "", " ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := st.Add(path, raw); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func snapshotLang(ls *langStats) langSnapshot {
	return langSnapshot{
		DocCount:       ls.DocCount,
		WordDoc:        ls.WordDoc,
		WordTotal:      ls.WordTotal,
		BigramDoc:      ls.BigramDoc,
		BigramTotal:    ls.BigramTotal,
		BigramCount:    ls.BigramCount,
		SentenceLength: ls.SentenceLength.Snapshot(),
		POSBigramSent:  ls.POSBigramSent,
		POSBigramTotal: ls.POSBigramTotal,
		DepRel:         ls.DepRel,
		SampleLengths:  ls.SampleLengths,
	}
}

// Load reads a snapshot. A missing file or an unrecognized/corrupt document
// yields an empty corpus rather than an error; only real I/O failures
// propagate.
func Load(path string, policy config.Policy) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(policy), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var sf snapshotFile
	if err := json.Unmarshal(raw, &sf); err == nil && sf.Version >= 2 {
		c := New(policy)
		c.BuiltAt = sf.BuiltAt
		c.DocCount = sf.DocCount
		c.Dominant = segment.ParseLanguage(sf.Dominant)
		c.TaggerID = sf.TaggerID
		c.Semantic = sf.Semantic
		restoreLang(&c.langs[segment.English], sf.English)
		restoreLang(&c.langs[segment.Chinese], sf.Chinese)
		return c, nil
	}

	if c, ok := loadLegacy(raw, policy); ok {
		return c, nil
	}
	return New(policy), nil
}

func restoreLang(ls *langStats, snap langSnapshot) {
	if snap.WordDoc != nil {
		ls.WordDoc = snap.WordDoc
	}
	if snap.WordTotal != nil {
		ls.WordTotal = snap.WordTotal
	}
	if snap.BigramDoc != nil {
		ls.BigramDoc = snap.BigramDoc
	}
	if snap.BigramTotal != nil {
		ls.BigramTotal = snap.BigramTotal
	}
	if snap.POSBigramSent != nil {
		ls.POSBigramSent = snap.POSBigramSent
	}
	if snap.POSBigramTotal != nil {
		ls.POSBigramTotal = snap.POSBigramTotal
	}
	if snap.DepRel != nil {
		ls.DepRel = snap.DepRel
	}
	ls.DocCount = snap.DocCount
	ls.BigramCount = snap.BigramCount
	ls.SentenceLength = stats.FromSnapshot(snap.SentenceLength)
	ls.SampleLengths = snap.SampleLengths
}

// loadLegacy accepts the version-1 schema: a single flat English
// word-frequency map. The richer fields are synthesized with explicitly
// approximate heuristics: the corpus is treated as one document, so every
// known word gets doc-frequency 1 and classifies as common, which matches
// how the old format was consumed.
func loadLegacy(raw []byte, policy config.Policy) (*Corpus, bool) {
	var flat map[string]int
	if err := json.Unmarshal(raw, &flat); err != nil || len(flat) == 0 {
		return nil, false
	}
	for _, v := range flat {
		if v < 0 {
			return nil, false
		}
	}
	c := New(policy)
	c.DocCount = 1
	ls := &c.langs[segment.English]
	ls.DocCount = 1
	for token, total := range flat {
		ls.WordTotal[token] = total
		ls.WordDoc[token] = 1
	}
	return c, true
}
