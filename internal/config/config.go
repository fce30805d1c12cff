// Package config exposes the analysis thresholds as configurable policy.
// The defaults are empirical constants tuned against real corpora; they are
// loaded from an optional YAML file and can be overridden per-setting via
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

type Policy struct {
	// Semantic outlier detection.
	SemanticCutoff     float64 `yaml:"semantic_cutoff"`
	SemanticSampleCap  int     `yaml:"semantic_sample_cap"`
	SemanticMinLength  int     `yaml:"semantic_min_length"`
	EmbedBatchSize     int     `yaml:"embed_batch_size"`
	EmbedPadGranule    int     `yaml:"embed_pad_granule"`
	EmbedMaxSequence   int     `yaml:"embed_max_sequence"`
	BaselineMinSamples int     `yaml:"baseline_min_samples"`

	// Length outlier detection.
	LengthFloorFactor     float64 `yaml:"length_floor_factor"`
	LengthFloorLatin      int     `yaml:"length_floor_latin"`
	LengthFloorCJK        int     `yaml:"length_floor_cjk"`
	LengthBaselineMinimum int     `yaml:"length_baseline_minimum"`

	// Phrase rarity tiers.
	PhraseMinBigrams int     `yaml:"phrase_min_bigrams"`
	PhraseInfoCount  int     `yaml:"phrase_info_count"`
	PhraseInfoRatio  float64 `yaml:"phrase_info_ratio"`
	PhraseWarnCount  int     `yaml:"phrase_warn_count"`
	PhraseWarnRatio  float64 `yaml:"phrase_warn_ratio"`

	// Syntax outlier tiers.
	SyntaxMinBigrams  int     `yaml:"syntax_min_bigrams"`
	SyntaxUnseenCount int     `yaml:"syntax_unseen_count"`
	SyntaxUnseenRatio float64 `yaml:"syntax_unseen_ratio"`
	SyntaxSampleCap   int     `yaml:"syntax_sample_cap"`

	// Repetition detection.
	RepetitionLeadTokens int `yaml:"repetition_lead_tokens"`
	RepetitionMinCount   int `yaml:"repetition_min_count"`

	// Score buckets.
	ScoreMediumAt int `yaml:"score_medium_at"`
	ScoreHighAt   int `yaml:"score_high_at"`
}

func Default() Policy {
	return Policy{
		SemanticCutoff:     getenvFloat("DRAFTCHECK_SEMANTIC_CUTOFF", 0.68),
		SemanticSampleCap:  getenvInt("DRAFTCHECK_SEMANTIC_SAMPLE_CAP", 4000),
		SemanticMinLength:  getenvInt("DRAFTCHECK_SEMANTIC_MIN_LENGTH", 5),
		EmbedBatchSize:     getenvInt("DRAFTCHECK_EMBED_BATCH_SIZE", 32),
		EmbedPadGranule:    getenvInt("DRAFTCHECK_EMBED_PAD_GRANULE", 32),
		EmbedMaxSequence:   getenvInt("DRAFTCHECK_EMBED_MAX_SEQUENCE", 256),
		BaselineMinSamples: getenvInt("DRAFTCHECK_BASELINE_MIN_SAMPLES", 50),
		LengthFloorFactor:  getenvFloat("DRAFTCHECK_LENGTH_FLOOR_FACTOR", 0.45),
		LengthFloorLatin:   getenvInt("DRAFTCHECK_LENGTH_FLOOR_LATIN", 4),
		LengthFloorCJK:     getenvInt("DRAFTCHECK_LENGTH_FLOOR_CJK", 6),

		LengthBaselineMinimum: getenvInt("DRAFTCHECK_LENGTH_BASELINE_MINIMUM", 10),

		PhraseMinBigrams: getenvInt("DRAFTCHECK_PHRASE_MIN_BIGRAMS", 8),
		PhraseInfoCount:  getenvInt("DRAFTCHECK_PHRASE_INFO_COUNT", 3),
		PhraseInfoRatio:  getenvFloat("DRAFTCHECK_PHRASE_INFO_RATIO", 0.25),
		PhraseWarnCount:  getenvInt("DRAFTCHECK_PHRASE_WARN_COUNT", 4),
		PhraseWarnRatio:  getenvFloat("DRAFTCHECK_PHRASE_WARN_RATIO", 0.33),

		SyntaxMinBigrams:  getenvInt("DRAFTCHECK_SYNTAX_MIN_BIGRAMS", 5),
		SyntaxUnseenCount: getenvInt("DRAFTCHECK_SYNTAX_UNSEEN_COUNT", 3),
		SyntaxUnseenRatio: getenvFloat("DRAFTCHECK_SYNTAX_UNSEEN_RATIO", 0.55),
		SyntaxSampleCap:   getenvInt("DRAFTCHECK_SYNTAX_SAMPLE_CAP", 400),

		RepetitionLeadTokens: getenvInt("DRAFTCHECK_REPETITION_LEAD_TOKENS", 3),
		RepetitionMinCount:   getenvInt("DRAFTCHECK_REPETITION_MIN_COUNT", 3),

		ScoreMediumAt: getenvInt("DRAFTCHECK_SCORE_MEDIUM_AT", 35),
		ScoreHighAt:   getenvInt("DRAFTCHECK_SCORE_HIGH_AT", 70),
	}
}

// Load layers a YAML policy file over the defaults. A missing file is not an
// error; a malformed one is.
func Load(path string) (Policy, error) {
	p := Default()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return p, nil
}

func getenvInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
