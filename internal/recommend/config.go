// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import (
	"fmt"
	"time"
)

// PopularityScope selects which candidates receive a popularity score.
type PopularityScope string

const (
	// PopularityContent scores only candidates proposed by the content ranker.
	PopularityContent PopularityScope = "content"
	// PopularityUnion scores every candidate.
	PopularityUnion PopularityScope = "union"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Blend contains the hybrid blend weights.
	Blend BlendConfig `json:"blend"`

	// Build contains embedding build parameters.
	Build BuildConfig `json:"build"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Diversity contains MMR reranking parameters.
	Diversity DiversityConfig `json:"diversity"`

	// Related contains related-paper parameters.
	Related RelatedConfig `json:"related"`
}

// BlendConfig defines the hybrid score.
type BlendConfig struct {
	// Alpha weights the content-based score.
	// Default: 0.6.
	Alpha float64 `json:"alpha"`

	// Beta weights the collaborative score.
	// Default: 0.3.
	Beta float64 `json:"beta"`

	// Gamma weights the popularity score.
	// Default: 0.1.
	Gamma float64 `json:"gamma"`

	// CitationWeight and DownloadWeight define popularity.
	// Default: 0.7 and 0.3.
	CitationWeight float64 `json:"citation_weight"`
	DownloadWeight float64 `json:"download_weight"`

	// CandidateMultiplier is how many candidates per requested result each
	// ranker proposes.
	// Default: 2.
	CandidateMultiplier int `json:"candidate_multiplier"`

	// PopularityScope selects the candidates that get a popularity score.
	// Default: content.
	PopularityScope PopularityScope `json:"popularity_scope"`
}

// BuildConfig contains embedding build parameters.
type BuildConfig struct {
	// BatchSize is the number of documents per model call.
	// Default: 64.
	BatchSize int `json:"batch_size"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultK is the number of recommendations when none is requested.
	// Default: 10.
	DefaultK int `json:"default_k"`

	// MaxK is the maximum allowed K value.
	// Default: 1000.
	MaxK int `json:"max_k"`

	// PredictionTimeout bounds each ranker call.
	// Default: 30s.
	PredictionTimeout time.Duration `json:"prediction_timeout"`

	// Workers is the number of users regenerated concurrently by
	// GenerateForAllUsers.
	// Default: 4.
	Workers int `json:"workers"`
}

// DiversityConfig contains MMR reranking parameters.
type DiversityConfig struct {
	// Enabled applies the registered reranker before the top-K cut.
	// Default: false.
	Enabled bool `json:"enabled"`

	// MMRLambda balances relevance vs. diversity in MMR reranking.
	// 1.0 = pure relevance, 0.0 = pure diversity.
	// Default: 0.7.
	MMRLambda float64 `json:"mmr_lambda"`
}

// RelatedConfig contains related-paper parameters.
type RelatedConfig struct {
	// K is the number of similar papers stored per paper.
	// Default: 10.
	K int `json:"k"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Blend: BlendConfig{
			Alpha:               0.6,
			Beta:                0.3,
			Gamma:               0.1,
			CitationWeight:      0.7,
			DownloadWeight:      0.3,
			CandidateMultiplier: 2,
			PopularityScope:     PopularityContent,
		},
		Build: BuildConfig{
			BatchSize: 64,
		},
		Limits: LimitsConfig{
			DefaultK:          10,
			MaxK:              1000,
			PredictionTimeout: 30 * time.Second,
			Workers:           4,
		},
		Diversity: DiversityConfig{
			Enabled:   false,
			MMRLambda: 0.7,
		},
		Related: RelatedConfig{
			K: 10,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Blend.Alpha < 0 || c.Blend.Beta < 0 || c.Blend.Gamma < 0 {
		return fmt.Errorf("blend weights must be non-negative, got alpha=%f beta=%f gamma=%f",
			c.Blend.Alpha, c.Blend.Beta, c.Blend.Gamma)
	}
	if c.Blend.CitationWeight < 0 || c.Blend.DownloadWeight < 0 {
		return fmt.Errorf("blend popularity weights must be non-negative, got citation=%f download=%f",
			c.Blend.CitationWeight, c.Blend.DownloadWeight)
	}
	if c.Blend.CandidateMultiplier < 1 {
		return fmt.Errorf("blend.candidate_multiplier must be positive, got %d", c.Blend.CandidateMultiplier)
	}
	if c.Blend.PopularityScope != PopularityContent && c.Blend.PopularityScope != PopularityUnion {
		return fmt.Errorf("blend.popularity_scope must be content or union, got %q", c.Blend.PopularityScope)
	}

	if c.Build.BatchSize < 1 {
		return fmt.Errorf("build.batch_size must be positive, got %d", c.Build.BatchSize)
	}

	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.PredictionTimeout <= 0 {
		return fmt.Errorf("limits.prediction_timeout must be positive, got %v", c.Limits.PredictionTimeout)
	}
	if c.Limits.Workers < 1 {
		return fmt.Errorf("limits.workers must be positive, got %d", c.Limits.Workers)
	}

	if c.Diversity.MMRLambda < 0 || c.Diversity.MMRLambda > 1 {
		return fmt.Errorf("diversity.mmr_lambda must be in [0, 1], got %f", c.Diversity.MMRLambda)
	}

	if c.Related.K < 1 {
		return fmt.Errorf("related.k must be positive, got %d", c.Related.K)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	clone := *c
	return &clone
}
