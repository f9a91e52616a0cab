// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import (
	"math"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("blend weights match the published defaults", func(t *testing.T) {
		if cfg.Blend.Alpha != 0.6 || cfg.Blend.Beta != 0.3 || cfg.Blend.Gamma != 0.1 {
			t.Errorf("blend = (%v, %v, %v), want (0.6, 0.3, 0.1)", cfg.Blend.Alpha, cfg.Blend.Beta, cfg.Blend.Gamma)
		}
		if math.Abs(cfg.Blend.Alpha+cfg.Blend.Beta+cfg.Blend.Gamma-1) > 1e-9 {
			t.Error("blend weights should sum to 1")
		}
	})

	t.Run("popularity weights", func(t *testing.T) {
		if cfg.Blend.CitationWeight != 0.7 || cfg.Blend.DownloadWeight != 0.3 {
			t.Errorf("popularity = (%v, %v), want (0.7, 0.3)", cfg.Blend.CitationWeight, cfg.Blend.DownloadWeight)
		}
		if cfg.Blend.PopularityScope != PopularityContent {
			t.Errorf("PopularityScope = %q, want %q", cfg.Blend.PopularityScope, PopularityContent)
		}
	})

	t.Run("limits", func(t *testing.T) {
		if cfg.Limits.DefaultK != 10 {
			t.Errorf("Limits.DefaultK = %d, want 10", cfg.Limits.DefaultK)
		}
		if cfg.Blend.CandidateMultiplier != 2 {
			t.Errorf("Blend.CandidateMultiplier = %d, want 2", cfg.Blend.CandidateMultiplier)
		}
	})

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{name: "valid default", modify: func(c *Config) {}, wantError: false},
		{name: "negative alpha", modify: func(c *Config) { c.Blend.Alpha = -0.1 }, wantError: true},
		{name: "negative gamma", modify: func(c *Config) { c.Blend.Gamma = -1 }, wantError: true},
		{name: "negative citation weight", modify: func(c *Config) { c.Blend.CitationWeight = -1 }, wantError: true},
		{name: "zero candidate multiplier", modify: func(c *Config) { c.Blend.CandidateMultiplier = 0 }, wantError: true},
		{name: "unknown popularity scope", modify: func(c *Config) { c.Blend.PopularityScope = "global" }, wantError: true},
		{name: "union popularity scope", modify: func(c *Config) { c.Blend.PopularityScope = PopularityUnion }, wantError: false},
		{name: "zero batch size", modify: func(c *Config) { c.Build.BatchSize = 0 }, wantError: true},
		{name: "zero default k", modify: func(c *Config) { c.Limits.DefaultK = 0 }, wantError: true},
		{name: "max k below default k", modify: func(c *Config) { c.Limits.MaxK = 5 }, wantError: true},
		{name: "zero timeout", modify: func(c *Config) { c.Limits.PredictionTimeout = 0 }, wantError: true},
		{name: "zero workers", modify: func(c *Config) { c.Limits.Workers = 0 }, wantError: true},
		{name: "lambda above one", modify: func(c *Config) { c.Diversity.MMRLambda = 1.5 }, wantError: true},
		{name: "zero related k", modify: func(c *Config) { c.Related.K = 0 }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	orig := DefaultConfig()
	clone := orig.Clone()

	clone.Blend.Alpha = 0.9
	clone.Limits.PredictionTimeout = time.Second

	if orig.Blend.Alpha != 0.6 {
		t.Errorf("original Alpha = %v after modifying clone, want 0.6", orig.Blend.Alpha)
	}
	if orig.Limits.PredictionTimeout != 30*time.Second {
		t.Errorf("original PredictionTimeout = %v after modifying clone, want 30s", orig.Limits.PredictionTimeout)
	}
}
