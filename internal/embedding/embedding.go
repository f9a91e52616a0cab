// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package embedding

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/paperwise/internal/config"
	"github.com/tomtom215/paperwise/internal/recommend"
)

// Provider names accepted in embedding.provider.
const (
	ProviderHTTP    = "http"
	ProviderHashing = "hashing"
)

// New returns the model selected by cfg.Provider.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *config.EmbeddingConfig, logger zerolog.Logger) (recommend.EmbeddingModel, error) {
	switch cfg.Provider {
	case ProviderHTTP:
		return NewHTTPModel(cfg, logger)
	case ProviderHashing:
		return NewHashingModel(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
