// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Engine coordinates the rankers, the embedding model and the store.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	// Plugged-in dependencies, guarded by depMu.
	store         Store
	model         EmbeddingModel
	checkpoints   Checkpointer
	content       Algorithm
	collaborative Algorithm
	reranker      Reranker
	observer      Observer
	depMu         sync.RWMutex

	// buildMu serializes embedding builds.
	buildMu sync.Mutex

	// userLocks serializes regeneration per user.
	userLocks *keyedMutex
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		config:    cfg.Clone(),
		logger:    logger.With().Str("component", "recommend").Logger(),
		observer:  noopObserver{},
		userLocks: newKeyedMutex(),
	}, nil
}

// SetStore sets the store used for reads and writes.
func (e *Engine) SetStore(s Store) {
	e.depMu.Lock()
	defer e.depMu.Unlock()
	e.store = s
}

// SetEmbeddingModel sets the model used by builds.
func (e *Engine) SetEmbeddingModel(m EmbeddingModel) {
	e.depMu.Lock()
	defer e.depMu.Unlock()
	e.model = m
	e.logger.Info().Str("model_version", m.ModelVersion()).Msg("registered embedding model")
}

// SetCheckpointer enables resumable builds.
func (e *Engine) SetCheckpointer(c Checkpointer) {
	e.depMu.Lock()
	defer e.depMu.Unlock()
	e.checkpoints = c
}

// SetContentRanker sets the content-based ranker.
func (e *Engine) SetContentRanker(alg Algorithm) {
	e.depMu.Lock()
	defer e.depMu.Unlock()
	e.content = alg
	e.logger.Info().Str("algorithm", alg.Name()).Msg("registered content ranker")
}

// SetCollaborativeRanker sets the collaborative ranker.
func (e *Engine) SetCollaborativeRanker(alg Algorithm) {
	e.depMu.Lock()
	defer e.depMu.Unlock()
	e.collaborative = alg
	e.logger.Info().Str("algorithm", alg.Name()).Msg("registered collaborative ranker")
}

// SetReranker sets the reranker applied when diversity is enabled.
func (e *Engine) SetReranker(rr Reranker) {
	e.depMu.Lock()
	defer e.depMu.Unlock()
	e.reranker = rr
	e.logger.Info().Str("reranker", rr.Name()).Msg("registered reranker")
}

// SetObserver sets the receiver of build and generation outcomes.
func (e *Engine) SetObserver(o Observer) {
	e.depMu.Lock()
	defer e.depMu.Unlock()
	if o == nil {
		o = noopObserver{}
	}
	e.observer = o
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// getStore returns the store or ErrStoreNotSet.
func (e *Engine) getStore() (Store, error) {
	e.depMu.RLock()
	defer e.depMu.RUnlock()
	if e.store == nil {
		return nil, ErrStoreNotSet
	}
	return e.store, nil
}

// getModel returns the embedding model or ErrModelNotSet.
func (e *Engine) getModel() (EmbeddingModel, error) {
	e.depMu.RLock()
	defer e.depMu.RUnlock()
	if e.model == nil {
		return nil, ErrModelNotSet
	}
	return e.model, nil
}

// getRankers returns both rankers or ErrRankerNotSet.
func (e *Engine) getRankers() (content, collaborative Algorithm, err error) {
	e.depMu.RLock()
	defer e.depMu.RUnlock()
	if e.content == nil || e.collaborative == nil {
		return nil, nil, ErrRankerNotSet
	}
	return e.content, e.collaborative, nil
}

// getCheckpointer returns the checkpointer, which may be nil.
func (e *Engine) getCheckpointer() Checkpointer {
	e.depMu.RLock()
	defer e.depMu.RUnlock()
	return e.checkpoints
}

// getReranker returns the reranker when diversity is enabled, else nil.
func (e *Engine) getReranker() Reranker {
	if !e.config.Diversity.Enabled {
		return nil
	}
	e.depMu.RLock()
	defer e.depMu.RUnlock()
	return e.reranker
}

// getObserver returns the observer.
func (e *Engine) getObserver() Observer {
	e.depMu.RLock()
	defer e.depMu.RUnlock()
	return e.observer
}

// clampK applies the default and maximum K.
func (e *Engine) clampK(k int) int {
	if k <= 0 {
		return e.config.Limits.DefaultK
	}
	if k > e.config.Limits.MaxK {
		return e.config.Limits.MaxK
	}
	return k
}
