// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommendtest

import (
	"context"
	"sync"

	"github.com/tomtom215/paperwise/internal/recommend"
)

// FuncModel is a recommend.EmbeddingModel backed by a function.
type FuncModel struct {
	Version string
	Fn      func(text string) []float64

	// FailOnCall makes the Nth call (1-based) fail with Err. 0 never fails.
	FailOnCall int
	Err        error

	mu    sync.Mutex
	calls int
	texts []string
}

// Embed implements recommend.EmbeddingModel.
func (m *FuncModel) Embed(_ context.Context, texts []string) ([][]float64, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.texts = append(m.texts, texts...)
	m.mu.Unlock()

	if m.FailOnCall > 0 && call == m.FailOnCall {
		return nil, m.Err
	}

	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = m.Fn(t)
	}
	return out, nil
}

// ModelVersion implements recommend.EmbeddingModel.
func (m *FuncModel) ModelVersion() string {
	return m.Version
}

// Calls returns the number of Embed calls.
func (m *FuncModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Texts returns every text passed to Embed, in order.
func (m *FuncModel) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.texts))
	copy(out, m.texts)
	return out
}

// LengthModel returns a model embedding each text as [len(text), 1].
func LengthModel(version string) *FuncModel {
	return &FuncModel{
		Version: version,
		Fn: func(text string) []float64 {
			return []float64{float64(len(text)), 1}
		},
	}
}

// MemCheckpointer is an in-memory recommend.Checkpointer.
type MemCheckpointer struct {
	mu    sync.Mutex
	cp    *recommend.BuildCheckpoint
	saves []recommend.BuildCheckpoint
}

// Load implements recommend.Checkpointer.
func (c *MemCheckpointer) Load(_ context.Context) (recommend.BuildCheckpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cp == nil {
		return recommend.BuildCheckpoint{}, recommend.ErrCheckpointNotFound
	}
	return *c.cp, nil
}

// Save implements recommend.Checkpointer.
func (c *MemCheckpointer) Save(_ context.Context, cp recommend.BuildCheckpoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cp = &cp
	c.saves = append(c.saves, cp)
	return nil
}

// Clear implements recommend.Checkpointer.
func (c *MemCheckpointer) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cp = nil
	return nil
}

// Saves returns every checkpoint saved, in order.
func (c *MemCheckpointer) Saves() []recommend.BuildCheckpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]recommend.BuildCheckpoint, len(c.saves))
	copy(out, c.saves)
	return out
}

// StaticRanker returns fixed results and records its requests.
type StaticRanker struct {
	ID    string
	Items []recommend.ScoredPaper
	Err   error

	mu       sync.Mutex
	requests []recommend.PredictRequest
}

// Name implements recommend.Algorithm.
func (r *StaticRanker) Name() string {
	return r.ID
}

// Predict implements recommend.Algorithm.
func (r *StaticRanker) Predict(_ context.Context, req recommend.PredictRequest) ([]recommend.ScoredPaper, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]recommend.ScoredPaper, len(r.Items))
	copy(out, r.Items)
	return out, nil
}

// Requests returns every request received.
func (r *StaticRanker) Requests() []recommend.PredictRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recommend.PredictRequest, len(r.requests))
	copy(out, r.requests)
	return out
}

var (
	_ recommend.EmbeddingModel = (*FuncModel)(nil)
	_ recommend.Checkpointer   = (*MemCheckpointer)(nil)
	_ recommend.Algorithm      = (*StaticRanker)(nil)
)
