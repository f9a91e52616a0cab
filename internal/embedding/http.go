// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/paperwise/internal/cache"
	"github.com/tomtom215/paperwise/internal/config"
	"github.com/tomtom215/paperwise/internal/metrics"
	"github.com/tomtom215/paperwise/internal/recommend"
)

// BreakerName labels the model client's circuit breaker in metrics.
const BreakerName = "embedding-model"

// embeddingsPath is appended to the configured base URL.
const embeddingsPath = "/v1/embeddings"

// maxErrorBodySize limits how much of an error response is read.
const maxErrorBodySize = 64 * 1024

// embedRequest is the OpenAI-compatible request body.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the OpenAI-compatible response body.
type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// HTTPModel calls an OpenAI-compatible embeddings endpoint.
// It is safe for concurrent use.
type HTTPModel struct {
	url     string
	apiKey  string
	model   string
	version string

	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[][]float64]
	cache   *cache.LRU[[]float64] // nil when disabled
	logger  zerolog.Logger
}

// NewHTTPModel creates a client for cfg.URL.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPModel(cfg *config.EmbeddingConfig, logger zerolog.Logger) (*HTTPModel, error) {
	if cfg.URL == "" {
		return nil, errors.New("embedding url is required")
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	m := &HTTPModel{
		url:     strings.TrimRight(cfg.URL, "/") + embeddingsPath,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		version: cfg.ModelVersion,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With().Str("component", "embedding").Str("model", cfg.Model).Logger(),
	}
	if cfg.CacheSize > 0 {
		m.cache = cache.NewLRU[[]float64](cfg.CacheSize, 0)
	}

	metrics.InitBreaker(BreakerName)
	failures := cfg.BreakerFailures
	m.cb = gobreaker.NewCircuitBreaker[[][]float64](gobreaker.Settings{
		Name:        BreakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Cancellation by the caller says nothing about the service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("embedding circuit breaker state changed")
			metrics.RecordBreakerStateChange(name, from, to)
		},
	})

	return m, nil
}

// ModelVersion implements recommend.EmbeddingModel.
func (m *HTTPModel) ModelVersion() string {
	return m.version
}

// Embed implements recommend.EmbeddingModel. Cached texts are not sent;
// the rest go out in one request.
func (m *HTTPModel) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if v, ok := m.cached(text); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, inputText(text))
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	start := time.Now()
	vectors, err := m.cb.Execute(func() ([][]float64, error) {
		return m.request(ctx, missTexts)
	})
	metrics.RecordModelRequest(m.model, time.Since(start), err)
	metrics.RecordBreakerResult(BreakerName, err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("embed %d texts: %w", len(missTexts), recommend.ErrBreakerOpen)
		}
		return nil, fmt.Errorf("embed %d texts: %w", len(missTexts), err)
	}

	for j, i := range missIdx {
		out[i] = vectors[j]
		m.store(texts[i], vectors[j])
	}
	return out, nil
}

// request performs one rate-limited POST and returns the vectors in input order.
func (m *HTTPModel) request(ctx context.Context, input []string) ([][]float64, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(embedRequest{Model: m.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("embeddings service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Data) != len(input) {
		return nil, fmt.Errorf("embeddings service returned %d vectors for %d inputs", len(decoded.Data), len(input))
	}

	sort.SliceStable(decoded.Data, func(i, j int) bool { return decoded.Data[i].Index < decoded.Data[j].Index })
	vectors := make([][]float64, len(decoded.Data))
	for i := range decoded.Data {
		vectors[i] = decoded.Data[i].Embedding
	}
	return vectors, nil
}

func (m *HTTPModel) cached(text string) ([]float64, bool) {
	if m.cache == nil {
		return nil, false
	}
	v, ok := m.cache.Get(m.cacheKey(text))
	metrics.RecordEmbeddingCache(ok)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, true
}

func (m *HTTPModel) store(text string, v []float64) {
	if m.cache == nil {
		return
	}
	stored := make([]float64, len(v))
	copy(stored, v)
	m.cache.Add(m.cacheKey(text), stored)
}

// cacheKey includes the version so a model change never serves stale vectors.
func (m *HTTPModel) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(m.version + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// inputText maps empty documents to a single space; some servers reject
// empty strings.
func inputText(text string) string {
	if text == "" {
		return " "
	}
	return text
}

var _ recommend.EmbeddingModel = (*HTTPModel)(nil)
