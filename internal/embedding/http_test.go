// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package embedding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/paperwise/internal/config"
	"github.com/tomtom215/paperwise/internal/recommend"
)

// fakeServer answers /v1/embeddings with [len(input), index] per input,
// listed in reverse index order.
type fakeServer struct {
	*httptest.Server
	requests atomic.Int32
	status   atomic.Int32
	lastBody atomic.Value // embedRequest
	lastAuth atomic.Value // string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.status.Store(http.StatusOK)
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.requests.Add(1)
		fs.lastAuth.Store(r.Header.Get("Authorization"))

		if r.URL.Path != "/v1/embeddings" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if code := int(fs.status.Load()); code != http.StatusOK {
			http.Error(w, "model overloaded", code)
			return
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fs.lastBody.Store(req)

		var resp embedResponse
		resp.Data = make([]struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}, len(req.Input))
		for i, in := range req.Input {
			pos := len(req.Input) - 1 - i
			resp.Data[pos].Index = i
			resp.Data[pos].Embedding = []float64{float64(len(in)), float64(i)}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func testEmbeddingConfig(url string) *config.EmbeddingConfig {
	return &config.EmbeddingConfig{
		Provider:        ProviderHTTP,
		URL:             url,
		APIKey:          "secret",
		Model:           "all-MiniLM-L6-v2",
		ModelVersion:    "bert-mini-v1",
		Dimensions:      2,
		BatchSize:       8,
		Timeout:         5 * time.Second,
		Burst:           1,
		CacheSize:       16,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}
}

func TestHTTPModel_Embed(t *testing.T) {
	srv := newFakeServer(t)
	m, err := NewHTTPModel(testEmbeddingConfig(srv.URL+"/"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHTTPModel() error = %v", err)
	}

	got, err := m.Embed(context.Background(), []string{"abc", "", "hello"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	want := [][]float64{{3, 0}, {1, 1}, {5, 2}}
	if len(got) != len(want) {
		t.Fatalf("len(Embed()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i][0] != want[i][0] || got[i][1] != want[i][1] {
			t.Errorf("vector %d = %v, want %v", i, got[i], want[i])
		}
	}

	body, _ := srv.lastBody.Load().(embedRequest)
	if body.Model != "all-MiniLM-L6-v2" {
		t.Errorf("request model = %q, want all-MiniLM-L6-v2", body.Model)
	}
	if body.Input[1] != " " {
		t.Errorf("empty input sent as %q, want single space", body.Input[1])
	}
	if auth, _ := srv.lastAuth.Load().(string); auth != "Bearer secret" {
		t.Errorf("Authorization = %q, want Bearer secret", auth)
	}
	if m.ModelVersion() != "bert-mini-v1" {
		t.Errorf("ModelVersion() = %q, want bert-mini-v1", m.ModelVersion())
	}
}

func TestHTTPModel_Cache(t *testing.T) {
	srv := newFakeServer(t)
	m, err := NewHTTPModel(testEmbeddingConfig(srv.URL), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHTTPModel() error = %v", err)
	}
	ctx := context.Background()

	if _, err := m.Embed(ctx, []string{"alpha", "beta"}); err != nil {
		t.Fatalf("first Embed() error = %v", err)
	}
	got, err := m.Embed(ctx, []string{"beta", "alpha"})
	if err != nil {
		t.Fatalf("second Embed() error = %v", err)
	}
	if n := srv.requests.Load(); n != 1 {
		t.Errorf("requests = %d, want 1 (second call fully cached)", n)
	}
	if got[0][0] != 4 || got[1][0] != 5 {
		t.Errorf("cached vectors = %v, want lengths 4 and 5", got)
	}

	// Mutating a returned vector must not corrupt the cache.
	got[0][0] = 99
	again, _ := m.Embed(ctx, []string{"beta"})
	if again[0][0] != 4 {
		t.Errorf("cached vector = %v after caller mutation, want [4 ...]", again[0])
	}

	// Only the uncached text is sent.
	if _, err := m.Embed(ctx, []string{"alpha", "gamma"}); err != nil {
		t.Fatalf("third Embed() error = %v", err)
	}
	body, _ := srv.lastBody.Load().(embedRequest)
	if len(body.Input) != 1 || body.Input[0] != "gamma" {
		t.Errorf("request input = %v, want [gamma]", body.Input)
	}
}

func TestHTTPModel_NoCache(t *testing.T) {
	srv := newFakeServer(t)
	cfg := testEmbeddingConfig(srv.URL)
	cfg.CacheSize = 0
	m, err := NewHTTPModel(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHTTPModel() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := m.Embed(context.Background(), []string{"same"}); err != nil {
			t.Fatalf("Embed() error = %v", err)
		}
	}
	if n := srv.requests.Load(); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestHTTPModel_BreakerOpens(t *testing.T) {
	srv := newFakeServer(t)
	srv.status.Store(http.StatusServiceUnavailable)

	m, err := NewHTTPModel(testEmbeddingConfig(srv.URL), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHTTPModel() error = %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := m.Embed(ctx, []string{"fails"})
		if err == nil {
			t.Fatalf("Embed() call %d error = nil, want service error", i+1)
		}
		if errors.Is(err, recommend.ErrBreakerOpen) {
			t.Fatalf("Embed() call %d tripped the breaker too early", i+1)
		}
	}

	_, err = m.Embed(ctx, []string{"rejected"})
	if !errors.Is(err, recommend.ErrBreakerOpen) {
		t.Errorf("Embed() after %d failures error = %v, want ErrBreakerOpen", 2, err)
	}
	if n := srv.requests.Load(); n != 2 {
		t.Errorf("requests = %d, want 2 (open circuit sends nothing)", n)
	}
}

func TestHTTPModel_VectorCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,2]}]}`))
	}))
	defer srv.Close()

	m, err := NewHTTPModel(testEmbeddingConfig(srv.URL), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHTTPModel() error = %v", err)
	}
	if _, err := m.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("Embed() error = nil, want count mismatch error")
	}
}

func TestNewHTTPModel_RequiresURL(t *testing.T) {
	cfg := testEmbeddingConfig("")
	if _, err := NewHTTPModel(cfg, zerolog.Nop()); err == nil {
		t.Error("NewHTTPModel() error = nil, want missing url error")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		provider    string
		wantVersion string
		wantErr     bool
	}{
		{provider: ProviderHTTP, wantVersion: "bert-mini-v1"},
		{provider: ProviderHashing, wantVersion: HashingVersion},
		{provider: "onnx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := testEmbeddingConfig("http://127.0.0.1:1")
			cfg.Provider = tt.provider

			m, err := New(cfg, zerolog.Nop())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && m.ModelVersion() != tt.wantVersion {
				t.Errorf("ModelVersion() = %q, want %q", m.ModelVersion(), tt.wantVersion)
			}
		})
	}
}
