// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/paperwise/internal/recommend"
	"github.com/tomtom215/paperwise/internal/recommend/recommendtest"
)

// recordingObserver counts build and generation outcomes.
type recordingObserver struct {
	mu          sync.Mutex
	builds      int
	buildErrs   int
	generations int
	coldStarts  int
}

func (o *recordingObserver) BuildFinished(_ recommend.BuildResult, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.builds++
	if err != nil {
		o.buildErrs++
	}
}

func (o *recordingObserver) GenerationFinished(coldStart bool, _ int, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generations++
	if coldStart {
		o.coldStarts++
	}
}

// reverseReranker reverses the candidate order.
type reverseReranker struct {
	calls int
}

func (r *reverseReranker) Name() string { return "reverse" }

func (r *reverseReranker) Rerank(_ context.Context, items []recommend.ScoredPaper, _ map[int64][]float64, k int) []recommend.ScoredPaper {
	r.calls++
	out := make([]recommend.ScoredPaper, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// userFailingRanker fails for one user and returns items otherwise.
type userFailingRanker struct {
	failUser int64
	items    []recommend.ScoredPaper
}

func (r *userFailingRanker) Name() string { return "flaky" }

func (r *userFailingRanker) Predict(_ context.Context, req recommend.PredictRequest) ([]recommend.ScoredPaper, error) {
	if req.UserID == r.failUser {
		return nil, errors.New("ranker unavailable")
	}
	return r.items, nil
}

type testEnv struct {
	engine        *recommend.Engine
	store         *recommendtest.MemStore
	model         *recommendtest.FuncModel
	checkpoints   *recommendtest.MemCheckpointer
	content       *recommendtest.StaticRanker
	collaborative *recommendtest.StaticRanker
}

func newTestEnv(t *testing.T, cfg *recommend.Config) *testEnv {
	t.Helper()

	engine, err := recommend.NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	env := &testEnv{
		engine:        engine,
		store:         recommendtest.NewMemStore(),
		model:         recommendtest.LengthModel("test-v1"),
		checkpoints:   &recommendtest.MemCheckpointer{},
		content:       &recommendtest.StaticRanker{ID: "content"},
		collaborative: &recommendtest.StaticRanker{ID: "collaborative"},
	}
	engine.SetStore(env.store)
	engine.SetEmbeddingModel(env.model)
	engine.SetCheckpointer(env.checkpoints)
	engine.SetContentRanker(env.content)
	engine.SetCollaborativeRanker(env.collaborative)
	return env
}

func addPapers(s *recommendtest.MemStore, ids ...int64) {
	for _, id := range ids {
		s.AddPaper(recommend.Paper{ID: id, Title: "Title", Summary: "Summary", Abstract: "Abstract", IsApproved: true})
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		engine, err := recommend.NewEngine(nil, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine(nil) error = %v", err)
		}
		if engine.GetConfig().Limits.DefaultK != 10 {
			t.Errorf("DefaultK = %d, want 10", engine.GetConfig().Limits.DefaultK)
		}
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		cfg := recommend.DefaultConfig()
		cfg.Build.BatchSize = 0
		if _, err := recommend.NewEngine(cfg, zerolog.Nop()); err == nil {
			t.Error("NewEngine() expected error for invalid config")
		}
	})

	t.Run("missing dependencies", func(t *testing.T) {
		engine, err := recommend.NewEngine(nil, zerolog.Nop())
		if err != nil {
			t.Fatal(err)
		}
		ctx := context.Background()

		if _, err := engine.BuildEmbeddings(ctx, recommend.BuildOptions{}); !errors.Is(err, recommend.ErrStoreNotSet) {
			t.Errorf("BuildEmbeddings() error = %v, want ErrStoreNotSet", err)
		}

		engine.SetStore(recommendtest.NewMemStore())
		if _, err := engine.BuildEmbeddings(ctx, recommend.BuildOptions{}); !errors.Is(err, recommend.ErrModelNotSet) {
			t.Errorf("BuildEmbeddings() error = %v, want ErrModelNotSet", err)
		}
		if _, err := engine.HybridRecommend(ctx, 1, recommend.HybridOptions{}); !errors.Is(err, recommend.ErrRankerNotSet) {
			t.Errorf("HybridRecommend() error = %v, want ErrRankerNotSet", err)
		}
	})
}

func TestEngine_UserProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("mean of positive ratings and bookmarks", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1, 2, 3, 4)
		env.store.SetEmbedding(1, []float64{1, 0})
		env.store.SetEmbedding(2, []float64{0, 1})
		env.store.SetEmbedding(3, []float64{1, 1})
		env.store.SetEmbedding(4, []float64{9, 9})
		env.store.Bookmark(7, 1)
		env.store.Bookmark(7, 2)
		env.store.Rate(7, 3, 5)
		env.store.Rate(7, 4, 2)

		profile, err := env.engine.UserProfile(ctx, 7)
		if err != nil {
			t.Fatalf("UserProfile() error = %v", err)
		}
		vec, ok := profile.Vector()
		if !ok {
			t.Fatal("expected a profile")
		}
		for i, v := range vec {
			if math.Abs(v-2.0/3.0) > 1e-9 {
				t.Errorf("profile[%d] = %v, want 0.667", i, v)
			}
		}
	})

	t.Run("no signals", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.store.Rate(7, 1, 3)

		profile, err := env.engine.UserProfile(ctx, 7)
		if err != nil {
			t.Fatalf("UserProfile() error = %v", err)
		}
		if profile.Exists() {
			t.Error("expected NoProfile for a user with only low ratings")
		}
	})

	t.Run("signals without embeddings", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1)
		env.store.Bookmark(7, 1)

		profile, err := env.engine.UserProfile(ctx, 7)
		if err != nil {
			t.Fatalf("UserProfile() error = %v", err)
		}
		if profile.Exists() {
			t.Error("expected NoProfile when no signal paper has an embedding")
		}
	})

	t.Run("mismatched dimensions are skipped", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1, 2)
		env.store.SetEmbedding(1, []float64{2, 4})
		env.store.SetEmbedding(2, []float64{1, 1, 1})
		env.store.Bookmark(7, 1)
		env.store.Bookmark(7, 2)

		profile, err := env.engine.UserProfile(ctx, 7)
		if err != nil {
			t.Fatalf("UserProfile() error = %v", err)
		}
		vec, _ := profile.Vector()
		if len(vec) != 2 || vec[0] != 2 || vec[1] != 4 {
			t.Errorf("profile = %v, want [2 4]", vec)
		}
	})

	t.Run("store error", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.store.ErrRatings = errors.New("db down")
		if _, err := env.engine.UserProfile(ctx, 7); err == nil {
			t.Error("UserProfile() expected error")
		}
	})
}

func TestEngine_BuildEmbeddings(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds approved papers only", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1, 2)
		env.store.AddPaper(recommend.Paper{ID: 3, Title: "Pending"})

		result, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{})
		if err != nil {
			t.Fatalf("BuildEmbeddings() error = %v", err)
		}
		if result.Papers != 2 || result.Embedded != 2 {
			t.Errorf("result = %+v, want 2 papers embedded", result)
		}
		if result.ModelVersion != "test-v1" {
			t.Errorf("ModelVersion = %q, want test-v1", result.ModelVersion)
		}
		if _, ok := env.store.Embedding(3); ok {
			t.Error("unapproved paper should not be embedded")
		}
		emb, ok := env.store.Embedding(1)
		if !ok {
			t.Fatal("paper 1 should be embedded")
		}
		if emb.ModelVersion != "test-v1" {
			t.Errorf("embedding ModelVersion = %q, want test-v1", emb.ModelVersion)
		}
		for _, text := range env.model.Texts() {
			if text != "Title Summary Abstract" {
				t.Errorf("embedded text = %q, want %q", text, "Title Summary Abstract")
			}
		}
	})

	t.Run("rebuild is idempotent", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1, 2, 3)

		if _, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{}); err != nil {
			t.Fatal(err)
		}
		first, _ := env.store.Embedding(2)
		if _, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{}); err != nil {
			t.Fatal(err)
		}
		second, _ := env.store.Embedding(2)

		count, _ := env.store.CountEmbeddings(ctx)
		if count != 3 {
			t.Errorf("CountEmbeddings() = %d, want 3", count)
		}
		for i := range first.Vector {
			if first.Vector[i] != second.Vector[i] {
				t.Errorf("vector changed between builds: %v vs %v", first.Vector, second.Vector)
			}
		}
	})

	t.Run("empty corpus", func(t *testing.T) {
		env := newTestEnv(t, nil)
		result, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{})
		if err != nil {
			t.Fatalf("BuildEmbeddings() error = %v", err)
		}
		if result.Embedded != 0 || env.model.Calls() != 0 {
			t.Errorf("empty corpus embedded %d papers with %d model calls", result.Embedded, env.model.Calls())
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1)

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := env.engine.BuildEmbeddings(canceled, recommend.BuildOptions{}); !errors.Is(err, context.Canceled) {
			t.Errorf("BuildEmbeddings() error = %v, want context.Canceled", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1)
		env.store.ErrUpsertEmbeddings = errors.New("disk full")

		if _, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{}); err == nil {
			t.Error("BuildEmbeddings() expected error")
		}
	})
}

func TestEngine_BuildEmbeddings_Resume(t *testing.T) {
	ctx := context.Background()
	modelErr := errors.New("model offline")

	newInterrupted := func(t *testing.T) *testEnv {
		t.Helper()
		cfg := recommend.DefaultConfig()
		cfg.Build.BatchSize = 2
		env := newTestEnv(t, cfg)
		addPapers(env.store, 1, 2, 3, 4, 5)

		env.model.FailOnCall = 2
		env.model.Err = modelErr
		result, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{})
		if !errors.Is(err, modelErr) {
			t.Fatalf("BuildEmbeddings() error = %v, want %v", err, modelErr)
		}
		if result.Embedded != 2 {
			t.Fatalf("Embedded = %d before failure, want 2", result.Embedded)
		}
		return env
	}

	t.Run("failure keeps earlier batches", func(t *testing.T) {
		env := newInterrupted(t)
		if _, ok := env.store.Embedding(2); !ok {
			t.Error("paper 2 from the first batch should be stored")
		}
		if _, ok := env.store.Embedding(3); ok {
			t.Error("paper 3 from the failed batch should not be stored")
		}
		cp, err := env.checkpoints.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cp.LastPaperID != 2 || cp.Completed {
			t.Errorf("checkpoint = %+v, want LastPaperID 2 and incomplete", cp)
		}
	})

	t.Run("resumes after the last stored paper", func(t *testing.T) {
		env := newInterrupted(t)
		model := recommendtest.LengthModel("test-v1")
		env.engine.SetEmbeddingModel(model)

		result, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{})
		if err != nil {
			t.Fatalf("BuildEmbeddings() error = %v", err)
		}
		if !result.Resumed || result.ResumedAfter != 2 {
			t.Errorf("result = %+v, want resumed after 2", result)
		}
		if len(model.Texts()) != 3 {
			t.Errorf("resumed build embedded %d texts, want 3", len(model.Texts()))
		}
		if result.Embedded != 5 {
			t.Errorf("Embedded = %d, want 5", result.Embedded)
		}
		cp, _ := env.checkpoints.Load(ctx)
		if !cp.Completed {
			t.Error("checkpoint should be completed")
		}
	})

	t.Run("new model version starts over", func(t *testing.T) {
		env := newInterrupted(t)
		model := recommendtest.LengthModel("test-v2")
		env.engine.SetEmbeddingModel(model)

		result, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{})
		if err != nil {
			t.Fatalf("BuildEmbeddings() error = %v", err)
		}
		if result.Resumed {
			t.Error("build with a different model version should not resume")
		}
		if len(model.Texts()) != 5 {
			t.Errorf("embedded %d texts, want 5", len(model.Texts()))
		}
	})

	t.Run("fresh ignores checkpoint", func(t *testing.T) {
		env := newInterrupted(t)
		model := recommendtest.LengthModel("test-v1")
		env.engine.SetEmbeddingModel(model)

		result, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{Fresh: true})
		if err != nil {
			t.Fatalf("BuildEmbeddings() error = %v", err)
		}
		if result.Resumed || len(model.Texts()) != 5 {
			t.Errorf("fresh build resumed=%v with %d texts, want false and 5", result.Resumed, len(model.Texts()))
		}
	})

	t.Run("fresh clears the stored checkpoint", func(t *testing.T) {
		env := newInterrupted(t)
		failing := recommendtest.LengthModel("test-v1")
		failing.FailOnCall = 1
		failing.Err = modelErr
		env.engine.SetEmbeddingModel(failing)
		if _, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{Fresh: true}); !errors.Is(err, modelErr) {
			t.Fatalf("BuildEmbeddings() error = %v, want %v", err, modelErr)
		}
		if _, err := env.checkpoints.Load(ctx); !errors.Is(err, recommend.ErrCheckpointNotFound) {
			t.Errorf("Load() error = %v, want ErrCheckpointNotFound after a fresh build failed on its first batch", err)
		}
	})

	t.Run("paper approved below the checkpoint is embedded", func(t *testing.T) {
		cfg := recommend.DefaultConfig()
		cfg.Build.BatchSize = 2
		env := newTestEnv(t, cfg)
		addPapers(env.store, 2, 3, 4, 5)

		env.model.FailOnCall = 2
		env.model.Err = modelErr
		if _, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{}); !errors.Is(err, modelErr) {
			t.Fatalf("BuildEmbeddings() error = %v, want %v", err, modelErr)
		}

		addPapers(env.store, 1)
		model := recommendtest.LengthModel("test-v1")
		env.engine.SetEmbeddingModel(model)

		result, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{})
		if err != nil {
			t.Fatalf("BuildEmbeddings() error = %v", err)
		}
		if !result.Resumed || result.ResumedAfter != 3 {
			t.Errorf("result = %+v, want resumed after 3", result)
		}
		if _, ok := env.store.Embedding(1); !ok {
			t.Error("paper 1 approved after the interruption has no embedding")
		}
		if len(model.Texts()) != 3 {
			t.Errorf("resumed build embedded %d texts, want 3 (papers 1, 4, 5)", len(model.Texts()))
		}
		cp, _ := env.checkpoints.Load(ctx)
		if !cp.Completed || cp.LastPaperID != 5 {
			t.Errorf("checkpoint = %+v, want completed at 5", cp)
		}
	})

	t.Run("stale embedding below the checkpoint is refreshed", func(t *testing.T) {
		env := newInterrupted(t)
		env.store.SetEmbedding(1, []float64{9})

		model := recommendtest.LengthModel("test-v1")
		env.engine.SetEmbeddingModel(model)
		if _, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{}); err != nil {
			t.Fatalf("BuildEmbeddings() error = %v", err)
		}
		emb, _ := env.store.Embedding(1)
		if emb.ModelVersion != "test-v1" {
			t.Errorf("paper 1 model version = %q, want test-v1", emb.ModelVersion)
		}
		if len(model.Texts()) != 4 {
			t.Errorf("resumed build embedded %d texts, want 4 (papers 1, 3, 4, 5)", len(model.Texts()))
		}
	})

	t.Run("reset discards progress", func(t *testing.T) {
		env := newInterrupted(t)
		if err := env.engine.ResetBuildCheckpoint(ctx); err != nil {
			t.Fatalf("ResetBuildCheckpoint() error = %v", err)
		}
		model := recommendtest.LengthModel("test-v1")
		env.engine.SetEmbeddingModel(model)

		result, err := env.engine.BuildEmbeddings(ctx, recommend.BuildOptions{})
		if err != nil {
			t.Fatalf("BuildEmbeddings() error = %v", err)
		}
		if result.Resumed || len(model.Texts()) != 5 {
			t.Errorf("build after reset resumed=%v with %d texts, want false and 5", result.Resumed, len(model.Texts()))
		}
	})
}

func TestEngine_HybridRecommend(t *testing.T) {
	ctx := context.Background()

	withProfile := func(t *testing.T, cfg *recommend.Config) *testEnv {
		t.Helper()
		env := newTestEnv(t, cfg)
		addPapers(env.store, 1, 10, 11, 12)
		env.store.SetEmbedding(1, []float64{1, 0})
		env.store.Bookmark(7, 1)
		return env
	}

	t.Run("blends and explains", func(t *testing.T) {
		env := withProfile(t, nil)
		env.content.Items = []recommend.ScoredPaper{{PaperID: 10, Score: 0.9}, {PaperID: 11, Score: 0.5}}
		env.collaborative.Items = []recommend.ScoredPaper{{PaperID: 10, Score: 3}, {PaperID: 12, Score: 1}}

		result, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{})
		if err != nil {
			t.Fatalf("HybridRecommend() error = %v", err)
		}
		if result.ColdStart {
			t.Error("ColdStart = true, want false")
		}

		want := []struct {
			id     int64
			score  float64
			reason string
		}{
			{10, 1, recommend.ReasonBoth},
			{11, 0, recommend.ReasonContent},
			{12, 0, recommend.ReasonCollaborative},
		}
		if len(result.Items) != len(want) {
			t.Fatalf("len(Items) = %d, want %d", len(result.Items), len(want))
		}
		for i, w := range want {
			got := result.Items[i]
			if got.PaperID != w.id || math.Abs(got.Score-w.score) > 1e-9 || got.Reason != w.reason {
				t.Errorf("Items[%d] = %+v, want id=%d score=%v reason=%q", i, got, w.id, w.score, w.reason)
			}
		}
	})

	t.Run("scores are within unit interval", func(t *testing.T) {
		env := withProfile(t, nil)
		env.content.Items = []recommend.ScoredPaper{{PaperID: 10, Score: 0.2}, {PaperID: 11, Score: 0.7}}
		env.collaborative.Items = []recommend.ScoredPaper{{PaperID: 12, Score: 5}}

		result, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{})
		if err != nil {
			t.Fatal(err)
		}
		for _, it := range result.Items {
			if it.Score < 0 || it.Score > 1 {
				t.Errorf("paper %d score %v outside [0, 1]", it.PaperID, it.Score)
			}
		}
	})

	t.Run("cold start is trending", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 10, 11)
		env.content.Items = []recommend.ScoredPaper{{PaperID: 10, Score: 50}, {PaperID: 11, Score: 20}}

		result, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if !result.ColdStart {
			t.Error("ColdStart = false, want true")
		}
		for _, it := range result.Items {
			if it.Reason != recommend.ReasonTrending {
				t.Errorf("paper %d reason = %q, want %q", it.PaperID, it.Reason, recommend.ReasonTrending)
			}
		}
		reqs := env.content.Requests()
		if len(reqs) != 1 || reqs[0].Profile.Exists() {
			t.Error("content ranker should receive NoProfile")
		}
	})

	t.Run("k limits output and doubles candidates", func(t *testing.T) {
		env := withProfile(t, nil)
		env.content.Items = []recommend.ScoredPaper{{PaperID: 10, Score: 0.9}, {PaperID: 11, Score: 0.5}, {PaperID: 12, Score: 0.1}}

		result, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{K: 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Items) != 2 {
			t.Errorf("len(Items) = %d, want 2", len(result.Items))
		}
		if reqs := env.collaborative.Requests(); len(reqs) != 1 || reqs[0].K != 4 {
			t.Errorf("collaborative request = %+v, want K=4", reqs)
		}
	})

	t.Run("popularity scope", func(t *testing.T) {
		tests := []struct {
			name  string
			scope recommend.PopularityScope
			first int64
		}{
			{name: "content candidates only", scope: recommend.PopularityContent, first: 10},
			{name: "union of candidates", scope: recommend.PopularityUnion, first: 12},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := recommend.DefaultConfig()
				cfg.Blend.PopularityScope = tt.scope
				env := withProfile(t, cfg)
				env.store.AddPaper(recommend.Paper{ID: 12, IsApproved: true, DownloadCount: 100})
				env.content.Items = []recommend.ScoredPaper{{PaperID: 10, Score: 0.5}}
				env.collaborative.Items = []recommend.ScoredPaper{{PaperID: 12, Score: 1}}

				result, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{})
				if err != nil {
					t.Fatal(err)
				}
				if result.Items[0].PaperID != tt.first {
					t.Errorf("first = %d, want %d", result.Items[0].PaperID, tt.first)
				}
			})
		}
	})

	t.Run("custom weights", func(t *testing.T) {
		env := withProfile(t, nil)
		env.content.Items = []recommend.ScoredPaper{{PaperID: 10, Score: 1}}
		env.collaborative.Items = []recommend.ScoredPaper{{PaperID: 11, Score: 1}}

		result, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{Weights: &recommend.Weights{Beta: 1}})
		if err != nil {
			t.Fatal(err)
		}
		if result.Items[0].PaperID != 11 {
			t.Errorf("first = %d, want 11 with collaborative-only weights", result.Items[0].PaperID)
		}
	})

	t.Run("explicit zero weights are kept", func(t *testing.T) {
		env := withProfile(t, nil)
		env.content.Items = []recommend.ScoredPaper{{PaperID: 10, Score: 1}}
		env.collaborative.Items = []recommend.ScoredPaper{{PaperID: 11, Score: 3}}

		result, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{Weights: &recommend.Weights{}})
		if err != nil {
			t.Fatal(err)
		}
		for _, it := range result.Items {
			if it.Score != 0 {
				t.Errorf("paper %d score = %v, want 0 with all-zero weights", it.PaperID, it.Score)
			}
		}
	})

	t.Run("negative weight is rejected", func(t *testing.T) {
		env := withProfile(t, nil)
		_, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{Weights: &recommend.Weights{Alpha: -1}})
		if !errors.Is(err, recommend.ErrNegativeWeight) {
			t.Errorf("error = %v, want ErrNegativeWeight", err)
		}
	})

	t.Run("ranker error fails the blend", func(t *testing.T) {
		env := withProfile(t, nil)
		rankErr := errors.New("boom")
		env.collaborative.Err = rankErr

		if _, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{}); !errors.Is(err, rankErr) {
			t.Errorf("HybridRecommend() error = %v, want %v", err, rankErr)
		}
	})

	t.Run("reranker applies when diversity is enabled", func(t *testing.T) {
		cfg := recommend.DefaultConfig()
		cfg.Diversity.Enabled = true
		env := withProfile(t, cfg)
		rr := &reverseReranker{}
		env.engine.SetReranker(rr)
		env.content.Items = []recommend.ScoredPaper{{PaperID: 10, Score: 0.9}, {PaperID: 11, Score: 0.1}}

		result, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if rr.calls != 1 {
			t.Errorf("reranker calls = %d, want 1", rr.calls)
		}
		if result.Items[0].PaperID != 11 {
			t.Errorf("first = %d, want 11 after reversing", result.Items[0].PaperID)
		}
	})

	t.Run("reranker ignored when diversity is disabled", func(t *testing.T) {
		env := withProfile(t, nil)
		rr := &reverseReranker{}
		env.engine.SetReranker(rr)
		env.content.Items = []recommend.ScoredPaper{{PaperID: 10, Score: 0.9}}

		if _, err := env.engine.HybridRecommend(ctx, 7, recommend.HybridOptions{}); err != nil {
			t.Fatal(err)
		}
		if rr.calls != 0 {
			t.Errorf("reranker calls = %d, want 0", rr.calls)
		}
	})
}

func TestEngine_SaveRecommendations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	err := env.engine.SaveRecommendations(ctx, 7, []recommend.ScoredPaper{
		{PaperID: 1, Score: 0.9, Reason: "custom"},
		{PaperID: 2, Score: 0.5},
	})
	if err != nil {
		t.Fatalf("SaveRecommendations() error = %v", err)
	}

	recs, _ := env.engine.ListRecommendations(ctx, 7, 0)
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if recs[0].Reason != "custom" || recs[1].Reason != recommend.DefaultReason {
		t.Errorf("reasons = %q, %q", recs[0].Reason, recs[1].Reason)
	}

	err = env.engine.SaveRecommendations(ctx, 7, []recommend.ScoredPaper{
		{PaperID: 3, Score: 0.4},
		{PaperID: 3, Score: 0.1},
	})
	if err != nil {
		t.Fatal(err)
	}
	recs, _ = env.engine.ListRecommendations(ctx, 7, 0)
	if len(recs) != 1 || recs[0].PaperID != 3 || recs[0].Score != 0.4 {
		t.Errorf("recs after replace = %+v, want only paper 3 with score 0.4", recs)
	}

	env.store.ErrReplace = errors.New("tx aborted")
	if err := env.engine.SaveRecommendations(ctx, 7, nil); err == nil {
		t.Error("SaveRecommendations() expected error")
	}
}

func TestEngine_GenerateForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("bootstraps embeddings", func(t *testing.T) {
		env := newTestEnv(t, nil)
		obs := &recordingObserver{}
		env.engine.SetObserver(obs)
		addPapers(env.store, 1, 2)
		env.content.Items = []recommend.ScoredPaper{{PaperID: 2, Score: 0.8}}

		items, err := env.engine.GenerateForUser(ctx, 7, recommend.GenerateOptions{})
		if err != nil {
			t.Fatalf("GenerateForUser() error = %v", err)
		}
		if len(items) != 1 {
			t.Errorf("len(items) = %d, want 1", len(items))
		}
		if count, _ := env.store.CountEmbeddings(ctx); count != 2 {
			t.Errorf("CountEmbeddings() = %d, want 2", count)
		}
		recs, _ := env.store.ListRecommendations(ctx, 7, 0)
		if len(recs) != 1 {
			t.Errorf("stored %d recommendations, want 1", len(recs))
		}
		if obs.builds != 1 || obs.generations != 1 || obs.coldStarts != 1 {
			t.Errorf("observer = %+v", obs)
		}
	})

	t.Run("skips build when embeddings exist", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1)
		env.store.SetEmbedding(1, []float64{1, 1})

		if _, err := env.engine.GenerateForUser(ctx, 7, recommend.GenerateOptions{}); err != nil {
			t.Fatal(err)
		}
		if env.model.Calls() != 0 {
			t.Errorf("model calls = %d, want 0", env.model.Calls())
		}
	})

	t.Run("rebuild forces a build", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1)
		env.store.SetEmbedding(1, []float64{1, 1})

		if _, err := env.engine.GenerateForUser(ctx, 7, recommend.GenerateOptions{Rebuild: true}); err != nil {
			t.Fatal(err)
		}
		if env.model.Calls() != 1 {
			t.Errorf("model calls = %d, want 1", env.model.Calls())
		}
	})

	t.Run("failure keeps previous recommendations", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1)
		env.store.SetEmbedding(1, []float64{1, 1})
		if err := env.engine.SaveRecommendations(ctx, 7, []recommend.ScoredPaper{{PaperID: 1, Score: 1}}); err != nil {
			t.Fatal(err)
		}
		env.content.Err = errors.New("ranker down")

		if _, err := env.engine.GenerateForUser(ctx, 7, recommend.GenerateOptions{}); err == nil {
			t.Fatal("GenerateForUser() expected error")
		}
		recs, _ := env.store.ListRecommendations(ctx, 7, 0)
		if len(recs) != 1 {
			t.Errorf("stored %d recommendations after failure, want 1", len(recs))
		}
	})

	t.Run("concurrent calls for one user", func(t *testing.T) {
		env := newTestEnv(t, nil)
		addPapers(env.store, 1, 2)
		env.store.SetEmbedding(1, []float64{1, 1})
		env.content.Items = []recommend.ScoredPaper{{PaperID: 1, Score: 1}, {PaperID: 2, Score: 0.5}}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := env.engine.GenerateForUser(ctx, 7, recommend.GenerateOptions{}); err != nil {
					t.Errorf("GenerateForUser() error = %v", err)
				}
			}()
		}
		wg.Wait()

		recs, _ := env.store.ListRecommendations(ctx, 7, 0)
		if len(recs) != 2 {
			t.Errorf("stored %d recommendations, want 2", len(recs))
		}
	})
}

func TestEngine_EnsureRecommendations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	addPapers(env.store, 1)
	env.content.Items = []recommend.ScoredPaper{{PaperID: 1, Score: 3}}

	recs, err := env.engine.EnsureRecommendations(ctx, 7)
	if err != nil {
		t.Fatalf("EnsureRecommendations() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}

	if _, err := env.engine.EnsureRecommendations(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if n := len(env.content.Requests()); n != 1 {
		t.Errorf("content ranker called %d times, want 1", n)
	}
}

func TestEngine_GenerateForAllUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	addPapers(env.store, 1, 2)
	for _, id := range []int64{1, 2, 3} {
		env.store.AddUser(recommend.User{ID: id, IsActive: true})
	}
	env.store.AddUser(recommend.User{ID: 4, IsActive: false})
	env.engine.SetContentRanker(&userFailingRanker{
		failUser: 2,
		items:    []recommend.ScoredPaper{{PaperID: 1, Score: 1}},
	})

	result, err := env.engine.GenerateForAllUsers(ctx, recommend.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateForAllUsers() error = %v", err)
	}
	if result.Users != 3 || result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("result = %+v, want 3 users, 2 succeeded, 1 failed", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].UserID != 2 {
		t.Errorf("Errors = %+v, want one error for user 2", result.Errors)
	}
	if result.Build.Embedded != 2 {
		t.Errorf("Build.Embedded = %d, want 2", result.Build.Embedded)
	}
	if recs, _ := env.store.ListRecommendations(ctx, 4, 0); len(recs) != 0 {
		t.Error("inactive user should not get recommendations")
	}
}

func TestEngine_BuildRelatedPapers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	addPapers(env.store, 1, 2, 3, 4)
	env.store.SetEmbedding(1, []float64{1, 0})
	env.store.SetEmbedding(2, []float64{0, 1})
	env.store.SetEmbedding(3, []float64{1, 0.1})
	env.store.SetEmbedding(4, []float64{-1, 0})
	env.store.Cite(1, 2)
	env.store.Cite(3, 1)

	related, err := env.engine.BuildRelatedPapers(ctx, 1, 1)
	if err != nil {
		t.Fatalf("BuildRelatedPapers() error = %v", err)
	}

	byType := make(map[recommend.RelationType][]int64)
	for _, r := range related {
		byType[r.RelationType] = append(byType[r.RelationType], r.RelatedPaperID)
	}
	if got := byType[recommend.RelationSimilar]; len(got) != 1 || got[0] != 3 {
		t.Errorf("similar = %v, want [3]", got)
	}
	if got := byType[recommend.RelationCites]; len(got) != 1 || got[0] != 2 {
		t.Errorf("cites = %v, want [2]", got)
	}
	if got := byType[recommend.RelationCited]; len(got) != 1 || got[0] != 3 {
		t.Errorf("cited = %v, want [3]", got)
	}

	stored, err := env.engine.RelatedPapers(ctx, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 3 {
		t.Errorf("len(RelatedPapers()) = %d, want 3", len(stored))
	}

	if _, err := env.engine.BuildRelatedPapers(ctx, 99, 0); !errors.Is(err, recommend.ErrPaperNotFound) {
		t.Errorf("BuildRelatedPapers(99) error = %v, want ErrPaperNotFound", err)
	}
}

func TestEngine_BuildRelatedPapers_SkipsUnapprovedCitations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	addPapers(env.store, 1, 2, 3)
	env.store.AddPaper(recommend.Paper{ID: 4, Title: "Pending", IsApproved: false})
	env.store.AddPaper(recommend.Paper{ID: 5, Title: "Pending", IsApproved: false})
	env.store.Cite(1, 2)
	env.store.Cite(1, 4)
	env.store.Cite(3, 1)
	env.store.Cite(5, 1)
	env.store.Cite(1, 42)

	related, err := env.engine.BuildRelatedPapers(ctx, 1, 0)
	if err != nil {
		t.Fatalf("BuildRelatedPapers() error = %v", err)
	}

	got := make(map[int64]recommend.RelationType, len(related))
	for _, r := range related {
		got[r.RelatedPaperID] = r.RelationType
	}
	want := map[int64]recommend.RelationType{2: recommend.RelationCites, 3: recommend.RelationCited}
	if len(got) != len(want) {
		t.Fatalf("related = %v, want %v", got, want)
	}
	for id, rt := range want {
		if got[id] != rt {
			t.Errorf("related[%d] = %q, want %q", id, got[id], rt)
		}
	}
}
