// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package reranking

import (
	"context"
	"math"
	"testing"

	"github.com/tomtom215/paperwise/internal/recommend"
)

func TestNewMMR(t *testing.T) {
	tests := []struct {
		name       string
		lambda     float64
		wantLambda float64
	}{
		{"normal value", 0.7, 0.7},
		{"zero value", 0.0, 0.0},
		{"one value", 1.0, 1.0},
		{"negative clamped to zero", -0.5, 0.0},
		{"above one clamped to one", 1.5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mmr := NewMMR(tt.lambda)
			if mmr == nil {
				t.Fatal("NewMMR() returned nil")
			}
			if mmr.lambda != tt.wantLambda {
				t.Errorf("lambda = %f, want %f", mmr.lambda, tt.wantLambda)
			}
		})
	}
}

func TestMMR_Name(t *testing.T) {
	mmr := NewMMR(0.7)
	if mmr.Name() != "mmr" {
		t.Errorf("Name() = %q, want %q", mmr.Name(), "mmr")
	}
}

// topicItems has three near-duplicate papers about one topic followed by
// lower scored papers about other topics.
func topicItems() ([]recommend.ScoredPaper, map[int64][]float64) {
	items := []recommend.ScoredPaper{
		{PaperID: 1, Score: 1.0},
		{PaperID: 2, Score: 0.95},
		{PaperID: 3, Score: 0.9},
		{PaperID: 4, Score: 0.5},
		{PaperID: 5, Score: 0.4},
		{PaperID: 6, Score: 0.3},
	}
	vectors := map[int64][]float64{
		1: {1, 0, 0},
		2: {1, 0, 0},
		3: {0.99, 0.01, 0},
		4: {0, 1, 0},
		5: {0, 0, 1},
	}
	return items, vectors
}

func TestMMR_Rerank(t *testing.T) {
	items, vectors := topicItems()

	tests := []struct {
		name    string
		lambda  float64
		k       int
		wantLen int
	}{
		{name: "pure relevance (lambda=1)", lambda: 1.0, k: 3, wantLen: 3},
		{name: "balanced (lambda=0.7)", lambda: 0.7, k: 3, wantLen: 3},
		{name: "k larger than items", lambda: 0.7, k: 10, wantLen: 6},
		{name: "k zero returns input", lambda: 0.7, k: 0, wantLen: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mmr := NewMMR(tt.lambda)
			result := mmr.Rerank(context.Background(), items, vectors, tt.k)

			if len(result) != tt.wantLen {
				t.Errorf("len(result) = %d, want %d", len(result), tt.wantLen)
			}
		})
	}
}

func TestMMR_Rerank_DiversityEffect(t *testing.T) {
	items, vectors := topicItems()

	t.Run("pure relevance keeps input order", func(t *testing.T) {
		result := NewMMR(1.0).Rerank(context.Background(), items, vectors, 3)
		for i, want := range []int64{1, 2, 3} {
			if result[i].PaperID != want {
				t.Errorf("result[%d].PaperID = %d, want %d", i, result[i].PaperID, want)
			}
		}
	})

	t.Run("low lambda promotes other topics", func(t *testing.T) {
		result := NewMMR(0.3).Rerank(context.Background(), items, vectors, 3)

		if result[0].PaperID != 1 {
			t.Errorf("first pick = %d, want the most relevant paper 1", result[0].PaperID)
		}
		duplicates := 0
		for _, it := range result {
			if it.PaperID == 2 || it.PaperID == 3 {
				duplicates++
			}
		}
		if duplicates > 0 {
			t.Errorf("expected near duplicates of paper 1 to be demoted, got %+v", result)
		}
	})

	t.Run("scores are untouched", func(t *testing.T) {
		result := NewMMR(0.3).Rerank(context.Background(), items, vectors, 6)
		for _, it := range result {
			for _, orig := range items {
				if orig.PaperID == it.PaperID && orig.Score != it.Score {
					t.Errorf("paper %d score changed from %v to %v", it.PaperID, orig.Score, it.Score)
				}
			}
		}
	})
}

func TestMMR_Rerank_EmptyInput(t *testing.T) {
	mmr := NewMMR(0.7)

	t.Run("nil items", func(t *testing.T) {
		result := mmr.Rerank(context.Background(), nil, nil, 5)
		if len(result) != 0 {
			t.Errorf("expected empty result for empty input, got %d items", len(result))
		}
	})

	t.Run("missing vectors", func(t *testing.T) {
		items := []recommend.ScoredPaper{{PaperID: 1, Score: 1}, {PaperID: 2, Score: 0.5}}
		result := mmr.Rerank(context.Background(), items, nil, 2)
		if len(result) != 2 || result[0].PaperID != 1 {
			t.Errorf("without vectors MMR should keep relevance order, got %+v", result)
		}
	})
}

func TestMMR_Rerank_CanceledContext(t *testing.T) {
	items, vectors := topicItems()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewMMR(0.3).Rerank(ctx, items, vectors, 4)
	if len(result) != 4 {
		t.Fatalf("len(result) = %d, want 4", len(result))
	}
	if result[0].PaperID != 1 {
		t.Errorf("canceled rerank should fall back to input order, got %+v", result)
	}
}

func TestBuildSimilarityMatrix(t *testing.T) {
	items := []recommend.ScoredPaper{{PaperID: 1}, {PaperID: 2}, {PaperID: 3}}
	vectors := map[int64][]float64{
		1: {1, 0},
		2: {1, 1},
	}

	sim := buildSimilarityMatrix(items, vectors)
	if math.Abs(sim[0][1]-1/math.Sqrt2) > 1e-9 || sim[0][1] != sim[1][0] {
		t.Errorf("sim[0][1] = %v, want %v", sim[0][1], 1/math.Sqrt2)
	}
	if sim[0][2] != 0 || sim[2][1] != 0 {
		t.Error("a paper without a vector should have similarity 0")
	}
	if sim[0][0] != 0 {
		t.Errorf("diagonal = %v, want 0", sim[0][0])
	}
}
