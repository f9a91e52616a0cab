// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package reranking

import (
	"context"
	"math"

	"github.com/tomtom215/paperwise/internal/recommend"
)

// maxRerankSize limits slice allocations; k is also bounded by len(items).
const maxRerankSize = 10000

// MMR implements Maximal Marginal Relevance reranking.
// It balances relevance and diversity by iteratively selecting papers
// that are both relevant and dissimilar to already selected papers.
//
// The MMR formula is:
//
//	MMR = argmax[lambda * score(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// Where:
//   - lambda: balance parameter (1.0 = pure relevance, 0.0 = pure diversity)
//   - score(i): blended relevance score for paper i
//   - sim(i, s): cosine similarity between the embeddings of i and s
//
// A paper without an embedding has similarity 0 to every other paper.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	// Lambda balances relevance vs. diversity (0.0 to 1.0)
	lambda float64
}

// NewMMR creates a new MMR reranker.
func NewMMR(lambda float64) *MMR {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return &MMR{lambda: lambda}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Rerank applies MMR reranking to diversify the recommendation list.
// Ties keep the input order.
func (m *MMR) Rerank(ctx context.Context, items []recommend.ScoredPaper, vectors map[int64][]float64, k int) []recommend.ScoredPaper {
	if len(items) == 0 || k <= 0 {
		return items
	}

	if k > maxRerankSize {
		k = maxRerankSize
	}
	if k > len(items) {
		k = len(items)
	}

	// Pure relevance keeps the input order.
	if m.lambda >= 1.0 {
		return items[:k]
	}

	similarities := buildSimilarityMatrix(items, vectors)

	selected := make([]recommend.ScoredPaper, 0, k)
	selectedIndices := make(map[int]struct{}, k)

	for len(selected) < k {
		if ctx.Err() != nil {
			break
		}

		bestIdx := -1
		bestMMR := math.Inf(-1)

		for i := range items {
			if _, ok := selectedIndices[i]; ok {
				continue
			}

			maxSim := 0.0
			for j := range selectedIndices {
				if sim := similarities[i][j]; sim > maxSim {
					maxSim = sim
				}
			}

			mmrScore := m.lambda*items[i].Score - (1-m.lambda)*maxSim
			if mmrScore > bestMMR {
				bestMMR = mmrScore
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			break
		}

		selected = append(selected, items[bestIdx])
		selectedIndices[bestIdx] = struct{}{}
	}

	// A canceled context returns what was selected, topped up in input order.
	for i := 0; len(selected) < k && i < len(items); i++ {
		if _, ok := selectedIndices[i]; !ok {
			selected = append(selected, items[i])
		}
	}

	return selected
}

// buildSimilarityMatrix computes pairwise embedding cosine similarity.
func buildSimilarityMatrix(items []recommend.ScoredPaper, vectors map[int64][]float64) [][]float64 {
	n := len(items)
	similarities := make([][]float64, n)
	for i := range similarities {
		similarities[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		a, ok := vectors[items[i].PaperID]
		if !ok {
			continue
		}
		for j := i + 1; j < n; j++ {
			b, ok := vectors[items[j].PaperID]
			if !ok {
				continue
			}
			sim := recommend.CosineSimilarity(a, b)
			similarities[i][j] = sim
			similarities[j][i] = sim
		}
	}

	return similarities
}

// Ensure MMR implements the interface.
var _ recommend.Reranker = (*MMR)(nil)
