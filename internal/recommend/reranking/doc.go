// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

// Package reranking implements post-processing algorithms for recommendation diversity.
//
// Reranking is applied to the blended, sorted candidate list before the
// top-K cut, when diversity is enabled in the engine configuration:
//
//	Rankers -> Blend -> Reranker -> Top K
//	(relevance)         (diversity)
//
// # Maximal Marginal Relevance
//
// MMR iteratively selects papers that are both relevant and dissimilar to
// already selected papers:
//
//	MMR = argmax[lambda * score(i) - (1-lambda) * max_similarity(i, selected)]
//
// Similarity is the cosine similarity of the paper embeddings.
//
// Lambda Guidelines:
//   - 0.9-1.0: Mostly relevance, minimal diversity
//   - 0.7-0.9: Balanced (the default is 0.7)
//   - 0.0-0.5: Diversity-focused (may sacrifice relevance)
//
// # Performance
//
// MMR Complexity:
//   - Time: O(k * n^2) where k = output size, n = input size
//   - Space: O(n^2) for similarity matrix
//
// The engine passes at most 4K candidates, so n stays small.
//
// # Thread Safety
//
// Rerankers are stateless and safe for concurrent use.
package reranking
